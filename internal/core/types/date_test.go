package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("31/12/2027")
	require.NoError(t, err)
	assert.Equal(t, 2027, d.Year())
	assert.Equal(t, time.December, d.Month())
	assert.Equal(t, 31, d.Day())
	assert.Equal(t, "31/12/2027", d.String())

	_, err = ParseDate("2027-12-31")
	assert.Error(t, err)
	_, err = ParseDate("31/13/2027")
	assert.Error(t, err)
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Expired Date `json:"expired_date"`
		Pay     Date `json:"pay_date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"expired_date":"05/03/2026","pay_date":""}`), &payload))
	assert.Equal(t, "05/03/2026", payload.Expired.String())
	assert.True(t, payload.Pay.IsZero())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"expired_date":"05/03/2026","pay_date":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"expired_date":"2026-03-05"}`), &payload))
}

func TestDate_ScanValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2026, 3, 5, 17, 30, 0, 0, time.UTC)))
	assert.Equal(t, "05/03/2026", d.String())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), v)

	require.NoError(t, d.Scan(nil))
	v, err = d.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestMaxMoney(t *testing.T) {
	assert.True(t, MaxMoney(MustMoney("11100"), MustMoney("9990")).Equal(MustMoney("11100")))
	assert.True(t, MaxMoney(MustMoney("9990"), MustMoney("11100")).Equal(MustMoney("11100")))
}
