package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
)

func TestDecodeInput(t *testing.T) {
	in, err := DecodeInput([]byte(`{"pay_date":"20/10/2026","total_pay":"150000"}`))
	require.NoError(t, err)
	assert.Equal(t, "20/10/2026", in.PayDate.String())
	assert.Equal(t, "150000", in.Amount.String())
	assert.NoError(t, in.Validate())

	_, err = DecodeInput([]byte(`{"total_pay":`))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestInput_Validate(t *testing.T) {
	in, err := DecodeInput([]byte(`{"total_pay":"0"}`))
	require.NoError(t, err)

	err = in.Validate()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	fields := appErr.Details["fields"].(map[string]string)
	assert.Contains(t, fields, "pay_date")
	assert.Contains(t, fields, "total_pay")
}
