package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/pkg/config"
)

func TestLotCodesFollowConfig(t *testing.T) {
	codes := lotCodes(config.SequenceConfig{LotPrefix: "LOT", BatchPrefix: "B", PadWidth: 4})
	at := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "LOT202610150001", codes.Barcode.Format(at, 1))
	assert.Equal(t, "B2610150012", codes.Batch.Format(at, 12))
}

func TestCommandParsesActor(t *testing.T) {
	cmd, err := newCommand("invoice", []string{"show", "--actor", "u-1", "--id", "x"})
	require.NoError(t, err)
	invoiceID := cmd.fs.String("id", "", "")
	require.NoError(t, cmd.parse())

	assert.Equal(t, "show", cmd.action)
	assert.Equal(t, "u-1", *cmd.actor)
	assert.Equal(t, "x", *invoiceID)

	_, err = newCommand("invoice", nil)
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	_, err := parseID("id", "")
	assert.Error(t, err)
	_, err = parseID("id", "not-a-uuid")
	assert.Error(t, err)
}
