package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/internal/core/id"
)

const headerJSON = `"no_invoice":"INV-9","invoice_date":"15/10/2026","receive_date":"16/10/2026",` +
	`"distributor_uid":"0192a1b2-0000-7000-8000-000000000001","total_invoice":"120000"`

func TestDecodeCommand_LinesAsArrayOrEmbeddedString(t *testing.T) {
	item := `{"drug_uid":"0192a1b2-0000-7000-8000-000000000002","expired_date":"01/01/2028","qty_pcs":10,"qty_box":2,"price_box":"5000","status":"new"}`

	tests := []struct {
		name  string
		lines string
	}{
		{"array", `[` + item + `]`},
		{"string", `"[` + escape(item) + `]"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand([]byte(`{` + headerJSON + `,"invoice_details":` + tt.lines + `}`))
			require.NoError(t, err)
			require.NoError(t, cmd.Validate())

			require.Len(t, cmd.Lines, 1)
			l := cmd.Lines[0]
			assert.True(t, l.IsNew())
			assert.Equal(t, int64(10), l.QtyPcs)
			assert.Equal(t, int64(2), l.QtyBox)
			assert.True(t, decimal.NewFromInt(5000).Equal(l.PriceBox))
			assert.Equal(t, "01/01/2028", l.ExpiredDate.String())
			assert.Equal(t, "INV-9", cmd.NoInvoice)
			assert.Equal(t, "15/10/2026", cmd.InvoiceDate.String())
		})
	}
}

func escape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func TestDecodeCommand_Malformed(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"invoice_details": 5}`))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = ParseLines(`not json`)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	ls, err := ParseLines(`""`)
	require.NoError(t, err)
	assert.Empty(t, ls)
}

func TestCommand_ValidateReportsLineFields(t *testing.T) {
	cmd := Command{
		NoInvoice:      "INV-1",
		DistributorUID: "not-a-uuid",
		Lines:          Lines{{DrugUID: id.New().String(), QtyPcs: 1}},
	}
	err := cmd.Validate()
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	fields, ok := appErr.Details["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "distributor_uid")
	assert.Contains(t, fields, "invoice_date")
	assert.Contains(t, fields, "invoice_details[0].qty_box")
	assert.Contains(t, fields, "invoice_details[0].expired_date")
}

func TestApplyHeader_KeepsStatusWhenBlank(t *testing.T) {
	inv := &Invoice{Status: StatusPaid}
	Command{NoInvoice: "  INV-2 ", DistributorUID: id.New().String()}.applyHeader(inv)
	assert.Equal(t, "INV-2", inv.NoInvoice)
	assert.Equal(t, StatusPaid, inv.Status)

	Command{Status: StatusUnpaid}.applyHeader(inv)
	assert.Equal(t, StatusUnpaid, inv.Status)
}

func TestLineInput_IsNew(t *testing.T) {
	assert.True(t, LineInput{Status: " NEW "}.IsNew())
	assert.False(t, LineInput{}.IsNew())
	assert.False(t, LineInput{Status: "old"}.IsNew())
}
