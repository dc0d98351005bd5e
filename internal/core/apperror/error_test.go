package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", NewValidation("bad"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("drug", "x"), CodeNotFound, http.StatusNotFound},
		{"stock still exist", NewStockStillExist("l1", 4), CodeStockStillExist, http.StatusUnprocessableEntity},
		{"stock not found", NewStockNotFound("l1"), CodeStockNotFound, http.StatusUnprocessableEntity},
		{"concurrent", NewConcurrentModification("stock", "s1"), CodeConcurrentModification, http.StatusConflict},
		{"duplicate", NewDuplicate("invoice", "no_invoice", "INV-1"), CodeDuplicate, http.StatusConflict},
		{"paid", NewInvoicePaid("i1"), CodeInvoicePaid, http.StatusConflict},
		{"internal", NewInternal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
			assert.True(t, HasCode(tt.err, tt.code))
		})
	}
}

func TestStockStillExistDetails(t *testing.T) {
	err := NewStockStillExist("line-7", 12)
	assert.Equal(t, "line-7", err.Details["invoice_line_id"])
	assert.Equal(t, int64(12), err.Details["qty_remaining"])
}

func TestWrappedErrorsKeepTheirCode(t *testing.T) {
	cause := errors.New("driver failure")
	inner := NewDuplicate("invoice", "no_invoice", "INV-1").WithCause(cause)
	wrapped := fmt.Errorf("line 2: %w", inner)

	got, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Same(t, inner, got)
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "caused by: driver failure")
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", NewNotFound("drug", "d"))))
}

func TestPlainErrors(t *testing.T) {
	err := errors.New("plain")
	assert.False(t, IsAppError(err))
	assert.False(t, IsConcurrentModification(err))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(err))
}

func TestWithDetailInitialisesMap(t *testing.T) {
	err := NewConflict("clash").WithDetail("constraint", "uq")
	assert.Equal(t, "uq", err.Details["constraint"])
}
