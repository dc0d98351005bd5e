package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsVersion7(t *testing.T) {
	a := New()
	b := New()

	assert.Equal(t, byte(7), byte(a.Version()))
	assert.False(t, IsNil(a))
	assert.NotEqual(t, a, b)
}

func TestParse_TrimsInput(t *testing.T) {
	want := New()
	got, err := Parse("  " + want.String() + "\n")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Parse("not-a-uuid")
	assert.Error(t, err)
}
