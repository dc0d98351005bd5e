// Package numerator provides domain contracts for day-scoped code generation.
package numerator

import (
	"fmt"
	"time"
)

// Config describes one code family.
type Config struct {
	// Prefix identifies the entity the code belongs to (e.g. "BRC" for lot barcodes)
	Prefix string

	// ScopeLayout is the Go time layout rendered between prefix and counter.
	// The counter restarts for every distinct rendered scope.
	ScopeLayout string

	// PadWidth is the minimum counter width (default 3, seed "001")
	PadWidth int
}

// DefaultConfig returns a day-scoped config for prefix.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		ScopeLayout: "20060102",
		PadWidth:    3,
	}
}

// Key returns the counter key for the scope containing t, e.g. "BRC20261015".
func (c Config) Key(t time.Time) string {
	if c.ScopeLayout == "" {
		return c.Prefix
	}
	return c.Prefix + t.Format(c.ScopeLayout)
}

// Format renders the code for counter value num.
func (c Config) Format(t time.Time, num int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 3
	}
	return fmt.Sprintf("%s%0*d", c.Key(t), width, num)
}
