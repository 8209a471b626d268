package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxCents(t *testing.T) {
	tests := []struct {
		name     string
		subtotal int64
		rate     float64
		want     int64
	}{
		{"zero rate", 1050, 0, 0},
		{"no rounding needed", 1000, 5, 50},
		{"rounds down", 1010, 5, 50}, // 50.5 -> even 50
		{"rounds up", 1030, 5, 52},   // 51.5 -> even 52
		{"whole result", 2000, 10, 200},
		{"fractional rate", 999, 7.5, 75}, // 74.925 -> 75
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaxCents(tt.subtotal, tt.rate))
		})
	}
}

// Ties go to the nearest even cent (banker's rounding): 1050 at 5% is
// exactly 52.5 and lands on 52, not 53. This boundary is deliberate and
// pinned here.
func TestTaxCentsHalfEvenBoundary(t *testing.T) {
	assert.Equal(t, int64(52), TaxCents(1050, 5))
	assert.Equal(t, int64(54), TaxCents(1070, 5)) // 53.5 -> even 54
	assert.Equal(t, int64(52), TaxCents(1030, 5)) // 51.5 -> even 52
}
