package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{`12.5`, 12.5},
		{`"42"`, 42},
		{`" 7 "`, 7},
		{`null`, 0},
		{`"abc"`, 0},
		{`"NaN"`, 0},
		{`"Inf"`, 0},
		{`"-Infinity"`, 0},
		{`"1e400"`, 0},
	}
	for _, tt := range tests {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(tt.in), &n), tt.in)
		assert.Equal(t, tt.want, float64(n), tt.in)
	}

	var n Number
	assert.Error(t, json.Unmarshal([]byte(`true`), &n))
}

func TestListingQuantityKg(t *testing.T) {
	assert.Equal(t, 2000.0, (&Listing{Quantity: 2, QuantityUnit: "ton"}).QuantityKg())
	assert.Equal(t, 2000.0, (&Listing{Quantity: 2, QuantityUnit: "TON"}).QuantityKg())
	assert.Equal(t, 15.0, (&Listing{Quantity: 15, QuantityUnit: "kg"}).QuantityKg())
}
