package classify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePriceFallback(t *testing.T) {
	v := NewValidator(DefaultPriceTable())

	tests := []struct {
		name      string
		candidate string
		wantPrice float64
		wantFlag  bool
	}{
		{"wheat zero", `{"cropType":"Wheat","wasteType":"straw","estimatedValue":0}`, 2200, true},
		{"unknown zero", `{"cropType":"Unknown","wasteType":"husk","estimatedValue":0}`, 1200, true},
		{"rice missing", `{"cropType":"Rice","wasteType":"straw"}`, 1850, true},
		{"sugarcane negative", `{"cropType":"Sugarcane","wasteType":"bagasse","estimatedValue":-5}`, 1500, true},
		{"case sensitive", `{"cropType":"wheat","wasteType":"straw"}`, 1200, true},
		{"model price kept", `{"cropType":"Rice","wasteType":"straw","estimatedValue":2500}`, 2500, false},
		{"numeric string price", `{"cropType":"Rice","wasteType":"straw","estimatedValue":"1999"}`, 1999, false},
		{"NaN price", `{"cropType":"Rice","wasteType":"straw","estimatedValue":"NaN"}`, 1850, true},
		{"Inf price", `{"cropType":"Wheat","wasteType":"straw","estimatedValue":"Inf"}`, 2200, true},
		{"negative Infinity price", `{"cropType":"Rice","wasteType":"straw","estimatedValue":"-Infinity"}`, 1850, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, applied, err := v.Validate(tt.candidate, tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPrice, float64(result.EstimatedValue))
			assert.Equal(t, tt.wantFlag, applied)
			assert.Positive(t, float64(result.EstimatedValue))
		})
	}
}

func TestValidateInjectedPrices(t *testing.T) {
	v := NewValidator(PriceTable{ByCrop: map[string]float64{"Maize": 900}, Default: 700})

	result, _, err := v.Validate(`{"cropType":"Maize","wasteType":"stalk"}`, "")
	require.NoError(t, err)
	assert.Equal(t, 900.0, float64(result.EstimatedValue))

	result, _, err = v.Validate(`{"cropType":"Wheat","wasteType":"straw"}`, "")
	require.NoError(t, err)
	assert.Equal(t, 700.0, float64(result.EstimatedValue))
}

func TestPriceTableWith(t *testing.T) {
	base := DefaultPriceTable()
	merged := base.With(map[string]float64{"Maize": 900, "Rice": 2000}, 0)

	assert.Equal(t, 2000.0, merged.Price("Rice"))
	assert.Equal(t, 900.0, merged.Price("Maize"))
	assert.Equal(t, 2200.0, merged.Price("Wheat"))
	assert.Equal(t, 1200.0, merged.Price("Cotton"))
	assert.Equal(t, 1850.0, base.Price("Rice"), "base table untouched")

	assert.Equal(t, 1000.0, base.With(nil, 1000).Price("Cotton"))
}

func TestValidateMissingFields(t *testing.T) {
	v := NewValidator(DefaultPriceTable())

	tests := []struct {
		name        string
		candidate   string
		wantMissing []string
	}{
		{"missing wasteType", `{"cropType":"Rice","estimatedValue":2000}`, []string{"wasteType"}},
		{"missing cropType", `{"wasteType":"straw"}`, []string{"cropType"}},
		{"blank both", `{"cropType":"  ","wasteType":""}`, []string{"cropType", "wasteType"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, applied, err := v.Validate(tt.candidate, "raw")
			assert.Nil(t, result)
			assert.False(t, applied)
			require.ErrorIs(t, err, ErrIncomplete)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantMissing, verr.Missing)
			assert.Equal(t, "raw", verr.Raw)
		})
	}
}

func TestValidateParseError(t *testing.T) {
	v := NewValidator(DefaultPriceTable())

	for _, candidate := range []string{"", "{not json}", `{"cropType":`} {
		result, _, err := v.Validate(candidate, "I cannot classify this.")
		assert.Nil(t, result)
		require.ErrorIs(t, err, ErrParse)

		var perr *ParseError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "I cannot classify this.", perr.Raw)
	}
}

func TestValidateClampsConfidence(t *testing.T) {
	v := NewValidator(DefaultPriceTable())

	result, _, err := v.Validate(`{"cropType":"Rice","wasteType":"straw","confidence":1.7}`, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, float64(result.Confidence))

	result, _, err = v.Validate(`{"cropType":"Rice","wasteType":"straw","confidence":-0.2}`, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, float64(result.Confidence))
}
