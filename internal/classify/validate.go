package classify

import (
	"encoding/json"
	"strings"

	"github.com/agrilink/agrilink/internal/domain"
)

// PriceTable maps a crop type to its default price in INR per ton. Lookups
// are exact; unknown crops get Default.
type PriceTable struct {
	ByCrop  map[string]float64
	Default float64
}

// DefaultPriceTable returns the built-in fallback prices.
func DefaultPriceTable() PriceTable {
	return PriceTable{
		ByCrop: map[string]float64{
			"Rice":      1850,
			"Wheat":     2200,
			"Sugarcane": 1500,
		},
		Default: 1200,
	}
}

// With returns a copy of t with crops overriding or adding entries. A
// positive def replaces Default.
func (t PriceTable) With(crops map[string]float64, def float64) PriceTable {
	out := PriceTable{ByCrop: make(map[string]float64, len(t.ByCrop)+len(crops)), Default: t.Default}
	for crop, price := range t.ByCrop {
		out.ByCrop[crop] = price
	}
	for crop, price := range crops {
		out.ByCrop[crop] = price
	}
	if def > 0 {
		out.Default = def
	}
	return out
}

func (t PriceTable) Price(cropType string) float64 {
	if p, ok := t.ByCrop[cropType]; ok && p > 0 {
		return p
	}
	return t.Default
}

// Validator parses a candidate JSON object, checks the mandatory fields and
// patches a missing price from its table.
type Validator struct {
	prices PriceTable
}

func NewValidator(prices PriceTable) *Validator {
	if prices.Default <= 0 {
		prices.Default = DefaultPriceTable().Default
	}
	return &Validator{prices: prices}
}

// Validate turns candidate into a Classification. raw is the full answer
// text and is attached to errors for diagnostics. The returned flag reports
// whether the default price was substituted.
func (v *Validator) Validate(candidate, raw string) (*domain.Classification, bool, error) {
	var result domain.Classification
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, false, &ParseError{Err: err, Raw: raw}
	}

	var missing []string
	if strings.TrimSpace(result.CropType) == "" {
		missing = append(missing, "cropType")
	}
	if strings.TrimSpace(result.WasteType) == "" {
		missing = append(missing, "wasteType")
	}
	if len(missing) > 0 {
		return nil, false, &ValidationError{Missing: missing, Raw: raw}
	}

	switch {
	case result.Confidence < 0:
		result.Confidence = 0
	case result.Confidence > 1:
		result.Confidence = 1
	}

	applied := false
	if result.EstimatedValue <= 0 {
		result.EstimatedValue = domain.Number(v.prices.Price(result.CropType))
		applied = true
	}
	return &result, applied, nil
}
