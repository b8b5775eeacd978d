package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Classification is the structured answer produced by the classification
// pipeline. Field names follow the JSON schema the provider is asked to fill.
type Classification struct {
	CropType          string            `json:"cropType"`
	WasteType         string            `json:"wasteType"`
	WasteDescription  string            `json:"wasteDescription"`
	Quantity          Number            `json:"quantity"`
	QuantityUnit      string            `json:"quantityUnit"`
	MoistureLevel     string            `json:"moistureLevel"`
	AgeOfWaste        string            `json:"ageOfWaste"`
	QualityAssessment QualityAssessment `json:"qualityAssessment"`
	SuggestedUses     []string          `json:"suggestedUses"`
	EstimatedValue    Number            `json:"estimatedValue"`
	Confidence        Number            `json:"confidence"`
	Notes             string            `json:"notes"`
}

type QualityAssessment struct {
	Condition     string `json:"condition"`
	Contamination string `json:"contamination"`
}

// Number decodes from a JSON number, a numeric string, or null. Strings that
// do not parse as a finite number decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*n = 0
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number(f)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

type ListingStatus string

const (
	StatusPending   ListingStatus = "pending"
	StatusCompleted ListingStatus = "completed"
)

func (s ListingStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Listing is a persisted waste offer: the provider's classification merged
// with the farmer's edits.
type Listing struct {
	ID               int64          `json:"id"`
	UserID           string         `json:"userId"`
	UserName         string         `json:"userName"`
	CropType         string         `json:"cropType"`
	WasteType        string         `json:"wasteType"`
	WasteDescription string         `json:"wasteDescription"`
	Quantity         float64        `json:"quantity"`
	QuantityUnit     string         `json:"quantityUnit"`
	MoistureLevel    string         `json:"moistureLevel"`
	AgeOfWaste       string         `json:"ageOfWaste"`
	Location         string         `json:"location"`
	IntendedUse      string         `json:"intendedUse"`
	AdditionalNotes  string         `json:"additionalNotes"`
	Status           ListingStatus  `json:"status"`
	EstimatedValue   float64        `json:"estimatedValue"`
	Classification   Classification `json:"classificationResult"`
	PhotoKey         string         `json:"-"`
	PhotoMIME        string         `json:"-"`
	HasPhoto         bool           `json:"hasPhoto"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// QuantityKg returns the listing quantity normalised to kilograms.
func (l *Listing) QuantityKg() float64 {
	if strings.EqualFold(l.QuantityUnit, "ton") {
		return l.Quantity * 1000
	}
	return l.Quantity
}
