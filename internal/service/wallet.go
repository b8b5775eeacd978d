package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/agrilink/agrilink/internal/domain"
)

// Carbon accounting constants, in kg of CO2.
const (
	kgPerToken       = 1000
	kgPerTree        = 25
	kgPerCar         = 4600
	kgPerHousehold   = 8700
	waterLitresPerKg = 1.2
	recentWindow     = 30 * 24 * time.Hour
)

type CarbonTransaction struct {
	ID     int64                `json:"id"`
	Type   string               `json:"type"`
	Action string               `json:"action"`
	CO2    float64              `json:"co2"`
	Tokens float64              `json:"tokens"`
	Date   time.Time            `json:"date"`
	Status domain.ListingStatus `json:"status"`
}

// Wallet is the carbon credit summary for one user. Every listing counts,
// whatever its status.
type Wallet struct {
	TotalCO2        float64             `json:"totalCO2"`
	TotalTokens     int                 `json:"totalTokens"`
	Equivalent      string              `json:"equivalent"`
	Impact          string              `json:"impact"`
	Level           string              `json:"level"`
	NextLevel       string              `json:"nextLevel"`
	NextLevelTokens int                 `json:"nextLevelTokens"`
	Progress        int                 `json:"progress"`
	LastMonthCO2    float64             `json:"lastMonthCO2"`
	LastMonthTokens int                 `json:"lastMonthTokens"`
	EquivalentTrees int                 `json:"equivalentTrees"`
	CarsOffRoad     int                 `json:"carsOffRoad"`
	HouseholdEnergy int                 `json:"householdEnergy"`
	WaterSaved      int                 `json:"waterSaved"`
	Transactions    []CarbonTransaction `json:"transactions"`
}

func (s *ListingService) Wallet(ctx context.Context, userID string) (*Wallet, error) {
	listings, err := s.listings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildWallet(listings, s.now()), nil
}

// BuildWallet derives the carbon wallet from the user's listings. One kg of
// diverted waste counts as one kg of CO2 saved.
func BuildWallet(listings []*domain.Listing, now time.Time) *Wallet {
	w := &Wallet{Transactions: make([]CarbonTransaction, 0, len(listings))}
	since := now.Add(-recentWindow)

	for _, l := range listings {
		co2 := l.QuantityKg()
		w.TotalCO2 += co2
		if !l.CreatedAt.Before(since) {
			w.LastMonthCO2 += co2
		}

		action := "Sold Waste"
		if l.CropType != "" {
			action = "Sold " + l.CropType
		}
		w.Transactions = append(w.Transactions, CarbonTransaction{
			ID:     l.ID,
			Type:   "waste_sale",
			Action: action,
			CO2:    co2,
			Tokens: math.Round(co2/kgPerToken*100) / 100,
			Date:   l.CreatedAt,
			Status: l.Status,
		})
	}

	w.TotalTokens = round(w.TotalCO2 / kgPerToken)
	w.LastMonthTokens = round(w.LastMonthCO2 / kgPerToken)
	w.EquivalentTrees = round(w.TotalCO2 / kgPerTree)
	w.CarsOffRoad = round(w.TotalCO2 / kgPerCar)
	w.HouseholdEnergy = round(w.TotalCO2 / kgPerHousehold)
	w.WaterSaved = round(w.TotalCO2 * waterLitresPerKg)
	w.Equivalent = fmt.Sprintf("%.2f tons", w.TotalCO2/kgPerToken)
	w.Impact = fmt.Sprintf("Equivalent to planting %d trees", w.EquivalentTrees)
	w.Progress = min(100, round(float64(w.TotalTokens)/20*100))
	w.Level, w.NextLevel, w.NextLevelTokens = walletLevel(w.TotalTokens)
	return w
}

// walletLevel returns the current level, the next one and the tokens still
// needed to reach it.
func walletLevel(tokens int) (level, next string, remaining int) {
	switch {
	case tokens > 10:
		return "Eco Champion", "Earth Guardian", max(0, 20-tokens)
	case tokens > 5:
		return "Green Warrior", "Eco Champion", 10 - tokens
	default:
		return "Green Starter", "Green Warrior", 5 - tokens
	}
}

func round(f float64) int {
	return int(math.Round(f))
}
