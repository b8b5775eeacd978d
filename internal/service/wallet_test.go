package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrilink/agrilink/internal/domain"
)

func TestBuildWallet(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	listings := []*domain.Listing{
		{ID: 1, CropType: "Rice", Quantity: 3, QuantityUnit: "ton", Status: domain.StatusCompleted, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: 2, CropType: "", Quantity: 250, QuantityUnit: "kg", Status: domain.StatusPending, CreatedAt: now.Add(-90 * 24 * time.Hour)},
	}

	w := BuildWallet(listings, now)

	assert.InDelta(t, 3250, w.TotalCO2, 1e-9)
	assert.Equal(t, 3, w.TotalTokens)
	assert.Equal(t, "3.25 tons", w.Equivalent)
	assert.Equal(t, 130, w.EquivalentTrees)
	assert.Equal(t, "Equivalent to planting 130 trees", w.Impact)
	assert.Equal(t, 1, w.CarsOffRoad)
	assert.Equal(t, 0, w.HouseholdEnergy)
	assert.Equal(t, 3900, w.WaterSaved)
	assert.Equal(t, "Green Starter", w.Level)
	assert.Equal(t, "Green Warrior", w.NextLevel)
	assert.Equal(t, 2, w.NextLevelTokens)
	assert.Equal(t, 15, w.Progress)
	assert.InDelta(t, 3000, w.LastMonthCO2, 1e-9)
	assert.Equal(t, 3, w.LastMonthTokens)

	require.Len(t, w.Transactions, 2)
	assert.Equal(t, "Sold Rice", w.Transactions[0].Action)
	assert.Equal(t, "waste_sale", w.Transactions[0].Type)
	assert.InDelta(t, 3.0, w.Transactions[0].Tokens, 1e-9)
	assert.Equal(t, "Sold Waste", w.Transactions[1].Action)
	assert.InDelta(t, 0.25, w.Transactions[1].Tokens, 1e-9)
}

func TestWalletLevels(t *testing.T) {
	tests := []struct {
		tokens    int
		level     string
		next      string
		remaining int
	}{
		{0, "Green Starter", "Green Warrior", 5},
		{5, "Green Starter", "Green Warrior", 0},
		{6, "Green Warrior", "Eco Champion", 4},
		{11, "Eco Champion", "Earth Guardian", 9},
		{25, "Eco Champion", "Earth Guardian", 0},
	}
	for _, tt := range tests {
		level, next, remaining := walletLevel(tt.tokens)
		assert.Equal(t, tt.level, level, tt.tokens)
		assert.Equal(t, tt.next, next, tt.tokens)
		assert.Equal(t, tt.remaining, remaining, tt.tokens)
	}
}

func TestBuildWalletProgressCaps(t *testing.T) {
	w := BuildWallet([]*domain.Listing{{Quantity: 40, QuantityUnit: "ton"}}, time.Now())
	assert.Equal(t, 40, w.TotalTokens)
	assert.Equal(t, 100, w.Progress)
}

func TestBuildWalletEmpty(t *testing.T) {
	w := BuildWallet(nil, time.Now())
	assert.Zero(t, w.TotalCO2)
	assert.Equal(t, "0.00 tons", w.Equivalent)
	assert.NotNil(t, w.Transactions)
}

func TestListingServiceWallet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateListing(ctx, NewListing{Classification: riceStraw(), UserID: "user-1"})
	require.NoError(t, err)

	w, err := svc.Wallet(ctx, "user-1")
	require.NoError(t, err)
	assert.InDelta(t, 3000, w.TotalCO2, 1e-9)
	assert.Equal(t, 3000.0, w.LastMonthCO2)
}
