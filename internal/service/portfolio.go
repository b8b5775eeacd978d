package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/agrilink/agrilink/internal/domain"
)

// Sale is one listing as shown in the seller's portfolio. Weight is the raw
// listing quantity in its own unit.
type Sale struct {
	ID               int64                `json:"id"`
	Item             string               `json:"item"`
	WasteDescription string               `json:"wasteDescription"`
	Price            float64              `json:"price"`
	Weight           float64              `json:"weight"`
	QuantityUnit     string               `json:"quantityUnit"`
	Total            float64              `json:"total"`
	Status           domain.ListingStatus `json:"status"`
	Location         string               `json:"location"`
	HasPhoto         bool                 `json:"hasPhoto"`
	Time             time.Time            `json:"time"`
}

type PortfolioStats struct {
	TotalSales   float64 `json:"totalSales"`
	TotalWeight  float64 `json:"totalWeight"`
	AveragePrice float64 `json:"averagePrice"`
	Transactions int     `json:"transactions"`
}

type Portfolio struct {
	Stats PortfolioStats `json:"stats"`
	Sales []Sale         `json:"sales"`
}

// PortfolioQuery narrows and orders the sales list. Stats always cover every
// completed sale regardless of the query.
type PortfolioQuery struct {
	Search string
	Status string // all, pending or completed
	SortBy string // time, item, price or weight
	Desc   bool
}

// DefaultPortfolioQuery lists everything newest first.
func DefaultPortfolioQuery() PortfolioQuery {
	return PortfolioQuery{Status: "all", SortBy: "time", Desc: true}
}

func (s *ListingService) Portfolio(ctx context.Context, userID string, q PortfolioQuery) (*Portfolio, error) {
	listings, err := s.listings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return BuildPortfolio(listings, q), nil
}

// BuildPortfolio computes the seller statistics and the filtered, sorted sales list.
func BuildPortfolio(listings []*domain.Listing, q PortfolioQuery) *Portfolio {
	sales := make([]Sale, 0, len(listings))
	for _, l := range listings {
		sales = append(sales, toSale(l))
	}

	var stats PortfolioStats
	for _, sale := range sales {
		if sale.Status != domain.StatusCompleted {
			continue
		}
		stats.TotalSales += sale.Total
		stats.TotalWeight += sale.Weight
		stats.Transactions++
	}
	if stats.TotalWeight > 0 {
		stats.AveragePrice = stats.TotalSales / stats.TotalWeight
	}

	return &Portfolio{Stats: stats, Sales: filterSales(sales, q)}
}

func toSale(l *domain.Listing) Sale {
	item := l.CropType
	if item == "" {
		item = "Agricultural Waste"
	}
	unit := l.QuantityUnit
	if unit == "" {
		unit = "kg"
	}
	status := l.Status
	if status == "" {
		status = domain.StatusPending
	}
	price := float64(l.Classification.EstimatedValue)
	if price <= 0 {
		price = l.EstimatedValue
	}
	return Sale{
		ID:               l.ID,
		Item:             item,
		WasteDescription: l.WasteDescription,
		Price:            price,
		Weight:           l.Quantity,
		QuantityUnit:     unit,
		Total:            price * l.Quantity,
		Status:           status,
		Location:         l.Location,
		HasPhoto:         l.HasPhoto,
		Time:             l.CreatedAt,
	}
}

func filterSales(sales []Sale, q PortfolioQuery) []Sale {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Sale, 0, len(sales))
	for _, sale := range sales {
		if search != "" &&
			!strings.Contains(strings.ToLower(sale.Item), search) &&
			!strings.Contains(strings.ToLower(sale.WasteDescription), search) {
			continue
		}
		if q.Status != "" && q.Status != "all" && string(sale.Status) != q.Status {
			continue
		}
		out = append(out, sale)
	}

	less := saleOrder(q.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if q.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func saleOrder(key string) func(a, b Sale) bool {
	switch key {
	case "item":
		return func(a, b Sale) bool { return a.Item < b.Item }
	case "price":
		return func(a, b Sale) bool { return a.Price < b.Price }
	case "weight":
		return func(a, b Sale) bool { return a.Weight < b.Weight }
	default:
		return func(a, b Sale) bool { return a.Time.Before(b.Time) }
	}
}
