package web

import (
	"net/http"
	"strings"

	"github.com/agrilink/agrilink/internal/domain"
	"github.com/agrilink/agrilink/internal/service"
)

func (s *Server) handleListUserListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.service.ListByUser(r.Context(), r.PathValue("userID"))
	if err != nil {
		s.writeListingError(w, "list listings", err)
		return
	}
	if listings == nil {
		listings = []*domain.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

// handlePortfolio accepts ?search=, ?status=all|pending|completed,
// ?sort=time|item|price|weight and ?order=asc|desc.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	q := service.DefaultPortfolioQuery()
	params := r.URL.Query()
	q.Search = params.Get("search")
	if v := params.Get("status"); v != "" {
		q.Status = strings.ToLower(v)
	}
	if v := params.Get("sort"); v != "" {
		q.SortBy = v
	}
	switch strings.ToLower(params.Get("order")) {
	case "asc":
		q.Desc = false
	case "desc":
		q.Desc = true
	}

	portfolio, err := s.service.Portfolio(r.Context(), r.PathValue("userID"), q)
	if err != nil {
		s.writeListingError(w, "build portfolio", err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.service.Wallet(r.Context(), r.PathValue("userID"))
	if err != nil {
		s.writeListingError(w, "build wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}
