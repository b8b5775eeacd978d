package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/agrilink/agrilink/internal/domain"
	"github.com/agrilink/agrilink/internal/service"
)

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req service.NewListing
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := s.service.CreateListing(r.Context(), req)
	if err != nil {
		s.writeListingError(w, "create listing", err)
		return
	}
	writeJSON(w, http.StatusCreated, listing)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	listing, err := s.service.GetListing(r.Context(), id)
	if err != nil {
		s.writeListingError(w, "get listing", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	var body struct {
		Status domain.ListingStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := s.service.UpdateStatus(r.Context(), id, body.Status)
	if err != nil {
		s.writeListingError(w, "update listing status", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	if err := s.service.DeleteListing(r.Context(), id); err != nil {
		s.writeListingError(w, "delete listing", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid listing id")
		return
	}

	reader, mimeType, err := s.service.Photo(r.Context(), id)
	if err != nil {
		s.writeListingError(w, "get photo", err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "listing_id", id, "error", err)
	}
}

func (s *Server) writeListingError(w http.ResponseWriter, op string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "listing not found")
	default:
		writeError(w, http.StatusInternalServerError, "failed to "+op)
		s.logger.Error(op+" failed", "error", err)
	}
}
