package web

import (
	"errors"
	"net/http"

	"github.com/agrilink/agrilink/internal/classify"
)

// handleClassify runs the classification pipeline and returns the raw
// classification JSON on success.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classify.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:          err.Error(),
			RequiredFields: []string{"analysisType", "image|description"},
		})
		return
	}

	result, err := s.service.Classify(r.Context(), req)
	if err != nil {
		s.writeClassifyError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeClassifyError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		inputErr      *classify.InputError
		providerErr   *classify.ProviderError
		parseErr      *classify.ParseError
		incompleteErr *classify.ValidationError
	)

	switch {
	case errors.As(err, &inputErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:          inputErr.Reason,
			RequiredFields: inputErr.Required,
		})
		return
	case errors.As(err, &providerErr):
		details := providerErr.Body
		if details == "" && providerErr.Err != nil {
			details = providerErr.Err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Provider API error",
			Status:  providerErr.Status,
			Details: details,
		})
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:       "Failed to parse AI response",
			ParseError:  parseErr.Error(),
			RawResponse: parseErr.Raw,
		})
	case errors.As(err, &incompleteErr):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:       "Failed to parse AI response",
			ParseError:  incompleteErr.Error(),
			RawResponse: incompleteErr.Raw,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Failed to process request",
			Details: err.Error(),
		})
	}
	s.logger.Error("classification failed", "path", r.URL.Path, "error", err)
}
