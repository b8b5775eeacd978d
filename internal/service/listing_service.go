package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/agrilink/agrilink/internal/classify"
	"github.com/agrilink/agrilink/internal/domain"
	"github.com/agrilink/agrilink/internal/photostore"
	"github.com/agrilink/agrilink/internal/store"
)

// ErrNotFound is returned when a listing, or the photo it points at, does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a listing request before anything is stored.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// listingRepository is the subset of store.ListingStore that ListingService requires.
type listingRepository interface {
	Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error)
	GetByID(ctx context.Context, id int64) (*domain.Listing, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Listing, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ListingStatus) (*domain.Listing, error)
	Delete(ctx context.Context, id int64) error
}

// classifier is the subset of classify.Classifier that ListingService requires.
type classifier interface {
	Classify(ctx context.Context, req classify.Request) (*domain.Classification, error)
}

// ListingForm holds the farmer's edits on top of a classification.
type ListingForm struct {
	CropType         string        `json:"cropType"`
	WasteDescription string        `json:"wasteDescription"`
	Quantity         domain.Number `json:"quantity"`
	QuantityUnit     string        `json:"quantityUnit"`
	MoistureLevel    string        `json:"moistureLevel"`
	AgeOfWaste       string        `json:"ageOfWaste"`
	Location         string        `json:"location"`
	IntendedUse      string        `json:"intendedUse"`
	AdditionalNotes  string        `json:"additionalNotes"`
}

// NewListing is the payload accepted by CreateListing.
type NewListing struct {
	Classification *domain.Classification `json:"classificationResult"`
	Form           ListingForm            `json:"formData"`
	ImageBase64    string                 `json:"imageBase64"`
	UserID         string                 `json:"userId"`
	UserName       string                 `json:"userName"`
}

type ListingService struct {
	listings   listingRepository
	classifier classifier
	photos     photostore.PhotoStore
	prices     classify.PriceTable
	logger     *slog.Logger
	now        func() time.Time
}

func NewListingService(
	listings listingRepository,
	classifier classifier,
	photos photostore.PhotoStore,
	prices classify.PriceTable,
	logger *slog.Logger,
) *ListingService {
	return &ListingService{
		listings:   listings,
		classifier: classifier,
		photos:     photos,
		prices:     prices,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ListingService) Classify(ctx context.Context, req classify.Request) (*domain.Classification, error) {
	return s.classifier.Classify(ctx, req)
}

// CreateListing merges the form over the classification, stores the optional
// photo and persists the listing. The photo is removed again if the insert fails.
func (s *ListingService) CreateListing(ctx context.Context, req NewListing) (*domain.Listing, error) {
	listing, err := s.buildListing(req)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.ImageBase64) != "" {
		img, err := classify.DecodeImage(req.ImageBase64)
		if err != nil {
			return nil, &ValidationError{Field: "imageBase64", Reason: err.Error()}
		}
		key, err := s.photos.Save(ctx, "listing", img.MIME, bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to save photo: %w", err)
		}
		s.logger.Debug("photo saved", "user_id", listing.UserID, "storage_key", key, "bytes", len(img.Data))
		listing.PhotoKey = key
		listing.PhotoMIME = img.MIME
	}

	created, err := s.listings.Create(ctx, listing)
	if err != nil {
		if listing.PhotoKey != "" {
			if derr := s.photos.Delete(ctx, listing.PhotoKey); derr != nil {
				s.logger.Error("failed to roll back photo after insert error", "storage_key", listing.PhotoKey, "error", derr)
			}
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info("listing created", "listing_id", created.ID, "user_id", created.UserID,
		"crop_type", created.CropType, "has_photo", created.HasPhoto)
	return created, nil
}

func (s *ListingService) buildListing(req NewListing) (*domain.Listing, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Reason: "is required"}
	}

	var c domain.Classification
	if req.Classification != nil {
		c = *req.Classification
	}
	f := req.Form

	unit := strings.ToLower(strings.TrimSpace(firstNonEmpty(f.QuantityUnit, c.QuantityUnit)))
	switch unit {
	case "":
		unit = "kg"
	case "kg", "ton":
	default:
		return nil, &ValidationError{Field: "quantityUnit", Reason: "must be kg or ton"}
	}

	quantity := float64(f.Quantity)
	if quantity == 0 {
		quantity = float64(c.Quantity)
	}
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return nil, &ValidationError{Field: "quantity", Reason: "must be a finite number"}
	}
	if quantity < 0 {
		return nil, &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}

	crop := firstNonEmpty(f.CropType, c.CropType)
	if crop == "" {
		return nil, &ValidationError{Field: "cropType", Reason: "is required"}
	}

	value := float64(c.EstimatedValue)
	if value <= 0 {
		value = s.prices.Price(crop)
	}

	userName := strings.TrimSpace(req.UserName)
	if userName == "" {
		userName = "Anonymous"
	}

	return &domain.Listing{
		UserID:           userID,
		UserName:         userName,
		CropType:         crop,
		WasteType:        strings.TrimSpace(c.WasteType),
		WasteDescription: firstNonEmpty(f.WasteDescription, c.WasteDescription),
		Quantity:         quantity,
		QuantityUnit:     unit,
		MoistureLevel:    firstNonEmpty(f.MoistureLevel, c.MoistureLevel),
		AgeOfWaste:       firstNonEmpty(f.AgeOfWaste, c.AgeOfWaste),
		Location:         strings.TrimSpace(f.Location),
		IntendedUse:      strings.TrimSpace(f.IntendedUse),
		AdditionalNotes:  strings.TrimSpace(f.AdditionalNotes),
		Status:           domain.StatusPending,
		EstimatedValue:   value,
		Classification:   c,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (s *ListingService) ListByUser(ctx context.Context, userID string) ([]*domain.Listing, error) {
	return s.listings.ListByUser(ctx, userID)
}

func (s *ListingService) GetListing(ctx context.Context, id int64) (*domain.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, ErrNotFound
	}
	return listing, nil
}

func (s *ListingService) UpdateStatus(ctx context.Context, id int64, status domain.ListingStatus) (*domain.Listing, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Reason: "must be pending or completed"}
	}
	listing, err := s.listings.UpdateStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("listing status updated", "listing_id", id, "status", status)
	return listing, nil
}

// DeleteListing removes the listing. A photo that cannot be removed is only logged.
func (s *ListingService) DeleteListing(ctx context.Context, id int64) error {
	listing, err := s.GetListing(ctx, id)
	if err != nil {
		return err
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	if listing.PhotoKey != "" {
		if err := s.photos.Delete(ctx, listing.PhotoKey); err != nil {
			s.logger.Error("failed to delete photo", "storage_key", listing.PhotoKey, "error", err)
		}
	}
	return nil
}

// Photo opens the listing's photo. The caller must close the reader.
func (s *ListingService) Photo(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	listing, err := s.GetListing(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if listing.PhotoKey == "" {
		return nil, "", ErrNotFound
	}

	rc, mimeType, err := s.photos.Get(ctx, listing.PhotoKey)
	if errors.Is(err, photostore.ErrNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open photo: %w", err)
	}
	if listing.PhotoMIME != "" {
		mimeType = listing.PhotoMIME
	}
	return rc, mimeType, nil
}
