package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agrilink/agrilink/internal/db"
	"github.com/agrilink/agrilink/internal/domain"
)

// ErrNotFound is returned by mutations that address a missing listing.
var ErrNotFound = errors.New("listing not found")

const listingColumns = `id, user_id, user_name, crop_type, waste_type, waste_description,
	quantity, quantity_unit, moisture_level, age_of_waste, location, intended_use,
	additional_notes, status, estimated_value, classification, photo_key, photo_mime,
	created_at, updated_at`

type ListingStore struct {
	db      *sql.DB
	dialect db.Dialect
	now     func() time.Time
}

func NewListingStore(d *sql.DB, dialect db.Dialect) *ListingStore {
	return &ListingStore{
		db:      d,
		dialect: dialect,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// rebind rewrites ? placeholders into $1, $2, ... for Postgres.
func (s *ListingStore) rebind(query string) string {
	if s.dialect != db.Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Create inserts l and returns the stored row. Status defaults to pending.
func (s *ListingStore) Create(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	classification, err := json.Marshal(l.Classification)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal classification: %w", err)
	}
	status := l.Status
	if status == "" {
		status = domain.StatusPending
	}
	now := s.now()

	var id int64
	err = s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO listings (user_id, user_name, crop_type, waste_type, waste_description,
			quantity, quantity_unit, moisture_level, age_of_waste, location, intended_use,
			additional_notes, status, estimated_value, classification, photo_key, photo_mime,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`), l.UserID, l.UserName, l.CropType, l.WasteType, l.WasteDescription,
		l.Quantity, l.QuantityUnit, l.MoistureLevel, l.AgeOfWaste, l.Location, l.IntendedUse,
		l.AdditionalNotes, string(status), l.EstimatedValue, string(classification), l.PhotoKey, l.PhotoMIME,
		now, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID returns nil, nil when no listing has the id.
func (s *ListingStore) GetByID(ctx context.Context, id int64) (*domain.Listing, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+listingColumns+` FROM listings WHERE id = ?
	`), id)

	l, err := scanListing(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return l, nil
}

// ListByUser returns the user's listings, newest first.
func (s *ListingStore) ListByUser(ctx context.Context, userID string) ([]*domain.Listing, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+listingColumns+` FROM listings
		WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []*domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

func (s *ListingStore) UpdateStatus(ctx context.Context, id int64, status domain.ListingStatus) (*domain.Listing, error) {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE listings SET status = ?, updated_at = ? WHERE id = ?
	`), string(status), s.now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing status: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *ListingStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM listings WHERE id = ?
	`), id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return expectOneRow(result)
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(sc scanner) (*domain.Listing, error) {
	l := &domain.Listing{}
	var status, classification string
	err := sc.Scan(&l.ID, &l.UserID, &l.UserName, &l.CropType, &l.WasteType, &l.WasteDescription,
		&l.Quantity, &l.QuantityUnit, &l.MoistureLevel, &l.AgeOfWaste, &l.Location, &l.IntendedUse,
		&l.AdditionalNotes, &status, &l.EstimatedValue, &classification, &l.PhotoKey, &l.PhotoMIME,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}

	l.Status = domain.ListingStatus(status)
	l.HasPhoto = l.PhotoKey != ""
	if classification != "" {
		if err := json.Unmarshal([]byte(classification), &l.Classification); err != nil {
			return nil, fmt.Errorf("failed to decode classification: %w", err)
		}
	}
	return l, nil
}
