package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/regcheck/internal/domain"
)

const defaultHistoryListLimit = 50

// SearchHistoryRepository handles database operations for the append-only
// search history log.
type SearchHistoryRepository struct {
	db *sqlx.DB
}

// NewSearchHistoryRepository creates a new search history repository.
func NewSearchHistoryRepository(db *sqlx.DB) *SearchHistoryRepository {
	return &SearchHistoryRepository{db: db}
}

// Insert appends one lookup attempt to the history log. Entries are never
// updated or deleted afterwards.
func (r *SearchHistoryRepository) Insert(ctx context.Context, entry *domain.SearchHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.SearchedAt.IsZero() {
		entry.SearchedAt = time.Now()
	}

	query := `
		INSERT INTO search_history (id, registration, searched_at, ip_address, user_agent,
		                        success, error_message, source, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.Registration,
		entry.SearchedAt,
		entry.IPAddress,
		entry.UserAgent,
		entry.Success,
		entry.ErrorMessage,
		entry.Source,
		entry.DurationMs,
	)

	if err != nil {
		return fmt.Errorf("failed to insert search history entry: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recent lookup attempts, newest first.
func (r *SearchHistoryRepository) ListRecent(
	ctx context.Context,
	limit int,
) ([]*domain.SearchHistoryEntry, error) {
	var entries []*domain.SearchHistoryEntry

	if limit <= 0 {
		limit = defaultHistoryListLimit
	}

	query := `
		SELECT id, registration, searched_at, ip_address, user_agent, success,
		       error_message, source, duration_ms
		FROM search_history
		ORDER BY searched_at DESC
		LIMIT $1
	`

	err := r.db.SelectContext(ctx, &entries, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list search history: %w", err)
	}

	if entries == nil {
		entries = []*domain.SearchHistoryEntry{}
	}

	return entries, nil
}

// Count returns the total number of recorded lookup attempts.
func (r *SearchHistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM search_history`

	err := r.db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count search history: %w", err)
	}

	return count, nil
}
