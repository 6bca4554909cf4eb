package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/pkg/database"
)

const adContextColumns = `id, target_ig_user_id, product_name, usp_text, sales_link, discount_code,
	required_keywords, banned_keywords, tone_notes, updated_by_admin_id, created_at, updated_at`

// adContextRepository implements AdContextRepository interface
type adContextRepository struct {
	db *database.Postgres
}

// NewAdContextRepository creates a new ad context repository
func NewAdContextRepository(db *database.Postgres) AdContextRepository {
	return &adContextRepository{db: db}
}

func scanAdContext(row rowScanner) (domain.AdContext, error) {
	var ac domain.AdContext
	err := row.Scan(
		&ac.ID,
		&ac.TargetIGUserID,
		&ac.ProductName,
		&ac.USPText,
		&ac.SalesLink,
		&ac.DiscountCode,
		pq.Array(&ac.RequiredKeywords),
		pq.Array(&ac.BannedKeywords),
		&ac.ToneNotes,
		&ac.UpdatedByAdminID,
		&ac.CreatedAt,
		&ac.UpdatedAt,
	)
	if ac.RequiredKeywords == nil {
		ac.RequiredKeywords = []string{}
	}
	if ac.BannedKeywords == nil {
		ac.BannedKeywords = []string{}
	}
	return ac, err
}

// Create inserts a new ad context
func (r *adContextRepository) Create(ctx context.Context, ac *domain.AdContext) error {
	query := `
		INSERT INTO ad_contexts (id, target_ig_user_id, product_name, usp_text, sales_link, discount_code,
			required_keywords, banned_keywords, tone_notes, updated_by_admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if ac.ID == "" {
		ac.ID = uuid.New().String()
	}

	now := time.Now()
	ac.CreatedAt = now
	ac.UpdatedAt = now

	_, err := r.db.DB.ExecContext(ctx, query,
		ac.ID,
		ac.TargetIGUserID,
		ac.ProductName,
		ac.USPText,
		ac.SalesLink,
		ac.DiscountCode,
		pq.Array(nonNil(ac.RequiredKeywords)),
		pq.Array(nonNil(ac.BannedKeywords)),
		ac.ToneNotes,
		ac.UpdatedByAdminID,
		ac.CreatedAt,
		ac.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create ad context: %w", err)
	}

	return nil
}

// Update overwrites an existing ad context
func (r *adContextRepository) Update(ctx context.Context, ac *domain.AdContext) error {
	query := `
		UPDATE ad_contexts
		SET target_ig_user_id = $2, product_name = $3, usp_text = $4, sales_link = $5, discount_code = $6,
			required_keywords = $7, banned_keywords = $8, tone_notes = $9, updated_by_admin_id = $10, updated_at = $11
		WHERE id = $1
		RETURNING created_at
	`

	ac.UpdatedAt = time.Now()

	err := r.db.DB.QueryRowContext(ctx, query,
		ac.ID,
		ac.TargetIGUserID,
		ac.ProductName,
		ac.USPText,
		ac.SalesLink,
		ac.DiscountCode,
		pq.Array(nonNil(ac.RequiredKeywords)),
		pq.Array(nonNil(ac.BannedKeywords)),
		ac.ToneNotes,
		ac.UpdatedByAdminID,
		ac.UpdatedAt,
	).Scan(&ac.CreatedAt)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("ad context not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to update ad context: %w", err)
	}

	return nil
}

// Delete removes an ad context
func (r *adContextRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM ad_contexts WHERE id = $1`

	result, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("ad context not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to delete ad context: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("ad context not found: %w", ErrNotFound)
	}

	return nil
}

// GetByID retrieves an ad context by id
func (r *adContextRepository) GetByID(ctx context.Context, id string) (*domain.AdContext, error) {
	query := `
		SELECT ` + adContextColumns + `
		FROM ad_contexts
		WHERE id = $1
	`

	ac, err := scanAdContext(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("ad context not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get ad context: %w", err)
	}

	return &ac, nil
}

// List retrieves ad contexts, newest first
func (r *adContextRepository) List(ctx context.Context, filter AdContextFilter) ([]domain.AdContext, error) {
	query := `
		SELECT ` + adContextColumns + `
		FROM ad_contexts
		WHERE ($1 = '' OR target_ig_user_id = $1)
		ORDER BY updated_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, filter.TargetIGUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ad contexts: %w", err)
	}
	defer rows.Close()

	contexts := []domain.AdContext{}
	for rows.Next() {
		ac, err := scanAdContext(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad context: %w", err)
		}
		contexts = append(contexts, ac)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ad contexts: %w", err)
	}

	return contexts, nil
}

// Latest retrieves the newest ad context of the account. A non-empty
// productName is matched first and the newest context of any product is
// the fallback.
func (r *adContextRepository) Latest(ctx context.Context, targetIGUserID, productName string) (*domain.AdContext, error) {
	query := `
		SELECT ` + adContextColumns + `
		FROM ad_contexts
		WHERE target_ig_user_id = $1
		ORDER BY (product_name = $2) DESC, updated_at DESC
		LIMIT 1
	`

	ac, err := scanAdContext(r.db.DB.QueryRowContext(ctx, query, targetIGUserID, productName))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("ad context not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest ad context: %w", err)
	}

	return &ac, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
