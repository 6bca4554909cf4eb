package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/pkg/database"
)

const draftColumns = `id, ig_comment_id, target_ig_user_id, intent, original_comment, ai_draft, status, strategy,
	prompt_template_id, published_reply_comment_id, published_at, error_message, created_at, updated_at`

// draftRepository implements DraftRepository interface
type draftRepository struct {
	db *database.Postgres
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *database.Postgres) DraftRepository {
	return &draftRepository{db: db}
}

func scanDraft(row rowScanner) (domain.ReplyDraft, error) {
	var (
		d              domain.ReplyDraft
		promptID       sql.NullString
		replyCommentID sql.NullString
		publishedAt    sql.NullTime
		errorMessage   sql.NullString
	)
	err := row.Scan(
		&d.ID,
		&d.IGCommentID,
		&d.TargetIGUserID,
		&d.Intent,
		&d.OriginalComment,
		&d.AIDraft,
		&d.Status,
		&d.Strategy,
		&promptID,
		&replyCommentID,
		&publishedAt,
		&errorMessage,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if promptID.Valid {
		d.PromptTemplateID = &promptID.String
	}
	if replyCommentID.Valid {
		d.PublishedReplyCommentID = &replyCommentID.String
	}
	if publishedAt.Valid {
		d.PublishedAt = &publishedAt.Time
	}
	if errorMessage.Valid {
		d.ErrorMessage = &errorMessage.String
	}
	return d, err
}

// Create inserts a new reply draft
func (r *draftRepository) Create(ctx context.Context, d *domain.ReplyDraft) error {
	query := `
		INSERT INTO reply_drafts (id, ig_comment_id, target_ig_user_id, intent, original_comment, ai_draft,
			status, strategy, prompt_template_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Strategy == "" {
		d.Strategy = domain.StrategyTemplate
	}

	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	var promptID sql.NullString
	if d.PromptTemplateID != nil {
		promptID = sql.NullString{String: *d.PromptTemplateID, Valid: true}
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		d.ID,
		d.IGCommentID,
		d.TargetIGUserID,
		d.Intent,
		d.OriginalComment,
		d.AIDraft,
		d.Status,
		d.Strategy,
		promptID,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		if isPQCode(err, pqForeignKeyViolation) {
			return fmt.Errorf("prompt template %s: %w", promptID.String, ErrInvalidReference)
		}
		return fmt.Errorf("failed to create reply draft: %w", err)
	}

	return nil
}

// GetByID retrieves a reply draft by id
func (r *draftRepository) GetByID(ctx context.Context, id string) (*domain.ReplyDraft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM reply_drafts
		WHERE id = $1
	`

	d, err := scanDraft(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("reply draft not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reply draft: %w", err)
	}

	return &d, nil
}

// MarkPublished records the reply comment created on Instagram
func (r *draftRepository) MarkPublished(ctx context.Context, id, replyCommentID string, at time.Time) error {
	query := `
		UPDATE reply_drafts
		SET status = 'published', published_reply_comment_id = $2, published_at = $3, error_message = NULL, updated_at = $3
		WHERE id = $1
	`

	return r.exec(ctx, "mark reply draft published", query, id, replyCommentID, at)
}

// MarkFailed records the last publish error without changing the status
func (r *draftRepository) MarkFailed(ctx context.Context, id, message string) error {
	query := `
		UPDATE reply_drafts
		SET error_message = $2, updated_at = $3
		WHERE id = $1
	`

	return r.exec(ctx, "mark reply draft failed", query, id, message, time.Now())
}

func (r *draftRepository) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("reply draft not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to %s: %w", op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("reply draft not found: %w", ErrNotFound)
	}

	return nil
}

// ListByTarget retrieves the newest drafts of an account
func (r *draftRepository) ListByTarget(ctx context.Context, targetIGUserID string, limit int) ([]domain.ReplyDraft, error) {
	query := `
		SELECT ` + draftColumns + `
		FROM reply_drafts
		WHERE target_ig_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.DB.QueryContext(ctx, query, targetIGUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reply drafts: %w", err)
	}
	defer rows.Close()

	drafts := []domain.ReplyDraft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reply draft: %w", err)
		}
		drafts = append(drafts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reply drafts: %w", err)
	}

	return drafts, nil
}
