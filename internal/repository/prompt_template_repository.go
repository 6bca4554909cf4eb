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

const promptTemplateColumns = `id, name, product_name, prompt_body, status, updated_by_admin_id,
	archived_at, archived_by_admin_id, created_at, updated_at`

// promptTemplateRepository implements PromptTemplateRepository interface
type promptTemplateRepository struct {
	db *database.Postgres
}

// NewPromptTemplateRepository creates a new prompt template repository
func NewPromptTemplateRepository(db *database.Postgres) PromptTemplateRepository {
	return &promptTemplateRepository{db: db}
}

func scanPromptTemplate(row rowScanner) (domain.PromptTemplate, error) {
	var (
		t          domain.PromptTemplate
		archivedAt sql.NullTime
		archivedBy sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.ProductName,
		&t.PromptBody,
		&t.Status,
		&t.UpdatedByAdminID,
		&archivedAt,
		&archivedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if archivedAt.Valid {
		t.ArchivedAt = &archivedAt.Time
	}
	if archivedBy.Valid {
		t.ArchivedByAdminID = &archivedBy.String
	}
	return t, err
}

// Create inserts a new active prompt template
func (r *promptTemplateRepository) Create(ctx context.Context, t *domain.PromptTemplate) error {
	query := `
		INSERT INTO prompt_templates (id, name, product_name, prompt_body, status, updated_by_admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = domain.TemplateActive
	}

	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := r.db.DB.ExecContext(ctx, query,
		t.ID,
		t.Name,
		t.ProductName,
		t.PromptBody,
		t.Status,
		t.UpdatedByAdminID,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prompt template: %w", err)
	}

	return nil
}

// Update overwrites the editable fields of a template
func (r *promptTemplateRepository) Update(ctx context.Context, t *domain.PromptTemplate) error {
	query := `
		UPDATE prompt_templates
		SET name = $2, product_name = $3, prompt_body = $4, updated_by_admin_id = $5, updated_at = $6
		WHERE id = $1
		RETURNING status, archived_at, archived_by_admin_id, created_at
	`

	t.UpdatedAt = time.Now()

	var (
		archivedAt sql.NullTime
		archivedBy sql.NullString
	)
	err := r.db.DB.QueryRowContext(ctx, query,
		t.ID,
		t.Name,
		t.ProductName,
		t.PromptBody,
		t.UpdatedByAdminID,
		t.UpdatedAt,
	).Scan(&t.Status, &archivedAt, &archivedBy, &t.CreatedAt)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("prompt template not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to update prompt template: %w", err)
	}

	t.ArchivedAt = nil
	if archivedAt.Valid {
		t.ArchivedAt = &archivedAt.Time
	}
	t.ArchivedByAdminID = nil
	if archivedBy.Valid {
		t.ArchivedByAdminID = &archivedBy.String
	}

	return nil
}

// GetByID retrieves a prompt template by id
func (r *promptTemplateRepository) GetByID(ctx context.Context, id string) (*domain.PromptTemplate, error) {
	query := `
		SELECT ` + promptTemplateColumns + `
		FROM prompt_templates
		WHERE id = $1
	`

	t, err := scanPromptTemplate(r.db.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("prompt template not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get prompt template: %w", err)
	}

	return &t, nil
}

// List retrieves templates, most recently updated first
func (r *promptTemplateRepository) List(ctx context.Context, includeArchived bool) ([]domain.PromptTemplate, error) {
	query := `
		SELECT ` + promptTemplateColumns + `
		FROM prompt_templates
		WHERE $1 OR status = 'active'
		ORDER BY updated_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt templates: %w", err)
	}
	defer rows.Close()

	templates := []domain.PromptTemplate{}
	for rows.Next() {
		t, err := scanPromptTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt template: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompt templates: %w", err)
	}

	return templates, nil
}

// Archive marks a template archived. Archiving twice keeps the first audit fields.
func (r *promptTemplateRepository) Archive(ctx context.Context, id, adminID string, at time.Time) error {
	query := `
		UPDATE prompt_templates
		SET status = 'archived',
			archived_at = COALESCE(archived_at, $3),
			archived_by_admin_id = COALESCE(archived_by_admin_id, $2),
			updated_by_admin_id = $2,
			updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, adminID, at)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("prompt template not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to archive prompt template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("prompt template not found: %w", ErrNotFound)
	}

	return nil
}
