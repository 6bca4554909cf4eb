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

const promptAssignmentColumns = `id, target_ig_user_id, prompt_template_id, granted_by_admin_id, status,
	revoked_at, revoked_by_admin_id, created_at, updated_at`

// promptAssignmentRepository implements PromptAssignmentRepository interface
type promptAssignmentRepository struct {
	db *database.Postgres
}

// NewPromptAssignmentRepository creates a new prompt assignment repository
func NewPromptAssignmentRepository(db *database.Postgres) PromptAssignmentRepository {
	return &promptAssignmentRepository{db: db}
}

func scanPromptAssignment(row rowScanner) (domain.PromptAssignment, error) {
	var (
		a         domain.PromptAssignment
		revokedAt sql.NullTime
		revokedBy sql.NullString
	)
	err := row.Scan(
		&a.ID,
		&a.TargetIGUserID,
		&a.PromptTemplateID,
		&a.GrantedByAdminID,
		&a.Status,
		&revokedAt,
		&revokedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if revokedAt.Valid {
		a.RevokedAt = &revokedAt.Time
	}
	if revokedBy.Valid {
		a.RevokedByAdminID = &revokedBy.String
	}
	return a, err
}

// Grant upserts an active assignment for every target in one transaction.
// Re-granting a revoked pair reactivates it and clears the revocation fields.
func (r *promptAssignmentRepository) Grant(ctx context.Context, targets []string, templateID, adminID string) (int, error) {
	query := `
		INSERT INTO prompt_assignments (id, target_ig_user_id, prompt_template_id, granted_by_admin_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'active', $5, $5)
		ON CONFLICT ON CONSTRAINT uq_prompt_assignments_target_template DO UPDATE SET
			status = 'active',
			granted_by_admin_id = EXCLUDED.granted_by_admin_id,
			revoked_at = NULL,
			revoked_by_admin_id = NULL,
			updated_at = EXCLUDED.updated_at
	`

	granted := 0
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		now := time.Now()
		for _, target := range targets {
			if _, err := tx.ExecContext(ctx, query, uuid.New().String(), target, templateID, adminID, now); err != nil {
				if isPQCode(err, pqForeignKeyViolation) || isPQCode(err, pqInvalidTextRepresentation) {
					return fmt.Errorf("prompt template %s: %w", templateID, ErrInvalidReference)
				}
				return fmt.Errorf("failed to grant prompt assignment: %w", err)
			}
			granted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return granted, nil
}

// Revoke marks an assignment revoked
func (r *promptAssignmentRepository) Revoke(ctx context.Context, id, adminID string, at time.Time) error {
	query := `
		UPDATE prompt_assignments
		SET status = 'revoked', revoked_at = $3, revoked_by_admin_id = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.DB.ExecContext(ctx, query, id, adminID, at)
	if err != nil {
		if isMissing(err) {
			return fmt.Errorf("prompt assignment not found: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to revoke prompt assignment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("prompt assignment not found: %w", ErrNotFound)
	}

	return nil
}

// List retrieves assignments matching filter, most recently updated first
func (r *promptAssignmentRepository) List(ctx context.Context, filter AssignmentFilter) ([]domain.PromptAssignment, error) {
	query := `
		SELECT ` + promptAssignmentColumns + `
		FROM prompt_assignments
		WHERE ($1 = '' OR target_ig_user_id = $1)
			AND ($2 = '' OR prompt_template_id::text = $2)
			AND ($3 OR status = 'active')
		ORDER BY updated_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, filter.TargetIGUserID, filter.PromptTemplateID, filter.IncludeRevoked)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt assignments: %w", err)
	}
	defer rows.Close()

	assignments := []domain.PromptAssignment{}
	for rows.Next() {
		a, err := scanPromptAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan prompt assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompt assignments: %w", err)
	}

	return assignments, nil
}

// ListAvailable retrieves active templates granted to the account through an
// active assignment, most recently updated template first
func (r *promptAssignmentRepository) ListAvailable(ctx context.Context, targetIGUserID string) ([]domain.AssignedPrompt, error) {
	query := `
		SELECT
			t.id, t.name, t.product_name, t.prompt_body, t.status, t.updated_by_admin_id,
			t.archived_at, t.archived_by_admin_id, t.created_at, t.updated_at,
			a.id, a.target_ig_user_id, a.prompt_template_id, a.granted_by_admin_id, a.status,
			a.revoked_at, a.revoked_by_admin_id, a.created_at, a.updated_at
		FROM prompt_assignments a
		JOIN prompt_templates t ON t.id = a.prompt_template_id
		WHERE a.target_ig_user_id = $1
			AND a.status = 'active'
			AND t.status = 'active'
		ORDER BY t.updated_at DESC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, targetIGUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list available prompts: %w", err)
	}
	defer rows.Close()

	prompts := []domain.AssignedPrompt{}
	for rows.Next() {
		var (
			p                     domain.AssignedPrompt
			archivedAt, revokedAt sql.NullTime
			archivedBy, revokedBy sql.NullString
		)
		err := rows.Scan(
			&p.Template.ID,
			&p.Template.Name,
			&p.Template.ProductName,
			&p.Template.PromptBody,
			&p.Template.Status,
			&p.Template.UpdatedByAdminID,
			&archivedAt,
			&archivedBy,
			&p.Template.CreatedAt,
			&p.Template.UpdatedAt,
			&p.Assignment.ID,
			&p.Assignment.TargetIGUserID,
			&p.Assignment.PromptTemplateID,
			&p.Assignment.GrantedByAdminID,
			&p.Assignment.Status,
			&revokedAt,
			&revokedBy,
			&p.Assignment.CreatedAt,
			&p.Assignment.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan available prompt: %w", err)
		}
		if archivedAt.Valid {
			p.Template.ArchivedAt = &archivedAt.Time
		}
		if archivedBy.Valid {
			p.Template.ArchivedByAdminID = &archivedBy.String
		}
		if revokedAt.Valid {
			p.Assignment.RevokedAt = &revokedAt.Time
		}
		if revokedBy.Valid {
			p.Assignment.RevokedByAdminID = &revokedBy.String
		}
		prompts = append(prompts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate available prompts: %w", err)
	}

	return prompts, nil
}
