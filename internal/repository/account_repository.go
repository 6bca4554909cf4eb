package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/pkg/database"
)

const accountColumns = `id, ig_user_id, operator_id, username, access_token_encrypted, token_expires_at, is_active, created_at, updated_at`

// accountRepository implements AccountRepository interface
type accountRepository struct {
	db *database.Postgres
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.Postgres) AccountRepository {
	return &accountRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.InstagramAccount, error) {
	var account domain.InstagramAccount
	err := row.Scan(
		&account.ID,
		&account.IGUserID,
		&account.OperatorID,
		&account.Username,
		&account.AccessTokenEncrypted,
		&account.TokenExpiresAt,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	return account, err
}

func (r *accountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.InstagramAccount, error) {
	rows, err := r.db.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query instagram accounts: %w", err)
	}
	defer rows.Close()

	accounts := []domain.InstagramAccount{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan instagram account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate instagram accounts: %w", err)
	}

	return accounts, nil
}

// ListByOperator retrieves the operator's accounts, most recently updated first
func (r *accountRepository) ListByOperator(ctx context.Context, operatorID string) ([]domain.InstagramAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM instagram_accounts
		WHERE operator_id = $1
		ORDER BY updated_at DESC
	`

	return r.queryAccounts(ctx, query, operatorID)
}

// GetByIGUserID retrieves an account by its Instagram user id
func (r *accountRepository) GetByIGUserID(ctx context.Context, igUserID string) (*domain.InstagramAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM instagram_accounts
		WHERE ig_user_id = $1
	`

	account, err := scanAccount(r.db.DB.QueryRowContext(ctx, query, igUserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("instagram account not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get instagram account: %w", err)
	}

	return &account, nil
}

// Upsert inserts or refreshes an account keyed by ig_user_id.
// Relinking under a different operator clears the selection flag.
func (r *accountRepository) Upsert(ctx context.Context, account *domain.InstagramAccount) error {
	query := `
		INSERT INTO instagram_accounts (id, ig_user_id, operator_id, username, access_token_encrypted, token_expires_at, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
		ON CONFLICT (ig_user_id) DO UPDATE SET
			operator_id = EXCLUDED.operator_id,
			username = EXCLUDED.username,
			access_token_encrypted = EXCLUDED.access_token_encrypted,
			token_expires_at = EXCLUDED.token_expires_at,
			is_active = CASE
				WHEN instagram_accounts.operator_id = EXCLUDED.operator_id THEN instagram_accounts.is_active
				ELSE FALSE
			END,
			updated_at = EXCLUDED.updated_at
		RETURNING id, is_active, created_at, updated_at
	`

	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	now := time.Now()
	if account.UpdatedAt.IsZero() {
		account.UpdatedAt = now
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		account.ID,
		account.IGUserID,
		account.OperatorID,
		account.Username,
		account.AccessTokenEncrypted,
		account.TokenExpiresAt,
		account.UpdatedAt,
	).Scan(&account.ID, &account.IsActive, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert instagram account: %w", err)
	}

	return nil
}

// SetActive marks igUserID as the operator's only active account.
// The operator's rows are locked so concurrent selections serialize.
func (r *accountRepository) SetActive(ctx context.Context, operatorID, igUserID string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		lockQuery := `
			SELECT ig_user_id
			FROM instagram_accounts
			WHERE operator_id = $1
			FOR UPDATE
		`

		rows, err := tx.QueryContext(ctx, lockQuery, operatorID)
		if err != nil {
			return fmt.Errorf("failed to lock instagram accounts: %w", err)
		}

		owned := false
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan instagram account: %w", err)
			}
			if id == igUserID {
				owned = true
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate instagram accounts: %w", err)
		}

		if !owned {
			return fmt.Errorf("instagram account %s not linked to operator: %w", igUserID, ErrNotFound)
		}

		updateQuery := `
			UPDATE instagram_accounts
			SET is_active = (ig_user_id = $2), updated_at = $3
			WHERE operator_id = $1
		`

		if _, err := tx.ExecContext(ctx, updateQuery, operatorID, igUserID, time.Now()); err != nil {
			return fmt.Errorf("failed to set active instagram account: %w", err)
		}

		return nil
	})
}

// FindByUsernames retrieves accounts whose lower-cased username is in usernames
func (r *accountRepository) FindByUsernames(ctx context.Context, usernames []string) ([]domain.InstagramAccount, error) {
	if len(usernames) == 0 {
		return []domain.InstagramAccount{}, nil
	}

	query := `
		SELECT ` + accountColumns + `
		FROM instagram_accounts
		WHERE lower(username) = ANY($1)
		ORDER BY username ASC
	`

	return r.queryAccounts(ctx, query, pq.Array(usernames))
}

// SuggestUsernames returns accounts whose username starts with prefix
func (r *accountRepository) SuggestUsernames(ctx context.Context, prefix string, limit int) ([]domain.AccountSummary, error) {
	query := `
		SELECT ig_user_id, username, is_active
		FROM instagram_accounts
		WHERE lower(username) LIKE $1 ESCAPE '\'
		ORDER BY username ASC
		LIMIT $2
	`

	rows, err := r.db.DB.QueryContext(ctx, query, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest usernames: %w", err)
	}
	defer rows.Close()

	suggestions := []domain.AccountSummary{}
	for rows.Next() {
		var s domain.AccountSummary
		if err := rows.Scan(&s.IGUserID, &s.Username, &s.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan username suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate username suggestions: %w", err)
	}

	return suggestions, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(s))
}
