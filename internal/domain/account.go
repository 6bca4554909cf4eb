package domain

import "time"

// InstagramAccount is an Instagram professional account linked by an operator
type InstagramAccount struct {
	ID                   string    `json:"id" db:"id"`
	IGUserID             string    `json:"ig_user_id" db:"ig_user_id"`
	OperatorID           string    `json:"operator_id" db:"operator_id"`
	Username             string    `json:"username" db:"username"`
	AccessTokenEncrypted string    `json:"-" db:"access_token_encrypted"`
	TokenExpiresAt       time.Time `json:"token_expires_at" db:"token_expires_at"`
	IsActive             bool      `json:"is_active" db:"is_active"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// AccountSummary is the operator-facing view of a linked account
type AccountSummary struct {
	IGUserID string `json:"ig_user_id"`
	Username string `json:"username"`
	IsActive bool   `json:"is_active"`
}

// Summary drops the token and audit fields
func (a InstagramAccount) Summary() AccountSummary {
	return AccountSummary{
		IGUserID: a.IGUserID,
		Username: a.Username,
		IsActive: a.IsActive,
	}
}

// ResolveSelected returns the account flagged active, falling back to the first
// element. Callers pass accounts ordered by updated_at descending.
// Returns nil for an empty slice.
func ResolveSelected[T interface{ Active() bool }](accounts []T) *T {
	for i := range accounts {
		if accounts[i].Active() {
			return &accounts[i]
		}
	}
	if len(accounts) == 0 {
		return nil
	}
	return &accounts[0]
}

func (a InstagramAccount) Active() bool { return a.IsActive }

func (a AccountSummary) Active() bool { return a.IsActive }
