package domain

import "time"

type TemplateStatus string

const (
	TemplateActive   TemplateStatus = "active"
	TemplateArchived TemplateStatus = "archived"
)

// PromptTemplate is an admin-authored instruction block for LLM drafts.
// PromptBody is never shown to operators.
type PromptTemplate struct {
	ID                string         `json:"id" db:"id"`
	Name              string         `json:"name" db:"name"`
	ProductName       string         `json:"product_name" db:"product_name"`
	PromptBody        string         `json:"prompt_body" db:"prompt_body"`
	Status            TemplateStatus `json:"status" db:"status"`
	UpdatedByAdminID  string         `json:"updated_by_admin_id" db:"updated_by_admin_id"`
	ArchivedAt        *time.Time     `json:"archived_at,omitempty" db:"archived_at"`
	ArchivedByAdminID *string        `json:"archived_by_admin_id,omitempty" db:"archived_by_admin_id"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

func (p PromptTemplate) IsActive() bool { return p.Status == TemplateActive }

type AssignmentStatus string

const (
	AssignmentActive  AssignmentStatus = "active"
	AssignmentRevoked AssignmentStatus = "revoked"
)

// PromptAssignment grants one Instagram account the use of one prompt template
type PromptAssignment struct {
	ID               string           `json:"id" db:"id"`
	TargetIGUserID   string           `json:"target_ig_user_id" db:"target_ig_user_id"`
	PromptTemplateID string           `json:"prompt_template_id" db:"prompt_template_id"`
	GrantedByAdminID string           `json:"granted_by_admin_id" db:"granted_by_admin_id"`
	Status           AssignmentStatus `json:"status" db:"status"`
	RevokedAt        *time.Time       `json:"revoked_at,omitempty" db:"revoked_at"`
	RevokedByAdminID *string          `json:"revoked_by_admin_id,omitempty" db:"revoked_by_admin_id"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

func (a PromptAssignment) IsActive() bool { return a.Status == AssignmentActive }

// AssignedPrompt is a template joined with the assignment that grants it
type AssignedPrompt struct {
	Template   PromptTemplate
	Assignment PromptAssignment
}

// PromptSummary is the operator-facing view of an available prompt
type PromptSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ProductName string `json:"product_name"`
}

func (p AssignedPrompt) Summary() PromptSummary {
	return PromptSummary{
		ID:          p.Template.ID,
		Name:        p.Template.Name,
		ProductName: p.Template.ProductName,
	}
}
