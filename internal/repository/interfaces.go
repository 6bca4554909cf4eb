package repository

import (
	"context"
	"time"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
)

// AccountRepository defines methods for linked Instagram accounts
type AccountRepository interface {
	// ListByOperator returns the operator's accounts, most recently updated first
	ListByOperator(ctx context.Context, operatorID string) ([]domain.InstagramAccount, error)
	GetByIGUserID(ctx context.Context, igUserID string) (*domain.InstagramAccount, error)
	Upsert(ctx context.Context, account *domain.InstagramAccount) error
	SetActive(ctx context.Context, operatorID, igUserID string) error
	FindByUsernames(ctx context.Context, usernames []string) ([]domain.InstagramAccount, error)
	SuggestUsernames(ctx context.Context, prefix string, limit int) ([]domain.AccountSummary, error)
}

// AdContextFilter narrows ad context listings
type AdContextFilter struct {
	TargetIGUserID string
}

// AdContextRepository defines methods for ad contexts
type AdContextRepository interface {
	Create(ctx context.Context, adContext *domain.AdContext) error
	Update(ctx context.Context, adContext *domain.AdContext) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.AdContext, error)
	List(ctx context.Context, filter AdContextFilter) ([]domain.AdContext, error)
	// Latest returns the newest context of the account, preferring productName when it is set
	Latest(ctx context.Context, targetIGUserID, productName string) (*domain.AdContext, error)
}

// PromptTemplateRepository defines methods for prompt templates
type PromptTemplateRepository interface {
	Create(ctx context.Context, template *domain.PromptTemplate) error
	Update(ctx context.Context, template *domain.PromptTemplate) error
	GetByID(ctx context.Context, id string) (*domain.PromptTemplate, error)
	List(ctx context.Context, includeArchived bool) ([]domain.PromptTemplate, error)
	Archive(ctx context.Context, id, adminID string, at time.Time) error
}

// AssignmentFilter narrows assignment listings
type AssignmentFilter struct {
	TargetIGUserID   string
	PromptTemplateID string
	IncludeRevoked   bool
}

// PromptAssignmentRepository defines methods for prompt assignments
type PromptAssignmentRepository interface {
	// Grant upserts one active assignment per target and returns how many were granted
	Grant(ctx context.Context, targets []string, templateID, adminID string) (int, error)
	Revoke(ctx context.Context, id, adminID string, at time.Time) error
	List(ctx context.Context, filter AssignmentFilter) ([]domain.PromptAssignment, error)
	// ListAvailable joins active assignments of the account with active templates
	ListAvailable(ctx context.Context, targetIGUserID string) ([]domain.AssignedPrompt, error)
}

// DraftRepository defines methods for reply drafts
type DraftRepository interface {
	Create(ctx context.Context, draft *domain.ReplyDraft) error
	GetByID(ctx context.Context, id string) (*domain.ReplyDraft, error)
	MarkPublished(ctx context.Context, id, replyCommentID string, at time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
	ListByTarget(ctx context.Context, targetIGUserID string, limit int) ([]domain.ReplyDraft, error)
}
