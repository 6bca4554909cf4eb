package service

import (
	"context"
	"net/url"
	"time"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/instagram"
)

// AccountService defines methods for linking and selecting Instagram accounts
type AccountService interface {
	List(ctx context.Context, operatorID string) (*dto.AccountsResponse, error)
	// Selected returns the operator's active account, or a not-found error when none is linked
	Selected(ctx context.Context, operatorID string) (*domain.InstagramAccount, error)
	SetActive(ctx context.Context, operatorID, igUserID string) error
	ConnectURL(ctx context.Context, operatorID string) (string, error)
	HandleCallback(ctx context.Context, cb CallbackInput) (*domain.AccountSummary, error)
}

// CallbackInput is what the OAuth redirect delivers
type CallbackInput struct {
	RequestID        string
	Code             string
	State            string
	Error            string
	ErrorDescription string
	// Query is logged when callback payload debugging is on
	Query url.Values
	Meta  instagram.CallbackDebugMeta
}

// InstagramService defines read methods for the selected account's media
type InstagramService interface {
	ListPosts(ctx context.Context, operatorID string) (*dto.PostsResponse, error)
	ListComments(ctx context.Context, operatorID, postID string) (*dto.CommentsResponse, error)
}

// PromptService defines methods for prompt templates and their assignments
type PromptService interface {
	CreateTemplate(ctx context.Context, adminID string, req *dto.PromptTemplateRequest) (*domain.PromptTemplate, error)
	UpdateTemplate(ctx context.Context, adminID, id string, req *dto.PromptTemplateRequest) (*domain.PromptTemplate, error)
	ArchiveTemplate(ctx context.Context, adminID, id string) error
	ListTemplates(ctx context.Context, includeArchived bool) ([]domain.PromptTemplate, error)
	GenerateTemplate(ctx context.Context, adminID string, req *dto.GeneratePromptRequest) (*domain.PromptTemplate, error)

	AvailablePrompts(ctx context.Context, igUserID string) ([]domain.AssignedPrompt, error)
	// AuthorizePrompt returns the prompt only when it is assigned to the account
	AuthorizePrompt(ctx context.Context, igUserID, promptID string) (*domain.AssignedPrompt, error)
	GrantPrompt(ctx context.Context, adminID string, req *dto.GrantPromptRequest) (int, error)
	RevokeAssignment(ctx context.Context, adminID, assignmentID string) error
	ListAssignments(ctx context.Context, targetIGUserID, templateID string, includeRevoked bool) ([]domain.PromptAssignment, error)
	SuggestUsernames(ctx context.Context, query string) ([]domain.AccountSummary, error)
}

// AdContextService defines admin methods for ad contexts
type AdContextService interface {
	Create(ctx context.Context, adminID string, req *dto.AdContextRequest) (*domain.AdContext, error)
	Update(ctx context.Context, adminID, id string, req *dto.AdContextRequest) (*domain.AdContext, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, targetIGUserID string) ([]domain.AdContext, error)
}

// DraftService defines methods for generating and publishing replies
type DraftService interface {
	Generate(ctx context.Context, operatorID string, req *dto.DraftRequest) (*domain.ReplyDraft, error)
	Publish(ctx context.Context, operatorID string, req *dto.PublishRequest) (*dto.PublishResponse, error)
	History(ctx context.Context, operatorID string) ([]domain.ReplyDraft, error)
}

// InstagramAPI is the Graph API surface the services call
type InstagramAPI interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*instagram.AccessToken, error)
	FetchProfile(ctx context.Context, accessToken string) (*instagram.Profile, error)
	ListPosts(ctx context.Context, igUserID, accessToken string) ([]instagram.Post, error)
	ListComments(ctx context.Context, postID, accessToken string) ([]instagram.Comment, error)
	PublishReply(ctx context.Context, commentID, message, accessToken string) (string, error)
}

// NonceStore enforces single use of OAuth state nonces
type NonceStore interface {
	Consume(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
}

var (
	_ InstagramAPI = (*instagram.Client)(nil)
	_ NonceStore   = (*StateNonceStore)(nil)
)
