package dto

import (
	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/instagram"
)

// AccountsResponse lists the operator's linked accounts
type AccountsResponse struct {
	Accounts []domain.AccountSummary `json:"accounts"`
	Selected *domain.AccountSummary  `json:"selected"`
}

// ConnectResponse carries the OAuth dialog URL
type ConnectResponse struct {
	URL string `json:"url"`
}

type PostsResponse struct {
	IGUserID string           `json:"ig_user_id"`
	Posts    []instagram.Post `json:"posts"`
}

type CommentsResponse struct {
	PostID   string              `json:"post_id"`
	Comments []instagram.Comment `json:"comments"`
}

// AvailablePromptsResponse lists prompts without their bodies
type AvailablePromptsResponse struct {
	IGUserID string                 `json:"ig_user_id"`
	Prompts  []domain.PromptSummary `json:"prompts"`
}

type DraftResponse struct {
	Draft domain.ReplyDraft `json:"draft"`
}

type PublishResponse struct {
	ReplyCommentID string             `json:"reply_comment_id"`
	Draft          *domain.ReplyDraft `json:"draft,omitempty"`
}

type HistoryResponse struct {
	Drafts []domain.ReplyDraft `json:"drafts"`
}

type AdContextsResponse struct {
	AdContexts []domain.AdContext `json:"ad_contexts"`
}

type PromptTemplatesResponse struct {
	Prompts []domain.PromptTemplate `json:"prompts"`
}

type PromptTemplateResponse struct {
	Prompt domain.PromptTemplate `json:"prompt"`
}

type AssignmentsResponse struct {
	Assignments []domain.PromptAssignment `json:"assignments"`
}

// GrantResponse reports how many accounts were granted
type GrantResponse struct {
	Granted int `json:"granted"`
}

// UserSuggestionsResponse lists username prefix matches
type UserSuggestionsResponse struct {
	Suggestions []domain.AccountSummary `json:"suggestions"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
