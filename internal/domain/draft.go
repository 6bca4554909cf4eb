package domain

import "time"

// Intent is the classification label of a comment
type Intent string

const (
	IntentRisk     Intent = "risk"
	IntentLead     Intent = "lead"
	IntentReaction Intent = "reaction"
	IntentQA       Intent = "qa"
)

type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusHold      DraftStatus = "hold"
	DraftStatusPublished DraftStatus = "published"
)

// StatusForIntent puts risky comments on hold for human review
func StatusForIntent(intent Intent) DraftStatus {
	if intent == IntentRisk {
		return DraftStatusHold
	}
	return DraftStatusDraft
}

type DraftStrategy string

const (
	StrategyTemplate DraftStrategy = "template"
	StrategyPrompt   DraftStrategy = "prompt"
)

// ReplyDraft is a generated reply for one comment
type ReplyDraft struct {
	ID                      string        `json:"id" db:"id"`
	IGCommentID             string        `json:"ig_comment_id" db:"ig_comment_id"`
	TargetIGUserID          string        `json:"target_ig_user_id" db:"target_ig_user_id"`
	Intent                  Intent        `json:"intent" db:"intent"`
	OriginalComment         string        `json:"original_comment" db:"original_comment"`
	AIDraft                 string        `json:"ai_draft" db:"ai_draft"`
	Status                  DraftStatus   `json:"status" db:"status"`
	Strategy                DraftStrategy `json:"strategy" db:"strategy"`
	PromptTemplateID        *string       `json:"prompt_template_id,omitempty" db:"prompt_template_id"`
	PublishedReplyCommentID *string       `json:"published_reply_comment_id,omitempty" db:"published_reply_comment_id"`
	PublishedAt             *time.Time    `json:"published_at,omitempty" db:"published_at"`
	ErrorMessage            *string       `json:"error_message,omitempty" db:"error_message"`
	CreatedAt               time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at" db:"updated_at"`
}
