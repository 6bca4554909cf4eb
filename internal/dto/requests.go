package dto

import "errors"

// SelectAccountRequest selects the operator's active Instagram account
type SelectAccountRequest struct {
	IGUserID string `json:"ig_user_id" binding:"required"`
}

// DraftRequest asks for a reply draft for one comment
type DraftRequest struct {
	CommentID   string `json:"comment_id" binding:"required"`
	CommentText string `json:"comment_text" binding:"required"`
	// PromptID selects one of the account's assigned prompts. Empty uses the default.
	PromptID string `json:"prompt_id"`
}

// PublishRequest publishes a reply to a comment
type PublishRequest struct {
	CommentID string `json:"comment_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
	DraftID   string `json:"draft_id"`
}

// AdContextRequest creates or replaces an ad context
type AdContextRequest struct {
	TargetIGUserID   string   `json:"target_ig_user_id" binding:"required"`
	ProductName      string   `json:"product_name" binding:"required"`
	USPText          string   `json:"usp_text" binding:"required"`
	SalesLink        string   `json:"sales_link" binding:"required"`
	DiscountCode     string   `json:"discount_code" binding:"required"`
	RequiredKeywords []string `json:"required_keywords"`
	BannedKeywords   []string `json:"banned_keywords"`
	ToneNotes        string   `json:"tone_notes" binding:"required"`
}

// PromptTemplateRequest creates or updates a prompt template
type PromptTemplateRequest struct {
	Name        string `json:"name" binding:"required"`
	ProductName string `json:"product_name" binding:"required"`
	PromptBody  string `json:"prompt_body" binding:"required"`
}

// GeneratePromptRequest asks the LLM to write and store a prompt template
type GeneratePromptRequest struct {
	Name                   string `json:"name" binding:"required"`
	ProductName            string `json:"product_name" binding:"required"`
	ProductInfo            string `json:"product_info" binding:"required"`
	AudienceInfo           string `json:"audience_info"`
	AdditionalRequirements string `json:"additional_requirements"`
}

// GrantPromptRequest grants one template to a batch of accounts.
// Exactly one of IGUserIDs and Usernames must be set.
type GrantPromptRequest struct {
	PromptTemplateID string   `json:"prompt_template_id" binding:"required"`
	IGUserIDs        []string `json:"ig_user_ids"`
	Usernames        []string `json:"usernames"`
}

var errGrantTargets = errors.New("exactly one of ig_user_ids or usernames must be provided")

// Validate checks the target union
func (r *GrantPromptRequest) Validate() error {
	if (len(r.IGUserIDs) > 0) == (len(r.Usernames) > 0) {
		return errGrantTargets
	}
	return nil
}

// ByUsername reports whether targets are usernames
func (r *GrantPromptRequest) ByUsername() bool {
	return len(r.Usernames) > 0
}
