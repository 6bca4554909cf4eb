package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/repository"
	"github.com/prperemyshlev/reply-assistant/internal/reply"
	"github.com/prperemyshlev/reply-assistant/internal/utils"
	"github.com/prperemyshlev/reply-assistant/pkg/observability"
	"go.uber.org/zap"
)

const historyLimit = 50

// DraftServiceDeps groups the collaborators of the draft service
type DraftServiceDeps struct {
	Accounts   AccountService
	Prompts    PromptService
	AdContexts repository.AdContextRepository
	Drafts     repository.DraftRepository
	Classifier *reply.Classifier
	// Drafter is nil when no LLM provider is configured
	Drafter   *reply.PromptDrafter
	Instagram InstagramAPI
	Cipher    *utils.TokenCipher
	Metrics   *observability.ReplyMetrics
	Logger    *zap.Logger
}

// draftService implements DraftService interface
type draftService struct {
	accounts   AccountService
	prompts    PromptService
	adContexts repository.AdContextRepository
	drafts     repository.DraftRepository
	classifier *reply.Classifier
	drafter    *reply.PromptDrafter
	instagram  InstagramAPI
	cipher     *utils.TokenCipher
	metrics    *observability.ReplyMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewDraftService creates a new draft service
func NewDraftService(deps DraftServiceDeps) DraftService {
	classifier := deps.Classifier
	if classifier == nil {
		classifier = reply.NewClassifier(reply.DefaultRules())
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &draftService{
		accounts:   deps.Accounts,
		prompts:    deps.Prompts,
		adContexts: deps.AdContexts,
		drafts:     deps.Drafts,
		classifier: classifier,
		drafter:    deps.Drafter,
		instagram:  deps.Instagram,
		cipher:     deps.Cipher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate classifies the comment, drafts a reply for the selected account
// and stores it. Accounts with assigned prompts are drafted by the LLM with
// the selected (or first) prompt; others use the rule template and require
// an ad context. Nothing is stored when generation fails.
func (s *draftService) Generate(ctx context.Context, operatorID string, req *dto.DraftRequest) (*domain.ReplyDraft, error) {
	commentID := strings.TrimSpace(req.CommentID)
	commentText := strings.TrimSpace(req.CommentText)
	if commentID == "" || commentText == "" {
		return nil, NewValidationError("comment_id and comment_text are required")
	}

	account, err := s.accounts.Selected(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	prompt, err := s.resolvePrompt(ctx, account.IGUserID, strings.TrimSpace(req.PromptID))
	if err != nil {
		return nil, err
	}

	intent := s.classifier.Classify(commentText)
	draft := &domain.ReplyDraft{
		IGCommentID:     commentID,
		TargetIGUserID:  account.IGUserID,
		Intent:          intent,
		OriginalComment: commentText,
		Status:          domain.StatusForIntent(intent),
	}

	if prompt == nil {
		draft.Strategy = domain.StrategyTemplate
		draft.AIDraft, err = s.templateDraft(ctx, account.IGUserID, commentText, intent)
	} else {
		draft.Strategy = domain.StrategyPrompt
		draft.PromptTemplateID = &prompt.Template.ID
		draft.AIDraft, err = s.promptDraft(ctx, account.IGUserID, commentText, intent, prompt)
	}
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save reply draft: %w", err)
	}

	s.metrics.DraftGenerated(ctx, string(draft.Intent), string(draft.Strategy), string(draft.Status))
	s.logger.Info("Reply draft generated",
		zap.String("draft_id", draft.ID),
		zap.String("ig_user_id", account.IGUserID),
		zap.String("intent", string(intent)),
		zap.String("strategy", string(draft.Strategy)),
	)

	return draft, nil
}

// resolvePrompt returns the prompt the draft uses, or nil for the rule template
func (s *draftService) resolvePrompt(ctx context.Context, igUserID, promptID string) (*domain.AssignedPrompt, error) {
	if promptID != "" {
		return s.prompts.AuthorizePrompt(ctx, igUserID, promptID)
	}

	available, err := s.prompts.AvailablePrompts(ctx, igUserID)
	if err != nil {
		return nil, err
	}
	if len(available) == 0 {
		return nil, nil
	}
	return &available[0], nil
}

func (s *draftService) templateDraft(ctx context.Context, igUserID, commentText string, intent domain.Intent) (string, error) {
	ac, err := s.adContexts.Latest(ctx, igUserID, "")
	if err != nil {
		return "", fromRepository("no ad context configured for this account", err)
	}
	return reply.GenerateDraft(commentText, intent, reply.ContextFrom(*ac)), nil
}

func (s *draftService) promptDraft(ctx context.Context, igUserID, commentText string, intent domain.Intent, prompt *domain.AssignedPrompt) (string, error) {
	if s.drafter == nil {
		return "", NewConfigurationError("llm provider is not configured")
	}

	text, err := s.drafter.GenerateFromPrompt(ctx, commentText, intent, prompt.Template.PromptBody)
	if err != nil {
		s.metrics.ExternalFailure(ctx, "llm", "draft")
		return "", NewExternalServiceError("failed to generate reply draft", err)
	}

	ac, err := s.adContexts.Latest(ctx, igUserID, prompt.Template.ProductName)
	if err != nil {
		if isNotFound(err) {
			return text, nil
		}
		return "", fmt.Errorf("failed to load ad context: %w", err)
	}
	return reply.Sanitize(text, ac.BannedKeywords), nil
}

// Publish posts message as a reply to the comment with the selected account.
// When a draft id is given the draft records the outcome.
func (s *draftService) Publish(ctx context.Context, operatorID string, req *dto.PublishRequest) (*dto.PublishResponse, error) {
	commentID := strings.TrimSpace(req.CommentID)
	message := strings.TrimSpace(req.Message)
	if commentID == "" || message == "" {
		return nil, NewValidationError("comment_id and message are required")
	}

	account, err := s.accounts.Selected(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	var draft *domain.ReplyDraft
	if draftID := strings.TrimSpace(req.DraftID); draftID != "" {
		draft, err = s.drafts.GetByID(ctx, draftID)
		if err != nil {
			return nil, fromRepository("reply draft not found", err)
		}
		if draft.TargetIGUserID != account.IGUserID {
			return nil, NewNotFoundError("reply draft not found", nil)
		}
		if draft.IGCommentID != commentID {
			return nil, NewValidationError("draft belongs to a different comment")
		}
		if draft.Status == domain.DraftStatusPublished {
			return nil, &Error{Kind: KindConflict, Message: "reply draft already published"}
		}
	}

	token, err := accessToken(s.cipher, account)
	if err != nil {
		return nil, err
	}

	replyID, err := s.instagram.PublishReply(ctx, commentID, message, token)
	if err != nil {
		s.metrics.Published(ctx, false)
		s.metrics.ExternalFailure(ctx, "instagram", "publish")
		if draft != nil {
			if markErr := s.drafts.MarkFailed(ctx, draft.ID, err.Error()); markErr != nil {
				s.logger.Warn("Failed to record publish error", zap.String("draft_id", draft.ID), zap.Error(markErr))
			}
		}
		return nil, NewExternalServiceError("failed to publish reply", err)
	}

	s.metrics.Published(ctx, true)
	response := &dto.PublishResponse{ReplyCommentID: replyID}

	if draft != nil {
		now := s.now()
		if err := s.drafts.MarkPublished(ctx, draft.ID, replyID, now); err != nil {
			// The reply is live on Instagram at this point.
			s.logger.Error("Failed to mark draft published",
				zap.String("draft_id", draft.ID),
				zap.String("reply_comment_id", replyID),
				zap.Error(err),
			)
		} else {
			draft.Status = domain.DraftStatusPublished
			draft.PublishedReplyCommentID = &replyID
			draft.PublishedAt = &now
			draft.ErrorMessage = nil
			draft.UpdatedAt = now
		}
		response.Draft = draft
	}

	s.logger.Info("Reply published",
		zap.String("ig_user_id", account.IGUserID),
		zap.String("comment_id", commentID),
		zap.String("reply_comment_id", replyID),
	)

	return response, nil
}

// History lists recent drafts of the selected account; no linked account yields none
func (s *draftService) History(ctx context.Context, operatorID string) ([]domain.ReplyDraft, error) {
	account, err := selectedAccount(ctx, s.accounts, operatorID, true)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return []domain.ReplyDraft{}, nil
	}

	drafts, err := s.drafts.ListByTarget(ctx, account.IGUserID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reply drafts: %w", err)
	}
	return drafts, nil
}
