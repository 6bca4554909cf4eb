package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/llm"
	"github.com/prperemyshlev/reply-assistant/internal/repository"
	"github.com/prperemyshlev/reply-assistant/internal/utils"
	"github.com/prperemyshlev/reply-assistant/pkg/observability"
	"go.uber.org/zap"
)

const (
	minSuggestionQuery = 2
	maxSuggestions     = 8
)

// OperationalPromptWriter writes a prompt body from product information
type OperationalPromptWriter interface {
	Generate(ctx context.Context, in llm.OperationalPromptInput) (string, error)
}

// promptService implements PromptService interface
type promptService struct {
	templates   repository.PromptTemplateRepository
	assignments repository.PromptAssignmentRepository
	accounts    repository.AccountRepository
	writer      OperationalPromptWriter
	metrics     *observability.ReplyMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewPromptService creates a new prompt service. A nil writer disables
// prompt generation.
func NewPromptService(
	templates repository.PromptTemplateRepository,
	assignments repository.PromptAssignmentRepository,
	accounts repository.AccountRepository,
	writer OperationalPromptWriter,
	metrics *observability.ReplyMetrics,
	logger *zap.Logger,
) PromptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &promptService{
		templates:   templates,
		assignments: assignments,
		accounts:    accounts,
		writer:      writer,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

func templateFromRequest(req *dto.PromptTemplateRequest) (domain.PromptTemplate, error) {
	t := domain.PromptTemplate{
		Name:        strings.TrimSpace(req.Name),
		ProductName: strings.TrimSpace(req.ProductName),
		PromptBody:  strings.TrimSpace(req.PromptBody),
	}
	if t.Name == "" || t.ProductName == "" || t.PromptBody == "" {
		return t, NewValidationError("name, product_name and prompt_body are required")
	}
	return t, nil
}

// CreateTemplate stores a new active template
func (s *promptService) CreateTemplate(ctx context.Context, adminID string, req *dto.PromptTemplateRequest) (*domain.PromptTemplate, error) {
	t, err := templateFromRequest(req)
	if err != nil {
		return nil, err
	}
	t.UpdatedByAdminID = adminID

	if err := s.templates.Create(ctx, &t); err != nil {
		return nil, fmt.Errorf("failed to create prompt template: %w", err)
	}
	return &t, nil
}

// UpdateTemplate replaces the editable fields of a template
func (s *promptService) UpdateTemplate(ctx context.Context, adminID, id string, req *dto.PromptTemplateRequest) (*domain.PromptTemplate, error) {
	t, err := templateFromRequest(req)
	if err != nil {
		return nil, err
	}
	t.ID = id
	t.UpdatedByAdminID = adminID

	if err := s.templates.Update(ctx, &t); err != nil {
		return nil, fromRepository("prompt template not found", err)
	}
	return &t, nil
}

// ArchiveTemplate archives a template. Its assignments stop resolving.
func (s *promptService) ArchiveTemplate(ctx context.Context, adminID, id string) error {
	if err := s.templates.Archive(ctx, id, adminID, s.now()); err != nil {
		return fromRepository("prompt template not found", err)
	}
	return nil
}

func (s *promptService) ListTemplates(ctx context.Context, includeArchived bool) ([]domain.PromptTemplate, error) {
	templates, err := s.templates.List(ctx, includeArchived)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt templates: %w", err)
	}
	return templates, nil
}

// GenerateTemplate has the LLM write a prompt body and stores it as a template
func (s *promptService) GenerateTemplate(ctx context.Context, adminID string, req *dto.GeneratePromptRequest) (*domain.PromptTemplate, error) {
	if s.writer == nil {
		return nil, NewConfigurationError("llm provider is not configured")
	}

	in := llm.OperationalPromptInput{
		ProductName:            strings.TrimSpace(req.ProductName),
		ProductInfo:            strings.TrimSpace(req.ProductInfo),
		AudienceInfo:           strings.TrimSpace(req.AudienceInfo),
		AdditionalRequirements: strings.TrimSpace(req.AdditionalRequirements),
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || in.ProductName == "" || in.ProductInfo == "" {
		return nil, NewValidationError("name, product_name and product_info are required")
	}

	body, err := s.writer.Generate(ctx, in)
	if err != nil {
		s.metrics.ExternalFailure(ctx, "llm", "operational_prompt")
		return nil, NewExternalServiceError("failed to generate operational prompt", err)
	}

	t := domain.PromptTemplate{
		Name:             name,
		ProductName:      in.ProductName,
		PromptBody:       body,
		UpdatedByAdminID: adminID,
	}
	if err := s.templates.Create(ctx, &t); err != nil {
		return nil, fmt.Errorf("failed to create prompt template: %w", err)
	}

	s.logger.Info("Operational prompt generated",
		zap.String("prompt_template_id", t.ID),
		zap.String("admin_id", adminID),
	)
	return &t, nil
}

// AvailablePrompts lists the active templates assigned to igUserID
func (s *promptService) AvailablePrompts(ctx context.Context, igUserID string) ([]domain.AssignedPrompt, error) {
	prompts, err := s.assignments.ListAvailable(ctx, igUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list available prompts: %w", err)
	}
	return prompts, nil
}

// AuthorizePrompt never falls back to another prompt when promptID is not assigned
func (s *promptService) AuthorizePrompt(ctx context.Context, igUserID, promptID string) (*domain.AssignedPrompt, error) {
	prompts, err := s.AvailablePrompts(ctx, igUserID)
	if err != nil {
		return nil, err
	}

	for i := range prompts {
		if prompts[i].Template.ID == promptID {
			return &prompts[i], nil
		}
	}
	return nil, NewAuthorizationError("prompt is not assigned to this instagram account")
}

// GrantPrompt assigns a template to every resolved target and returns the count granted
func (s *promptService) GrantPrompt(ctx context.Context, adminID string, req *dto.GrantPromptRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, NewValidationError(err.Error())
	}

	template, err := s.templates.GetByID(ctx, req.PromptTemplateID)
	if err != nil {
		return 0, fromRepository("prompt template not found", err)
	}
	if !template.IsActive() {
		return 0, &Error{Kind: KindConflict, Message: "prompt template is archived"}
	}

	targets, err := s.resolveTargets(ctx, req)
	if err != nil {
		return 0, err
	}

	granted, err := s.assignments.Grant(ctx, targets, template.ID, adminID)
	if err != nil {
		return 0, fromRepository("prompt template not found", err)
	}

	s.logger.Info("Prompt granted",
		zap.String("prompt_template_id", template.ID),
		zap.Int("granted", granted),
		zap.String("admin_id", adminID),
	)
	return granted, nil
}

func (s *promptService) resolveTargets(ctx context.Context, req *dto.GrantPromptRequest) ([]string, error) {
	if !req.ByUsername() {
		targets := dedupeTrimmed(req.IGUserIDs)
		if len(targets) == 0 {
			return nil, NewValidationError("ig_user_ids is required")
		}
		return targets, nil
	}

	usernames := utils.NormalizeUsernames(req.Usernames)
	if len(usernames) == 0 {
		return nil, NewValidationError("usernames is required")
	}

	accounts, err := s.accounts.FindByUsernames(ctx, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve usernames: %w", err)
	}
	if len(accounts) == 0 {
		return nil, NewNotFoundError("no instagram accounts match the given usernames", nil)
	}

	targets := make([]string, 0, len(accounts))
	for _, a := range accounts {
		targets = append(targets, a.IGUserID)
	}
	return dedupeTrimmed(targets), nil
}

// RevokeAssignment soft-deletes an assignment
func (s *promptService) RevokeAssignment(ctx context.Context, adminID, assignmentID string) error {
	if err := s.assignments.Revoke(ctx, assignmentID, adminID, s.now()); err != nil {
		return fromRepository("prompt assignment not found", err)
	}
	return nil
}

func (s *promptService) ListAssignments(ctx context.Context, targetIGUserID, templateID string, includeRevoked bool) ([]domain.PromptAssignment, error) {
	assignments, err := s.assignments.List(ctx, repository.AssignmentFilter{
		TargetIGUserID:   strings.TrimSpace(targetIGUserID),
		PromptTemplateID: strings.TrimSpace(templateID),
		IncludeRevoked:   includeRevoked,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list prompt assignments: %w", err)
	}
	return assignments, nil
}

// SuggestUsernames returns up to eight accounts whose username starts with query.
// Queries shorter than two characters after normalization return nothing.
func (s *promptService) SuggestUsernames(ctx context.Context, query string) ([]domain.AccountSummary, error) {
	query = utils.NormalizeUsername(query)
	if len([]rune(query)) < minSuggestionQuery {
		return []domain.AccountSummary{}, nil
	}

	suggestions, err := s.accounts.SuggestUsernames(ctx, query, maxSuggestions)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest usernames: %w", err)
	}
	return suggestions, nil
}

func dedupeTrimmed(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

var _ OperationalPromptWriter = (*llm.OperationalPromptGenerator)(nil)

// isNotFound reports a not-found service or repository error
func isNotFound(err error) bool {
	return KindOf(err) == KindNotFound || errors.Is(err, repository.ErrNotFound)
}
