package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/repository"
	"github.com/prperemyshlev/reply-assistant/internal/utils"
)

// adContextService implements AdContextService interface
type adContextService struct {
	adContexts repository.AdContextRepository
}

// NewAdContextService creates a new ad context service
func NewAdContextService(adContexts repository.AdContextRepository) AdContextService {
	return &adContextService{adContexts: adContexts}
}

func adContextFromRequest(req *dto.AdContextRequest) (domain.AdContext, error) {
	ac := domain.AdContext{
		TargetIGUserID:   strings.TrimSpace(req.TargetIGUserID),
		ProductName:      strings.TrimSpace(req.ProductName),
		USPText:          strings.TrimSpace(req.USPText),
		SalesLink:        strings.TrimSpace(req.SalesLink),
		DiscountCode:     strings.TrimSpace(req.DiscountCode),
		RequiredKeywords: utils.NormalizeKeywords(req.RequiredKeywords),
		BannedKeywords:   utils.NormalizeKeywords(req.BannedKeywords),
		ToneNotes:        strings.TrimSpace(req.ToneNotes),
	}

	if ac.TargetIGUserID == "" || ac.ProductName == "" || ac.USPText == "" {
		return ac, NewValidationError("target_ig_user_id, product_name and usp_text are required")
	}
	if ac.DiscountCode == "" || ac.ToneNotes == "" {
		return ac, NewValidationError("discount_code and tone_notes are required")
	}
	if !utils.ValidateURL(ac.SalesLink) {
		return ac, NewValidationError("sales_link must be an http(s) url")
	}

	return ac, nil
}

// Create stores a new ad context for the target account
func (s *adContextService) Create(ctx context.Context, adminID string, req *dto.AdContextRequest) (*domain.AdContext, error) {
	ac, err := adContextFromRequest(req)
	if err != nil {
		return nil, err
	}
	ac.UpdatedByAdminID = adminID

	if err := s.adContexts.Create(ctx, &ac); err != nil {
		return nil, fmt.Errorf("failed to create ad context: %w", err)
	}
	return &ac, nil
}

// Update replaces an ad context
func (s *adContextService) Update(ctx context.Context, adminID, id string, req *dto.AdContextRequest) (*domain.AdContext, error) {
	ac, err := adContextFromRequest(req)
	if err != nil {
		return nil, err
	}
	ac.ID = id
	ac.UpdatedByAdminID = adminID

	if err := s.adContexts.Update(ctx, &ac); err != nil {
		return nil, fromRepository("ad context not found", err)
	}
	return &ac, nil
}

func (s *adContextService) Delete(ctx context.Context, id string) error {
	if err := s.adContexts.Delete(ctx, id); err != nil {
		return fromRepository("ad context not found", err)
	}
	return nil
}

// List returns ad contexts, optionally scoped to one account
func (s *adContextService) List(ctx context.Context, targetIGUserID string) ([]domain.AdContext, error) {
	contexts, err := s.adContexts.List(ctx, repository.AdContextFilter{TargetIGUserID: strings.TrimSpace(targetIGUserID)})
	if err != nil {
		return nil, fmt.Errorf("failed to list ad contexts: %w", err)
	}
	return contexts, nil
}
