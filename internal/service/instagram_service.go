package service

import (
	"context"
	"strings"

	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/utils"
	"github.com/prperemyshlev/reply-assistant/pkg/observability"
)

// instagramService implements InstagramService interface
type instagramService struct {
	accounts  AccountService
	instagram InstagramAPI
	cipher    *utils.TokenCipher
	metrics   *observability.ReplyMetrics
}

// NewInstagramService creates a new instagram service
func NewInstagramService(accounts AccountService, api InstagramAPI, cipher *utils.TokenCipher, metrics *observability.ReplyMetrics) InstagramService {
	return &instagramService{
		accounts:  accounts,
		instagram: api,
		cipher:    cipher,
		metrics:   metrics,
	}
}

// ListPosts lists the media of the operator's selected account
func (s *instagramService) ListPosts(ctx context.Context, operatorID string) (*dto.PostsResponse, error) {
	account, err := s.accounts.Selected(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	token, err := accessToken(s.cipher, account)
	if err != nil {
		return nil, err
	}

	posts, err := s.instagram.ListPosts(ctx, account.IGUserID, token)
	if err != nil {
		s.metrics.ExternalFailure(ctx, "instagram", "list_posts")
		return nil, NewExternalServiceError("failed to load instagram posts", err)
	}

	return &dto.PostsResponse{IGUserID: account.IGUserID, Posts: posts}, nil
}

// ListComments lists the comments of postID using the selected account's token
func (s *instagramService) ListComments(ctx context.Context, operatorID, postID string) (*dto.CommentsResponse, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, NewValidationError("post id is required")
	}

	account, err := s.accounts.Selected(ctx, operatorID)
	if err != nil {
		return nil, err
	}

	token, err := accessToken(s.cipher, account)
	if err != nil {
		return nil, err
	}

	comments, err := s.instagram.ListComments(ctx, postID, token)
	if err != nil {
		s.metrics.ExternalFailure(ctx, "instagram", "list_comments")
		return nil, NewExternalServiceError("failed to load instagram comments", err)
	}

	return &dto.CommentsResponse{PostID: postID, Comments: comments}, nil
}
