package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/instagram"
	"github.com/prperemyshlev/reply-assistant/internal/repository"
	"github.com/prperemyshlev/reply-assistant/internal/utils"
	"github.com/prperemyshlev/reply-assistant/pkg/observability"
	"go.uber.org/zap"
)

// AccountServiceDeps groups the collaborators of the account service
type AccountServiceDeps struct {
	Accounts     repository.AccountRepository
	Instagram    InstagramAPI
	StateCodec   *utils.OAuthStateCodec
	Nonces       NonceStore
	Cipher       *utils.TokenCipher
	Metrics      *observability.ReplyMetrics
	Logger       *zap.Logger
	DebugPayload bool
}

// accountService implements AccountService interface
type accountService struct {
	accounts   repository.AccountRepository
	instagram  InstagramAPI
	stateCodec *utils.OAuthStateCodec
	nonces     NonceStore
	cipher     *utils.TokenCipher
	metrics    *observability.ReplyMetrics
	logger     *zap.Logger
	debug      bool
	now        func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(deps AccountServiceDeps) AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &accountService{
		accounts:   deps.Accounts,
		instagram:  deps.Instagram,
		stateCodec: deps.StateCodec,
		nonces:     deps.Nonces,
		cipher:     deps.Cipher,
		metrics:    deps.Metrics,
		logger:     logger,
		debug:      deps.DebugPayload,
		now:        time.Now,
	}
}

// List returns the operator's accounts and the one currently selected
func (s *accountService) List(ctx context.Context, operatorID string) (*dto.AccountsResponse, error) {
	accounts, err := s.accounts.ListByOperator(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instagram accounts: %w", err)
	}

	summaries := make([]domain.AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		summaries = append(summaries, a.Summary())
	}

	return &dto.AccountsResponse{
		Accounts: summaries,
		Selected: domain.ResolveSelected(summaries),
	}, nil
}

// Selected resolves the account operator actions apply to
func (s *accountService) Selected(ctx context.Context, operatorID string) (*domain.InstagramAccount, error) {
	accounts, err := s.accounts.ListByOperator(ctx, operatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list instagram accounts: %w", err)
	}

	selected := domain.ResolveSelected(accounts)
	if selected == nil {
		return nil, NewNotFoundError("no linked instagram account", nil)
	}
	return selected, nil
}

// SetActive selects igUserID among the operator's accounts
func (s *accountService) SetActive(ctx context.Context, operatorID, igUserID string) error {
	igUserID = strings.TrimSpace(igUserID)
	if igUserID == "" {
		return NewValidationError("ig_user_id is required")
	}

	if err := s.accounts.SetActive(ctx, operatorID, igUserID); err != nil {
		return fromRepository("instagram account not found", err)
	}

	s.logger.Info("Instagram account selected",
		zap.String("operator_id", operatorID),
		zap.String("ig_user_id", igUserID),
	)
	return nil
}

// ConnectURL issues a state token for operatorID and returns the OAuth dialog URL
func (s *accountService) ConnectURL(ctx context.Context, operatorID string) (string, error) {
	if s.stateCodec == nil {
		return "", NewConfigurationError("oauth state secret is not configured")
	}

	state, _, err := s.stateCodec.Build(operatorID, s.now())
	if err != nil {
		return "", fmt.Errorf("failed to build oauth state: %w", err)
	}

	return s.instagram.AuthURL(state), nil
}

// HandleCallback completes the OAuth flow and links the account to the
// operator the state token was issued to
func (s *accountService) HandleCallback(ctx context.Context, cb CallbackInput) (*domain.AccountSummary, error) {
	log := s.logger.With(zap.String("request_id", cb.RequestID))

	if s.debug {
		log.Info("instagram-callback start", zap.Any("meta", cb.Meta))
		log.Info("instagram-callback query payload", zap.Any("payload", instagram.CallbackPayload(cb.Query)))
	}

	summary, err := s.handleCallback(ctx, log, cb)
	if err != nil {
		if s.debug {
			log.Error("instagram-callback error", zap.String("kind", string(KindOf(err))), zap.Error(err))
		}
		return nil, err
	}

	s.metrics.Callback(ctx, "linked")
	return summary, nil
}

func (s *accountService) handleCallback(ctx context.Context, log *zap.Logger, cb CallbackInput) (*domain.AccountSummary, error) {
	if cb.Error != "" {
		s.metrics.Callback(ctx, "denied")
		msg := "instagram authorization was denied"
		if cb.ErrorDescription != "" {
			msg = fmt.Sprintf("%s: %s", msg, cb.ErrorDescription)
		}
		return nil, NewValidationError(msg)
	}

	code := strings.TrimSpace(cb.Code)
	state := strings.TrimSpace(cb.State)
	if code == "" || state == "" {
		s.metrics.Callback(ctx, "invalid_request")
		return nil, NewValidationError("missing code or state")
	}

	if s.stateCodec == nil || s.cipher == nil {
		return nil, NewConfigurationError("oauth state secret or token encryption key is not configured")
	}

	now := s.now()
	parsed := s.stateCodec.Parse(state, now)
	if !parsed.Valid {
		if s.debug {
			log.Info("instagram-callback invalid state", zap.String("reason", parsed.Reason))
		}
		s.metrics.Callback(ctx, "invalid_state")
		return nil, NewValidationError("invalid or expired oauth state")
	}

	fresh, err := s.nonces.Consume(ctx, parsed.Nonce, parsed.ExpiresAt.Sub(now))
	if err != nil {
		return nil, fmt.Errorf("failed to check oauth state: %w", err)
	}
	if !fresh {
		s.metrics.Callback(ctx, "replayed_state")
		return nil, NewValidationError("invalid or expired oauth state")
	}

	if s.debug {
		log.Info("instagram-callback token exchange start")
	}
	token, err := s.instagram.ExchangeCode(ctx, code)
	if err != nil {
		s.metrics.ExternalFailure(ctx, "instagram", "exchange_code")
		return nil, NewExternalServiceError("failed to exchange authorization code", err)
	}
	if s.debug {
		log.Info("instagram-callback token exchange ok", zap.Int("expires_in", token.ExpiresIn))
	}

	profile, err := s.instagram.FetchProfile(ctx, token.Token)
	if err != nil {
		s.metrics.ExternalFailure(ctx, "instagram", "fetch_profile")
		return nil, NewExternalServiceError("failed to load instagram profile", err)
	}
	if s.debug {
		log.Info("instagram-callback profile loaded",
			zap.String("ig_user_id", profile.ID),
			zap.String("username", profile.Username),
		)
	}

	encrypted, err := s.cipher.Encrypt(token.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	account := &domain.InstagramAccount{
		IGUserID:             profile.ID,
		OperatorID:           parsed.OperatorID,
		Username:             profile.Username,
		AccessTokenEncrypted: encrypted,
		TokenExpiresAt:       now.Add(time.Duration(token.ExpiresIn) * time.Second),
		UpdatedAt:            now,
	}
	if err := s.accounts.Upsert(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to save instagram account: %w", err)
	}

	if s.debug {
		log.Info("instagram-callback account upserted", zap.String("ig_user_id", profile.ID))
	}
	s.logger.Info("Instagram account linked",
		zap.String("operator_id", parsed.OperatorID),
		zap.String("ig_user_id", profile.ID),
	)

	summary := account.Summary()
	return &summary, nil
}

// accessToken decrypts the stored token of account
func accessToken(cipher *utils.TokenCipher, account *domain.InstagramAccount) (string, error) {
	if cipher == nil {
		return "", NewConfigurationError("token encryption key is not configured")
	}
	token, err := cipher.Decrypt(account.AccessTokenEncrypted)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt access token: %w", err)
	}
	return token, nil
}

// selectedAccount resolves the operator's account, tolerating none when allowEmpty is set
func selectedAccount(ctx context.Context, accounts AccountService, operatorID string, allowEmpty bool) (*domain.InstagramAccount, error) {
	account, err := accounts.Selected(ctx, operatorID)
	if err != nil {
		if allowEmpty && KindOf(err) == KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}
