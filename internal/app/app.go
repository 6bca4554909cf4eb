package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/reply-assistant/internal/config"
	"github.com/prperemyshlev/reply-assistant/internal/handler"
	"github.com/prperemyshlev/reply-assistant/internal/instagram"
	"github.com/prperemyshlev/reply-assistant/internal/llm"
	"github.com/prperemyshlev/reply-assistant/internal/reply"
	"github.com/prperemyshlev/reply-assistant/internal/repository"
	"github.com/prperemyshlev/reply-assistant/internal/service"
	"github.com/prperemyshlev/reply-assistant/internal/utils"
	"github.com/prperemyshlev/reply-assistant/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	serviceName     = "reply-assistant"
	shutdownTimeout = 5 * time.Second
)

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

type handlers struct {
	accounts *handler.AccountHandler
	replies  *handler.ReplyHandler
	admin    *handler.AdminHandler
	health   *HealthChecker
}

func NewApp(ctx context.Context, infra Infrastructure, cfg *config.Config) (*App, error) {
	logger := infra.Logger()
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(cfg.Identity.JWTSecret, cfg.Identity.Issuer)

	cipher, err := utils.NewTokenCipher(cfg.Security.TokenEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create token cipher: %w", err)
	}

	stateSecret, err := utils.DeriveStateSecret(cfg.Security.OAuthStateSecret, cfg.Security.TokenEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive oauth state secret: %w", err)
	}
	stateCodec := utils.NewOAuthStateCodec(stateSecret, cfg.Security.OAuthStateTTL.Duration)

	metrics, err := observability.NewReplyMetrics(infra.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	rules, err := reply.LoadRules(cfg.Reply.IntentRulesPath)
	if err != nil {
		return nil, err
	}

	drafter, writer, err := newLLM(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	igClient := instagram.NewClient(instagram.Config{
		AppID:        cfg.Meta.AppID,
		AppSecret:    cfg.Meta.AppSecret,
		RedirectURI:  cfg.Meta.RedirectURI,
		GraphVersion: cfg.Meta.GraphVersion,
		Timeout:      cfg.Meta.HTTPTimeout.Duration,
		MaxRetries:   cfg.Meta.MaxRetries,
		LogComments:  cfg.Enabled(cfg.Debug.InstagramComments),
	}, logger)

	accountService := service.NewAccountService(service.AccountServiceDeps{
		Accounts:     repos.Account,
		Instagram:    igClient,
		StateCodec:   stateCodec,
		Nonces:       service.NewStateNonceStore(infra.Redis()),
		Cipher:       cipher,
		Metrics:      metrics,
		Logger:       logger,
		DebugPayload: cfg.Enabled(cfg.Debug.InstagramCallbackPayload),
	})
	instagramService := service.NewInstagramService(accountService, igClient, cipher, metrics)
	promptService := service.NewPromptService(repos.PromptTemplate, repos.PromptAssignment, repos.Account, writer, metrics, logger)
	adContextService := service.NewAdContextService(repos.AdContext)
	draftService := service.NewDraftService(service.DraftServiceDeps{
		Accounts:   accountService,
		Prompts:    promptService,
		AdContexts: repos.AdContext,
		Drafts:     repos.Draft,
		Classifier: reply.NewClassifier(rules),
		Drafter:    drafter,
		Instagram:  igClient,
		Cipher:     cipher,
		Metrics:    metrics,
		Logger:     logger,
	})

	h := handlers{
		accounts: handler.NewAccountHandler(accountService, instagramService, cfg.Server.DashboardURL),
		replies:  handler.NewReplyHandler(accountService, promptService, draftService),
		admin:    handler.NewAdminHandler(adContextService, promptService),
		health:   NewHealthChecker(infra),
	}

	router := gin.New()
	if err := router.SetTrustedProxies(trustedProxies(cfg.Server.TrustedProxies)); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS))

	setupRoutes(router, cfg, h, jwtManager, service.NewRateLimiter(infra.Redis()), infra.MetricsHandler(), logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}, nil
}

// newLLM builds the drafter and prompt writer. Both are nil when the provider has no API key.
func newLLM(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*reply.PromptDrafter, service.OperationalPromptWriter, error) {
	logIO := cfg.Enabled(cfg.LLM.LogPromptIO)

	draftGen, err := llm.NewGenerator(ctx, cfg.LLM, llm.PurposeDraft)
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn("LLM provider is not configured, prompt drafts and prompt generation are disabled",
			zap.String("provider", cfg.LLM.Provider),
		)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	promptGen, err := llm.NewGenerator(ctx, cfg.LLM, llm.PurposeOperationalPrompt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	return reply.NewPromptDrafter(draftGen, logger, logIO),
		llm.NewOperationalPromptGenerator(promptGen, logger, logIO),
		nil
}

// trustedProxies drops blank entries; nil makes gin use the peer address only
func trustedProxies(configured []string) []string {
	var proxies []string
	for _, p := range configured {
		if p = strings.TrimSpace(p); p != "" {
			proxies = append(proxies, p)
		}
	}
	return proxies
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	jwtManager *utils.JWTManager,
	rateLimiter *service.RateLimiter,
	metricsHandler http.Handler,
	logger *zap.Logger,
) {
	limit := func(keyFunc func(*gin.Context) string) gin.HandlerFunc {
		return handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, keyFunc, logger)
	}

	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", h.health.Handler)

	api := router.Group("/api/v1")
	{
		api.GET("/instagram/callback", limit(handler.IPBasedKey), h.accounts.Callback)

		operator := api.Group("", handler.AuthMiddleware(jwtManager))
		{
			ig := operator.Group("/instagram")
			ig.GET("/accounts", h.accounts.List)
			ig.POST("/accounts/select", h.accounts.Select)
			ig.GET("/connect", h.accounts.Connect)
			ig.GET("/posts", h.accounts.Posts)
			ig.GET("/posts/:postId/comments", h.accounts.Comments)

			operator.GET("/prompts/available", h.replies.AvailablePrompts)

			replies := operator.Group("/replies")
			replies.POST("/draft", limit(handler.OperatorKey), h.replies.Draft)
			replies.POST("/publish", h.replies.Publish)
			replies.GET("/history", h.replies.History)
		}

		admin := api.Group("/admin", handler.AuthMiddleware(jwtManager), handler.AdminMiddleware(cfg.Admin.UserIDs))
		{
			admin.GET("/ad-contexts", h.admin.ListAdContexts)
			admin.POST("/ad-contexts", h.admin.CreateAdContext)
			admin.PUT("/ad-contexts/:id", h.admin.UpdateAdContext)
			admin.DELETE("/ad-contexts/:id", h.admin.DeleteAdContext)

			admin.GET("/prompts", h.admin.ListPrompts)
			admin.POST("/prompts", h.admin.CreatePrompt)
			admin.POST("/prompts/generate", limit(handler.OperatorKey), h.admin.GeneratePrompt)
			admin.PUT("/prompts/:id", h.admin.UpdatePrompt)
			admin.DELETE("/prompts/:id", h.admin.ArchivePrompt)

			admin.GET("/prompt-assignments", h.admin.ListAssignments)
			admin.POST("/prompt-assignments", h.admin.GrantPrompt)
			admin.DELETE("/prompt-assignments/:id", h.admin.RevokeAssignment)

			admin.GET("/instagram-users", h.admin.SuggestUsers)
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
			zap.String("env", a.config.Env),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Infrastructure closes only after the server has drained.
	serverErr := a.server.Shutdown(ctx)
	infraErr := a.infra.Shutdown(ctx)

	if err := errors.Join(serverErr, infraErr); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
