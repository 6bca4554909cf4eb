package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/reply-assistant/internal/domain"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/service"
)

// ReplyHandler handles prompt listing, drafting and publishing for operators
type ReplyHandler struct {
	accounts service.AccountService
	prompts  service.PromptService
	drafts   service.DraftService
}

// NewReplyHandler creates a new reply handler
func NewReplyHandler(accounts service.AccountService, prompts service.PromptService, drafts service.DraftService) *ReplyHandler {
	return &ReplyHandler{
		accounts: accounts,
		prompts:  prompts,
		drafts:   drafts,
	}
}

// AvailablePrompts handles listing prompts granted to the active account
// @Summary List prompts available to the active account
// @Description Prompt bodies are never returned.
// @Tags prompts
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AvailablePromptsResponse
// @Router /prompts/available [get]
func (h *ReplyHandler) AvailablePrompts(c *gin.Context) {
	ctx := c.Request.Context()
	response := dto.AvailablePromptsResponse{Prompts: []domain.PromptSummary{}}

	account, err := h.accounts.Selected(ctx, OperatorID(c))
	if err != nil {
		if service.KindOf(err) == service.KindNotFound {
			c.JSON(http.StatusOK, response)
			return
		}
		respondError(c, err)
		return
	}
	response.IGUserID = account.IGUserID

	prompts, err := h.prompts.AvailablePrompts(ctx, account.IGUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	for _, p := range prompts {
		response.Prompts = append(response.Prompts, p.Summary())
	}

	c.JSON(http.StatusOK, response)
}

// Draft handles reply draft generation
// @Summary Generate a reply draft
// @Tags replies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.DraftRequest true "Comment to answer"
// @Success 200 {object} dto.DraftResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /replies/draft [post]
func (h *ReplyHandler) Draft(c *gin.Context) {
	var req dto.DraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	draft, err := h.drafts.Generate(c.Request.Context(), OperatorID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DraftResponse{Draft: *draft})
}

// Publish handles publishing a reply
// @Summary Publish a reply to a comment
// @Tags replies
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PublishRequest true "Reply to publish"
// @Success 200 {object} dto.PublishResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /replies/publish [post]
func (h *ReplyHandler) Publish(c *gin.Context) {
	var req dto.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.drafts.Publish(c.Request.Context(), OperatorID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// History handles listing recent drafts
// @Summary List recent drafts of the active account
// @Tags replies
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.HistoryResponse
// @Router /replies/history [get]
func (h *ReplyHandler) History(c *gin.Context) {
	drafts, err := h.drafts.History(c.Request.Context(), OperatorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.HistoryResponse{Drafts: drafts})
}
