package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/service"
)

// AdminHandler handles ad context, prompt template and assignment administration
type AdminHandler struct {
	adContexts service.AdContextService
	prompts    service.PromptService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adContexts service.AdContextService, prompts service.PromptService) *AdminHandler {
	return &AdminHandler{
		adContexts: adContexts,
		prompts:    prompts,
	}
}

func queryBool(c *gin.Context, key string) bool {
	v, _ := strconv.ParseBool(c.Query(key))
	return v
}

// ListAdContexts handles listing ad contexts
// @Summary List ad contexts
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param ig_user_id query string false "Target account"
// @Success 200 {object} dto.AdContextsResponse
// @Failure 403 {object} dto.ErrorResponse
// @Router /admin/ad-contexts [get]
func (h *AdminHandler) ListAdContexts(c *gin.Context) {
	contexts, err := h.adContexts.List(c.Request.Context(), c.Query("ig_user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AdContextsResponse{AdContexts: contexts})
}

// CreateAdContext handles creating an ad context
// @Summary Create an ad context
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.AdContextRequest true "Ad context"
// @Success 201 {object} domain.AdContext
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/ad-contexts [post]
func (h *AdminHandler) CreateAdContext(c *gin.Context) {
	var req dto.AdContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ac, err := h.adContexts.Create(c.Request.Context(), OperatorID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ac)
}

// UpdateAdContext handles replacing an ad context
// @Summary Update an ad context
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Ad context ID"
// @Param request body dto.AdContextRequest true "Ad context"
// @Success 200 {object} domain.AdContext
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /admin/ad-contexts/{id} [put]
func (h *AdminHandler) UpdateAdContext(c *gin.Context) {
	var req dto.AdContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ac, err := h.adContexts.Update(c.Request.Context(), OperatorID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ac)
}

// DeleteAdContext handles deleting an ad context
// @Router /admin/ad-contexts/{id} [delete]
func (h *AdminHandler) DeleteAdContext(c *gin.Context) {
	if err := h.adContexts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Ad context deleted"})
}

// ListPrompts handles listing prompt templates
// @Summary List prompt templates
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param include_archived query bool false "Include archived templates"
// @Success 200 {object} dto.PromptTemplatesResponse
// @Router /admin/prompts [get]
func (h *AdminHandler) ListPrompts(c *gin.Context) {
	templates, err := h.prompts.ListTemplates(c.Request.Context(), queryBool(c, "include_archived"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PromptTemplatesResponse{Prompts: templates})
}

// CreatePrompt handles creating a prompt template
// @Summary Create a prompt template
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PromptTemplateRequest true "Prompt template"
// @Success 201 {object} dto.PromptTemplateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /admin/prompts [post]
func (h *AdminHandler) CreatePrompt(c *gin.Context) {
	var req dto.PromptTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	t, err := h.prompts.CreateTemplate(c.Request.Context(), OperatorID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.PromptTemplateResponse{Prompt: *t})
}

// UpdatePrompt handles editing a prompt template
// @Router /admin/prompts/{id} [put]
func (h *AdminHandler) UpdatePrompt(c *gin.Context) {
	var req dto.PromptTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	t, err := h.prompts.UpdateTemplate(c.Request.Context(), OperatorID(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PromptTemplateResponse{Prompt: *t})
}

// ArchivePrompt handles deleting a prompt template. Templates are archived, not removed.
// @Router /admin/prompts/{id} [delete]
func (h *AdminHandler) ArchivePrompt(c *gin.Context) {
	if err := h.prompts.ArchiveTemplate(c.Request.Context(), OperatorID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Prompt template archived"})
}

// GeneratePrompt handles LLM generation of an operational prompt
// @Summary Generate and store an operational prompt
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.GeneratePromptRequest true "Product information"
// @Success 201 {object} dto.PromptTemplateResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 429 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /admin/prompts/generate [post]
func (h *AdminHandler) GeneratePrompt(c *gin.Context) {
	var req dto.GeneratePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	t, err := h.prompts.GenerateTemplate(c.Request.Context(), OperatorID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.PromptTemplateResponse{Prompt: *t})
}

// ListAssignments handles listing prompt assignments
// @Summary List prompt assignments
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param ig_user_id query string false "Target account"
// @Param prompt_template_id query string false "Template"
// @Param include_revoked query bool false "Include revoked assignments"
// @Success 200 {object} dto.AssignmentsResponse
// @Router /admin/prompt-assignments [get]
func (h *AdminHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.prompts.ListAssignments(
		c.Request.Context(),
		c.Query("ig_user_id"),
		c.Query("prompt_template_id"),
		queryBool(c, "include_revoked"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AssignmentsResponse{Assignments: assignments})
}

// GrantPrompt handles granting a template to accounts
// @Summary Grant a prompt template
// @Description Targets are either ig_user_ids or usernames, never both.
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.GrantPromptRequest true "Grant"
// @Success 201 {object} dto.GrantResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /admin/prompt-assignments [post]
func (h *AdminHandler) GrantPrompt(c *gin.Context) {
	var req dto.GrantPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	granted, err := h.prompts.GrantPrompt(c.Request.Context(), OperatorID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.GrantResponse{Granted: granted})
}

// RevokeAssignment handles revoking a prompt assignment
// @Router /admin/prompt-assignments/{id} [delete]
func (h *AdminHandler) RevokeAssignment(c *gin.Context) {
	if err := h.prompts.RevokeAssignment(c.Request.Context(), OperatorID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Message: "Prompt assignment revoked"})
}

// SuggestUsers handles username prefix suggestions
// @Summary Suggest Instagram usernames
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param q query string true "Username prefix"
// @Success 200 {object} dto.UserSuggestionsResponse
// @Router /admin/instagram-users [get]
func (h *AdminHandler) SuggestUsers(c *gin.Context) {
	suggestions, err := h.prompts.SuggestUsernames(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserSuggestionsResponse{Suggestions: suggestions})
}
