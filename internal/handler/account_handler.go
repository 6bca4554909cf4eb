package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/reply-assistant/internal/dto"
	"github.com/prperemyshlev/reply-assistant/internal/instagram"
	"github.com/prperemyshlev/reply-assistant/internal/service"
)

// AccountHandler handles Instagram account linking and media reads
type AccountHandler struct {
	accounts     service.AccountService
	media        service.InstagramService
	dashboardURL string
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts service.AccountService, media service.InstagramService, dashboardURL string) *AccountHandler {
	return &AccountHandler{
		accounts:     accounts,
		media:        media,
		dashboardURL: dashboardURL,
	}
}

// List handles listing the operator's linked accounts
// @Summary List linked Instagram accounts
// @Tags instagram
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.AccountsResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /instagram/accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	response, err := h.accounts.List(c.Request.Context(), OperatorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Select handles choosing the active account
// @Summary Select the active Instagram account
// @Tags instagram
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.SelectAccountRequest true "Account to select"
// @Success 200 {object} dto.AccountsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /instagram/accounts/select [post]
func (h *AccountHandler) Select(c *gin.Context) {
	var req dto.SelectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.accounts.SetActive(ctx, OperatorID(c), req.IGUserID); err != nil {
		respondError(c, err)
		return
	}

	response, err := h.accounts.List(ctx, OperatorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Connect handles starting the OAuth flow
// @Summary Start Instagram OAuth
// @Description Redirects to the Meta OAuth dialog. With format=json the URL is returned instead.
// @Tags instagram
// @Security BearerAuth
// @Param format query string false "json to receive the URL"
// @Success 302
// @Success 200 {object} dto.ConnectResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /instagram/connect [get]
func (h *AccountHandler) Connect(c *gin.Context) {
	authURL, err := h.accounts.ConnectURL(c.Request.Context(), OperatorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, dto.ConnectResponse{URL: authURL})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

// Callback handles the OAuth redirect from Meta
// @Summary Complete Instagram OAuth
// @Tags instagram
// @Param code query string true "Authorization code"
// @Param state query string true "Signed state token"
// @Success 302
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /instagram/callback [get]
func (h *AccountHandler) Callback(c *gin.Context) {
	requestID := RequestID(c)
	code := c.Query("code")
	state := c.Query("state")

	_, err := h.accounts.HandleCallback(c.Request.Context(), service.CallbackInput{
		RequestID:        requestID,
		Code:             code,
		State:            state,
		Error:            c.Query("error"),
		ErrorDescription: c.Query("error_description"),
		Query:            c.Request.URL.Query(),
		Meta:             instagram.BuildCallbackDebugMeta(requestID, c.Request, code, state, time.Now()),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Redirect(http.StatusFound, h.connectedURL())
}

func (h *AccountHandler) connectedURL() string {
	u, err := url.Parse(h.dashboardURL)
	if err != nil {
		return h.dashboardURL
	}
	q := u.Query()
	q.Set("connected", "1")
	u.RawQuery = q.Encode()
	return u.String()
}

// Posts handles listing media of the active account
// @Summary List posts of the active account
// @Tags instagram
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.PostsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /instagram/posts [get]
func (h *AccountHandler) Posts(c *gin.Context) {
	response, err := h.media.ListPosts(c.Request.Context(), OperatorID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Comments handles listing comments of a post
// @Summary List comments of a post
// @Tags instagram
// @Security BearerAuth
// @Produce json
// @Param postId path string true "Post ID"
// @Success 200 {object} dto.CommentsResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /instagram/posts/{postId}/comments [get]
func (h *AccountHandler) Comments(c *gin.Context) {
	response, err := h.media.ListComments(c.Request.Context(), OperatorID(c), c.Param("postId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
