package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/smallbiznis/valora-connect/internal/domain/integration"
	itemssvc "github.com/smallbiznis/valora-connect/internal/service/items"
	oauthsvc "github.com/smallbiznis/valora-connect/internal/service/oauth"
)

// closeWindowPage tells the popup that opened the authorization flow to
// close itself once the callback has completed.
const closeWindowPage = `<html>
    <script>
        window.close();
    </script>
</html>
`

// IntegrationHandler exposes the connector's boundary operations as HTTP
// endpoints.
type IntegrationHandler struct {
	OAuth  *oauthsvc.Orchestrator
	Items  *itemssvc.Service
	logger *zap.Logger
}

// NewIntegrationHandler creates the handler set.
func NewIntegrationHandler(oauth *oauthsvc.Orchestrator, items *itemssvc.Service, logger *zap.Logger) *IntegrationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrationHandler{OAuth: oauth, Items: items, logger: logger}
}

// Authorize begins an authorization attempt and returns the URL the client
// should open in a popup.
func (h *IntegrationHandler) Authorize(c *gin.Context) {
	provider, ok := providerParam(c)
	if !ok {
		return
	}

	userID := strings.TrimSpace(c.Query("user_id"))
	orgID := strings.TrimSpace(c.Query("org_id"))
	if userID == "" || orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "user_id and org_id are required."})
		return
	}

	authorizeURL, err := h.OAuth.Authorize(c.Request.Context(), provider, userID, orgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorization_url": authorizeURL})
}

// Callback handles the provider redirect, completes the token exchange, and
// returns a page that closes the popup.
func (h *IntegrationHandler) Callback(c *gin.Context) {
	provider, ok := providerParam(c)
	if !ok {
		return
	}

	params := oauthsvc.CallbackParams{
		Code:             c.Query("code"),
		State:            c.Query("state"),
		ErrorCode:        c.Query("error"),
		ErrorDescription: c.Query("error_description"),
	}
	if err := h.OAuth.HandleCallback(c.Request.Context(), provider, params); err != nil {
		h.respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(closeWindowPage))
}

// Credentials hands out the exchanged credentials exactly once.
func (h *IntegrationHandler) Credentials(c *gin.Context) {
	provider, ok := providerParam(c)
	if !ok {
		return
	}

	var req struct {
		UserID string `form:"user_id" json:"user_id"`
		OrgID  string `form:"org_id" json:"org_id"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.OrgID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "user_id and org_id are required."})
		return
	}

	creds, err := h.OAuth.RetrieveCredentials(c.Request.Context(), provider, req.UserID, req.OrgID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

// LoadItems fetches and normalizes the provider's records using the supplied
// credentials. Partial results are returned with a warning when independent
// branches failed.
func (h *IntegrationHandler) LoadItems(c *gin.Context) {
	provider, ok := providerParam(c)
	if !ok {
		return
	}

	var req struct {
		Credentials integration.Credentials `json:"credentials"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid payload."})
		return
	}

	items, err := h.Items.LoadItems(c.Request.Context(), provider, &req.Credentials)
	if err != nil && len(items) == 0 {
		h.respondError(c, err)
		return
	}

	resp := gin.H{"items": items}
	if items == nil {
		resp["items"] = []integration.Item{}
	}
	if err != nil {
		resp["warning"] = "some collections could not be fetched"
		h.logger.Warn("partial item load", zap.String("provider", string(provider)), zap.Error(err))
	}
	c.JSON(http.StatusOK, resp)
}

func providerParam(c *gin.Context) (integration.Provider, bool) {
	provider := integration.Provider(strings.ToLower(strings.TrimSpace(c.Param("provider"))))
	if !provider.Valid() {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_provider", "error_description": "Unsupported integration provider."})
		return "", false
	}
	return provider, true
}

func (h *IntegrationHandler) respondError(c *gin.Context, err error) {
	var exchErr *integration.ExchangeError
	switch {
	case errors.Is(err, integration.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
	case errors.Is(err, integration.ErrStateMismatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": "state_mismatch", "error_description": "State does not match."})
	case errors.Is(err, integration.ErrProviderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown_provider", "error_description": "Provider is not configured."})
	case errors.Is(err, integration.ErrCredentialsNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "credentials_not_found", "error_description": "No credentials found."})
	case errors.As(err, &exchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "exchange_failed", "error_description": exchErr.Error()})
	default:
		h.logger.Error("unhandled integration error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error", "error_description": "Unexpected error."})
	}
}
