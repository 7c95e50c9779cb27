// Package httpapi exposes the identity services as a JSON REST API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/socialid/internal/common"
	"github.com/dmitrijs2005/socialid/internal/logging"
	"github.com/dmitrijs2005/socialid/internal/server/metrics"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/services"
	"github.com/dmitrijs2005/socialid/internal/server/views"
	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

// SocialMedia is the service API the handlers depend on.
type SocialMedia interface {
	Verify(ctx context.Context, req services.VerifyRequest) (*models.Credential, error)
	Get(ctx context.Context, id string) (*models.Credential, error)
	List(ctx context.Context, f services.ListFilter) ([]*models.Credential, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]*models.Credential, error)
	Delete(ctx context.Context, userID, id string) error
}

type Handler struct {
	social    SocialMedia
	logger    logging.Logger
	jwtSecret []byte
}

func NewHandler(social SocialMedia, logger logging.Logger, secretKey string) *Handler {
	return &Handler{social: social, logger: logger.With("module", "http_api"), jwtSecret: []byte(secretKey)}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), metrics.Gin())
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.POST("/user-social-medias/verify", h.Verify)
	r.GET("/user-social-medias", h.List)
	r.GET("/user-social-medias/:id", h.Get)
	r.DELETE("/user-social-medias/:id", h.requireToken, h.Delete)

	me := r.Group("/me", h.requireToken)
	me.GET("/user-social-medias", h.ListMine)
}

type verifyRequest struct {
	PublicKey string `json:"publicKey" binding:"required"`
	Platform  string `json:"platform" binding:"required"`
	Username  string `json:"username" binding:"required"`
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "BadRequest", "invalid request")
		return
	}

	platform, _ := models.ParsePlatform(req.Platform)
	cred, err := h.social.Verify(c.Request.Context(), services.VerifyRequest{
		PublicKey: req.PublicKey,
		Platform:  platform,
		Username:  req.Username,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, views.NewCredential(cred))
}

func (h *Handler) Get(c *gin.Context) {
	cred, err := h.social.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views.NewCredential(cred))
}

// Delete removes a credential owned by the token holder.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.social.Delete(c.Request.Context(), c.GetString(userIDKey), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List accepts flat query parameters (userId, platform, page, limit) or a
// JSON "filter" parameter of the form
// {"where":{"userId":..,"platform":..},"page":..,"limit":..}.
// Flat parameters win.
func (h *Handler) List(c *gin.Context) {
	f := filterFromJSON(c.Query("filter"))
	if v := c.Query("userId"); v != "" {
		f.UserID = v
	}
	if v := c.Query("platform"); v != "" {
		f.Platform = models.Platform(v)
	}
	if v, ok := queryInt(c, "page"); ok {
		f.Page = v
	}
	if v, ok := queryInt(c, "limit"); ok {
		f.Limit = v
	}
	if f.Platform != "" {
		f.Platform, _ = models.ParsePlatform(f.Platform.String())
	}

	creds, err := h.social.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views.NewCredentials(creds))
}

func (h *Handler) ListMine(c *gin.Context) {
	page, _ := queryInt(c, "page")
	limit, _ := queryInt(c, "limit")

	creds, err := h.social.ListByUser(c.Request.Context(), c.GetString(userIDKey), page, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views.NewCredentials(creds))
}

func filterFromJSON(raw string) services.ListFilter {
	var f services.ListFilter
	if raw == "" || !gjson.Valid(raw) {
		return f
	}
	res := gjson.Parse(raw)
	f.UserID = res.Get("where.userId").String()
	f.Platform = models.Platform(res.Get("where.platform").String())
	f.Page = int(res.Get("page").Int())
	f.Limit = int(res.Get("limit").Int())
	return f
}

func queryInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return 0, false
	}
	return v, true
}

// fail maps service errors to HTTP statuses. The body always carries the
// error kind name so clients can tell the failures apart.
func (h *Handler) fail(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrPlatformNotFound), errors.Is(err, common.ErrorNotFound):
		code = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidPublicKey):
		code = http.StatusBadRequest
	case errors.Is(err, common.ErrPlatformVerificationFailed):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrIdentityMismatch):
		code = http.StatusForbidden
	case errors.Is(err, common.ErrAlreadyVerified), errors.Is(err, common.ErrCredentialConflict):
		code = http.StatusConflict
	case errors.Is(err, common.ErrUpstreamTimeout):
		code = http.StatusGatewayTimeout
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		code = http.StatusUnauthorized
	}

	if code == http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), err.Error(), "path", c.FullPath())
		writeError(c, code, "Internal", "internal error")
		return
	}
	writeError(c, code, common.ErrorName(err), err.Error())
}

func writeError(c *gin.Context, code int, name, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": gin.H{"name": name, "message": message}})
}
