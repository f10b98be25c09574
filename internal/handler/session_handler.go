package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	appErrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/qrcode"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

type sessionService interface {
	CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	ListSessions(ctx context.Context, query dto.SessionQuery) (*dto.SessionListResponse, error)
	RenderQR(ctx context.Context, token string, size int) ([]byte, error)
}

// SessionHandler exposes class session endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// CreateSession godoc
// @Summary Create class session
// @Description Opens a session and returns the token to encode in a QR code
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/create_session [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "Missing class name or code."))
		return
	}
	res, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// ListSessions godoc
// @Summary List class sessions
// @Tags Sessions
// @Produce json
// @Param class_id query string false "Class ID"
// @Param date query string false "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /admin/sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var query dto.SessionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	res, err := h.service.ListSessions(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// SessionQR godoc
// @Summary Session QR code
// @Description Renders the session token as a PNG QR code
// @Tags Sessions
// @Produce png
// @Param token path string true "Session token"
// @Param size query int false "Image size in pixels (128-1024)"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /admin/sessions/{token}/qr [get]
func (h *SessionHandler) SessionQR(c *gin.Context) {
	size := qrcode.DefaultSize
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "size must be an integer"))
			return
		}
		size = parsed
	}
	png, err := h.service.RenderQR(c.Request.Context(), c.Param("token"), size)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}
