package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"wahook/internal/constants"
	"wahook/internal/logger"
	"wahook/internal/session"
	"wahook/pkg/errors"
	"wahook/pkg/metrics"
	"wahook/pkg/models"
)

type Handler struct {
	session session.Session
	logger  logger.Logger
	now     func() time.Time
}

func NewHandler(s session.Session, log logger.Logger) *Handler {
	return &Handler{
		session: s,
		logger:  log,
		now:     time.Now,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/send", h.Send)
	router.GET("/status", h.Status)
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	status := errors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	} else {
		h.logger.DebugwCtx(c.Request.Context(), "Request rejected", "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(status, errors.ToErrorResponse(err))
}

func (h *Handler) Send(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxRequestBodyBytes)

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleError(c, errors.ErrInvalidJSON.WithCause(err))
		return
	}

	if req.To == "" || req.Message == "" {
		h.HandleError(c, errors.ErrMissingFields)
		return
	}

	msgType := req.Type
	if msgType == "" {
		msgType = MessageTypeText
	}

	var payload session.Payload
	switch msgType {
	case MessageTypeText:
		payload = session.TextPayload{Text: req.Message}
	case MessageTypeLocation:
		if req.Latitude == nil || req.Longitude == nil {
			h.HandleError(c, errors.ErrLocationCoords)
			return
		}
		payload = session.LocationPayload{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Name:      req.Name,
			Address:   req.Address,
		}
	default:
		h.HandleError(c, errors.ErrUnsupportedType)
		return
	}

	recipient := NormalizeRecipient(req.To)
	receipt, err := h.session.Send(c.Request.Context(), recipient, payload)
	if err != nil {
		metrics.GatewaySendsTotal.WithLabelValues(msgType, "error").Inc()
		h.HandleError(c, errors.ErrSendFailed.WithCause(err).WithDetails(err.Error()))
		return
	}

	metrics.GatewaySendsTotal.WithLabelValues(msgType, "success").Inc()
	h.logger.InfowCtx(c.Request.Context(), "Message sent",
		"to", recipient,
		"type", msgType,
		"message_id", receipt.MessageID,
	)

	c.JSON(http.StatusOK, SendResponse{
		Success:   true,
		MessageID: receipt.MessageID,
		Timestamp: receipt.Timestamp,
	})
}

func (h *Handler) Status(c *gin.Context) {
	state := SessionConnecting
	if h.session.Ready() {
		state = SessionConnected
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status:    StatusRunning,
		WhatsApp:  state,
		Timestamp: h.now().UTC().Format(models.ForwardTimeLayout),
	})
}

func (h *Handler) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errors.ToErrorResponse(errors.ErrNotFound))
}
