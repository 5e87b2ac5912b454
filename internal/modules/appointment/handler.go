package appointment

import (
	"errors"
	"net/http"
	"time"

	"fieldops/internal/otp"
	"fieldops/internal/pkg/response"
	"fieldops/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/appointments")
	{
		g.POST("", h.Schedule)
		g.GET("", h.List)
		g.GET("/dashboard/stats", h.Stats)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.POST("/:id/send-otp", h.SendOTP)
		g.POST("/:id/resend-otp", h.ResendOTP)
		g.POST("/:id/verify-otp", h.VerifyOTP)
		g.POST("/:id/feedback", h.SubmitFeedback)
		g.POST("/:id/cancel", h.Cancel)
	}
}

func (h *Handler) Schedule(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Schedule(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, a)
}

func (h *Handler) Get(c *gin.Context) {
	a, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, a)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	f := repository.AppointmentFilter{
		Status:     q.Status,
		ClientID:   q.ClientID,
		EngineerID: q.EngineerID,
		Page:       q.Page,
		Limit:      q.Limit,
	}
	if q.From != "" {
		t, err := time.Parse(time.RFC3339, q.From)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid from date")
			return
		}
		f.From = &t
	}
	if q.To != "" {
		t, err := time.Parse(time.RFC3339, q.To)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid to date")
			return
		}
		f.To = &t
	}

	items, total, err := h.service.List(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, response.NewPagination(f.Page, f.Limit, total))
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, stats)
}

func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, a)
}

func (h *Handler) SendOTP(c *gin.Context) {
	a, err := h.service.SendOTP(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, a)
}

func (h *Handler) ResendOTP(c *gin.Context) {
	a, err := h.service.ResendOTP(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, a)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.VerifyOTP(c.Request.Context(), c.Param("id"), req.OTP)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, a)
}

func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	a, err := h.service.SubmitFeedback(c.Request.Context(), c.Param("id"), req.Feedback)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, a)
}

func (h *Handler) Cancel(c *gin.Context) {
	a, err := h.service.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, a)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var rateLimited *otp.RateLimitedError
	if errors.As(err, &rateLimited) {
		response.RateLimited(c, "otp resend cooldown active", rateLimited.RetryAfterSeconds())
		return
	}

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrClientNotFound),
		errors.Is(err, ErrEngineerNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrConflict),
		errors.Is(err, otp.ErrAlreadyVerified):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, otp.ErrExpired):
		response.Error(c, http.StatusGone, err.Error())
	case errors.Is(err, otp.ErrInvalidCode),
		errors.Is(err, otp.ErrAttemptsExceeded),
		errors.Is(err, otp.ErrNotIssued),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNoDestination):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal server error")
	}
}
