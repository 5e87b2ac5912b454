package workervisit

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
	g := r.Group("/worker-visits")
	{
		g.POST("", h.Create)
		g.GET("", h.List)
		g.GET("/summary", h.Summary)
		g.GET("/:id", h.Get)
		g.POST("/:id/resend-otp", h.ResendOTP)
		g.POST("/:id/submit-count", h.SubmitCount)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, v)
}

func (h *Handler) Get(c *gin.Context) {
	v, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, v)
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	f := repository.WorkerVisitFilter{
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

func (h *Handler) Summary(c *gin.Context) {
	var q SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	from, err := time.Parse(time.RFC3339, q.From)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid from date")
		return
	}
	to, err := time.Parse(time.RFC3339, q.To)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid to date")
		return
	}

	rows, err := h.service.SummaryByClient(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, rows)
}

func (h *Handler) ResendOTP(c *gin.Context) {
	v, err := h.service.ResendOTP(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, v)
}

func (h *Handler) SubmitCount(c *gin.Context) {
	var req SubmitCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	v, err := h.service.SubmitCount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, v)
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
		errors.Is(err, otp.ErrNotIssued),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrNoDestination):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal server error")
	}
}
