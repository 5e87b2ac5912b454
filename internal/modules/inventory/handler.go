package inventory

import (
	"errors"
	"net/http"
	"time"

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
	g := r.Group("/inventory")
	{
		g.POST("/stock-in", h.StockIn)
		g.POST("/stock-out", h.StockOut)
		g.GET("/transactions", h.ListTransactions)
		g.GET("/transactions/:id", h.GetTransaction)
		g.GET("/balances", h.ListBalances)
		g.GET("/balances/:materialId", h.GetBalance)
		g.GET("/usage", h.Usage)
	}
}

func (h *Handler) StockIn(c *gin.Context) {
	var req StockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.StockIn(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, t)
}

func (h *Handler) StockOut(c *gin.Context) {
	var req StockOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.StockOut(c.Request.Context(), c.GetString("user_id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, t)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	t, err := h.service.GetTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, t)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	f := repository.TransactionFilter{
		Type:       q.Type,
		MaterialID: q.MaterialID,
		ClientID:   q.ClientID,
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

	items, total, err := h.service.ListTransactions(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, response.NewPagination(f.Page, f.Limit, total))
}

func (h *Handler) GetBalance(c *gin.Context) {
	b, err := h.service.GetBalance(c.Request.Context(), c.Param("materialId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, b)
}

func (h *Handler) ListBalances(c *gin.Context) {
	lowOnly := c.Query("lowStock") == "true"
	balances, err := h.service.ListBalances(c.Request.Context(), lowOnly)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, balances)
}

func (h *Handler) Usage(c *gin.Context) {
	var q UsageQuery
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

	rows, err := h.service.Usage(c.Request.Context(), from, to)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, rows)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMaterialNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal server error")
	}
}
