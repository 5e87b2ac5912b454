package directory

import (
	"errors"
	"net/http"

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
	clients := r.Group("/clients")
	{
		clients.POST("", h.CreateClient)
		clients.GET("", h.ListClients)
		clients.GET("/:id", h.GetClient)
		clients.PUT("/:id", h.UpdateClient)
		clients.DELETE("/:id", h.DeleteClient)
	}

	types := r.Group("/client-types")
	{
		types.POST("", h.CreateClientType)
		types.GET("", h.ListClientTypes)
	}

	engineers := r.Group("/engineers")
	{
		engineers.POST("", h.CreateEngineer)
		engineers.GET("", h.ListEngineers)
		engineers.GET("/:id", h.GetEngineer)
		engineers.PUT("/:id", h.UpdateEngineer)
		engineers.DELETE("/:id", h.DeleteEngineer)
	}

	materials := r.Group("/materials")
	{
		materials.POST("", h.CreateMaterial)
		materials.GET("", h.ListMaterials)
		materials.GET("/:id", h.GetMaterial)
		materials.PUT("/:id", h.UpdateMaterial)
		materials.DELETE("/:id", h.DeleteMaterial)
	}
}

func (h *Handler) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.service.CreateClient(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, client)
}

func (h *Handler) GetClient(c *gin.Context) {
	client, err := h.service.GetClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, client)
}

func (h *Handler) ListClients(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}
	items, total, err := h.service.ListClients(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, response.NewPagination(f.Page, f.Limit, total))
}

func (h *Handler) UpdateClient(c *gin.Context) {
	var req UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.service.UpdateClient(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, client)
}

func (h *Handler) DeleteClient(c *gin.Context) {
	if err := h.service.DeleteClient(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateClientType(c *gin.Context) {
	var req CreateClientTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	t, err := h.service.CreateClientType(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, t)
}

func (h *Handler) ListClientTypes(c *gin.Context) {
	types, err := h.service.ListClientTypes(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, types)
}

func (h *Handler) CreateEngineer(c *gin.Context) {
	var req CreateEngineerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.service.CreateEngineer(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, e)
}

func (h *Handler) GetEngineer(c *gin.Context) {
	e, err := h.service.GetEngineer(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, e)
}

func (h *Handler) ListEngineers(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}
	items, total, err := h.service.ListEngineers(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, response.NewPagination(f.Page, f.Limit, total))
}

func (h *Handler) UpdateEngineer(c *gin.Context) {
	var req UpdateEngineerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	e, err := h.service.UpdateEngineer(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, e)
}

func (h *Handler) DeleteEngineer(c *gin.Context) {
	if err := h.service.DeleteEngineer(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateMaterial(c *gin.Context) {
	var req CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.CreateMaterial(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusCreated, m)
}

func (h *Handler) GetMaterial(c *gin.Context) {
	m, err := h.service.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, m)
}

func (h *Handler) ListMaterials(c *gin.Context) {
	f, ok := h.bindFilter(c)
	if !ok {
		return
	}
	items, total, err := h.service.ListMaterials(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Paginated(c, http.StatusOK, items, response.NewPagination(f.Page, f.Limit, total))
}

func (h *Handler) UpdateMaterial(c *gin.Context) {
	var req UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.UpdateMaterial(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	response.Data(c, http.StatusOK, m)
}

func (h *Handler) DeleteMaterial(c *gin.Context) {
	if err := h.service.DeleteMaterial(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) bindFilter(c *gin.Context) (repository.DirectoryFilter, bool) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return repository.DirectoryFilter{}, false
	}
	return repository.DirectoryFilter{
		Search:     q.Search,
		ActiveOnly: q.ActiveOnly,
		Page:       q.Page,
		Limit:      q.Limit,
	}, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate):
		response.Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "internal server error")
	}
}
