package handlers

import (
	"net/http"
	"strconv"

	"github.com/formlab/form-service/internal/repositories"
	"github.com/formlab/form-service/internal/services"
	"github.com/formlab/form-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	BaseHandler
	formService   services.FormService
	exportService services.ExportService
}

func NewFormHandler(formService services.FormService, exportService services.ExportService, logger utils.Logger) *FormHandler {
	return &FormHandler{
		BaseHandler:   NewBaseHandler(logger),
		formService:   formService,
		exportService: exportService,
	}
}

func (h *FormHandler) CreateForm(c *gin.Context) {
	var req services.CreateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	form, err := h.formService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, form)
}

func (h *FormHandler) ListForms(c *gin.Context) {
	filters := repositories.FormFilters{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filters.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filters.Offset = offset
	}

	result, err := h.formService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *FormHandler) GetForm(c *gin.Context) {
	id, ok := h.formIDParam(c)
	if !ok {
		return
	}

	form, err := h.formService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

func (h *FormHandler) DeleteForm(c *gin.Context) {
	id, ok := h.formIDParam(c)
	if !ok {
		return
	}

	if err := h.formService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Form deleted"})
}

func (h *FormHandler) ReorderQuestions(c *gin.Context) {
	id, ok := h.formIDParam(c)
	if !ok {
		return
	}

	var req services.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	form, err := h.formService.ReorderQuestions(c.Request.Context(), id, req.From, req.To)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, form)
}

func (h *FormHandler) ExportResponses(c *gin.Context) {
	id, ok := h.formIDParam(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", services.ExportFormatCSV)

	data, contentType, err := h.exportService.ExportResponses(c.Request.Context(), id, format)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := "responses." + format
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

func (h *FormHandler) formIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid form ID"})
		return 0, false
	}
	return uint(id), true
}
