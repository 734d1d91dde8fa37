package handlers

import (
	"net/http"
	"strconv"

	"github.com/formlab/form-service/internal/services"
	"github.com/formlab/form-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the respondent session: start, per-question answer
// mutations, progress and submit. Every mutation response carries the fresh
// question state and recomputed progress so clients never track it themselves.
type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

type assignCategorizeRequest struct {
	ItemID     string `json:"itemId" binding:"required"`
	CategoryID string `json:"categoryId"`
}

type assignBankItemRequest struct {
	ItemID string `json:"itemId" binding:"required"`
	Dest   string `json:"dest" binding:"required"`
}

type comprehensionAnswerRequest struct {
	SubQuestionID string `json:"subQuestionId" binding:"required"`
	Value         string `json:"value"`
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid form ID"})
		return
	}

	view, err := h.sessionService.Start(c.Request.Context(), uint(id))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, view)
}

func (h *SessionHandler) GetQuestionState(c *gin.Context) {
	state, err := h.sessionService.GetState(c.Param("session_id"), c.Param("question_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *SessionHandler) AssignCategorizeItem(c *gin.Context) {
	var req assignCategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	view, err := h.sessionService.AssignCategorizeItem(
		c.Param("session_id"), c.Param("question_id"), req.ItemID, req.CategoryID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) AssignBankItem(c *gin.Context) {
	var req assignBankItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	view, err := h.sessionService.AssignBankItem(
		c.Param("session_id"), c.Param("question_id"), req.ItemID, req.Dest)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) ClearBlank(c *gin.Context) {
	view, err := h.sessionService.ClearBlank(
		c.Param("session_id"), c.Param("question_id"), c.Param("blank_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) SetComprehensionAnswer(c *gin.Context) {
	var req comprehensionAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	view, err := h.sessionService.SetComprehensionAnswer(
		c.Param("session_id"), c.Param("question_id"), req.SubQuestionID, req.Value)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) GetProgress(c *gin.Context) {
	progress, err := h.sessionService.Progress(c.Param("session_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *SessionHandler) Submit(c *gin.Context) {
	response, err := h.sessionService.Submit(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response)
}
