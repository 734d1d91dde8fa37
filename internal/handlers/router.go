package handlers

import (
	"github.com/formlab/form-service/internal/services"
	"github.com/formlab/form-service/internal/storage"
	"github.com/formlab/form-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	formHandler     *FormHandler
	responseHandler *ResponseHandler
	sessionHandler  *SessionHandler
	uploadHandler   *UploadHandler
}

func NewHandlerManager(
	formService services.FormService,
	responseService services.ResponseService,
	sessionService services.SessionService,
	exportService services.ExportService,
	storageProvider storage.StorageProvider,
	maxUploadSize int64,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		formHandler:     NewFormHandler(formService, exportService, logger),
		responseHandler: NewResponseHandler(responseService, logger),
		sessionHandler:  NewSessionHandler(sessionService, logger),
		uploadHandler:   NewUploadHandler(storageProvider, maxUploadSize, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		forms := v1.Group("/forms")
		{
			forms.POST("", hm.formHandler.CreateForm)
			forms.GET("", hm.formHandler.ListForms)
			forms.GET("/:id", hm.formHandler.GetForm)
			forms.DELETE("/:id", hm.formHandler.DeleteForm)
			forms.PUT("/:id/questions/reorder", hm.formHandler.ReorderQuestions)

			forms.GET("/:id/responses", hm.responseHandler.ListResponses)
			forms.GET("/:id/responses/export", hm.formHandler.ExportResponses)

			forms.POST("/:id/sessions", hm.sessionHandler.StartSession)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.GET("/:session_id/progress", hm.sessionHandler.GetProgress)
			sessions.POST("/:session_id/submit", hm.sessionHandler.Submit)

			questions := sessions.Group("/:session_id/questions/:question_id")
			{
				questions.GET("", hm.sessionHandler.GetQuestionState)
				questions.POST("/categorize", hm.sessionHandler.AssignCategorizeItem)
				questions.POST("/cloze", hm.sessionHandler.AssignBankItem)
				questions.DELETE("/cloze/:blank_id", hm.sessionHandler.ClearBlank)
				questions.POST("/comprehension", hm.sessionHandler.SetComprehensionAnswer)
			}
		}

		v1.POST("/responses", hm.responseHandler.SubmitResponse)
		v1.POST("/upload", hm.uploadHandler.UploadImage)
	}
}
