package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/formlab/form-service/internal/completion"
	"github.com/formlab/form-service/internal/events"
	"github.com/formlab/form-service/internal/models"
	"github.com/formlab/form-service/internal/repositories"
)

type SubmitResponseRequest struct {
	FormID  uint                    `json:"formId" validate:"required"`
	Answers []models.ResponseAnswer `json:"answers" validate:"required"`
}

type ResponseService interface {
	Submit(ctx context.Context, req *SubmitResponseRequest) (*models.Response, error)
	GetByID(ctx context.Context, id uint) (*models.Response, error)
	ListByForm(ctx context.Context, formID uint, filters repositories.ResponseFilters) ([]*models.Response, int64, error)
}

type responseService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	newID     func() string
}

func NewResponseService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger *slog.Logger,
	newID func() string,
) ResponseService {
	return &responseService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		newID:     newID,
	}
}

// Submit persists one respondent snapshot. Completion is re-checked here
// against the authored questions; a client that skips the session gate gets
// the same answer, ErrResponseIncomplete.
func (s *responseService) Submit(ctx context.Context, req *SubmitResponseRequest) (*models.Response, error) {
	form, err := s.repo.Form().GetByID(ctx, req.FormID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}

	questions, err := form.QuestionList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrFormHasNoContent
	}

	states := make(map[string]*models.AnswerState, len(req.Answers))
	for _, a := range req.Answers {
		states[a.QuestionID] = a.Value
	}
	if progress := completion.Evaluate(questions, states); !progress.AllAnswered {
		s.logger.Info("Rejecting incomplete submission",
			"form_id", req.FormID, "answered", progress.AnsweredCount, "total", progress.Total)
		return nil, ErrResponseIncomplete
	}

	response := &models.Response{FormID: req.FormID}
	if err := response.SetAnswerList(req.Answers); err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	if err := s.repo.Response().Create(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	event := &events.FormEvent{
		ID:        s.newID(),
		Type:      events.EventResponseSubmitted,
		Timestamp: time.Now().UTC(),
		Source:    "form-service",
		Version:   "1.0",
		Data: events.ResponseSubmittedEvent{
			FormID:      req.FormID,
			ResponseID:  response.ID,
			AnswerCount: len(req.Answers),
		},
	}
	if err := s.publisher.PublishFormEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "type", event.Type, "error", err)
	}

	s.logger.Info("Response submitted", "form_id", req.FormID, "response_id", response.ID)
	return response, nil
}

func (s *responseService) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	response, err := s.repo.Response().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return response, nil
}

func (s *responseService) ListByForm(ctx context.Context, formID uint, filters repositories.ResponseFilters) ([]*models.Response, int64, error) {
	exists, err := s.repo.Form().Exists(ctx, formID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check form: %w", err)
	}
	if !exists {
		return nil, 0, ErrFormNotFound
	}

	responses, total, err := s.repo.Response().ListByForm(ctx, formID, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, total, nil
}
