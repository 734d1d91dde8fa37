package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/formlab/form-service/internal/cache"
	"github.com/formlab/form-service/internal/events"
	"github.com/formlab/form-service/internal/models"
	"github.com/formlab/form-service/internal/reorder"
	"github.com/formlab/form-service/internal/repositories"
	"github.com/formlab/form-service/internal/validator"
)

const (
	formCacheKeyFmt = "form:%d"
	formCacheTTL    = 5 * time.Minute
)

// ===== REQUEST/RESPONSE TYPES =====

type CreateFormRequest struct {
	Title       string            `json:"title" validate:"required,max=255"`
	HeaderImage string            `json:"headerImage" validate:"omitempty,max=2048"`
	Questions   []models.Question `json:"questions"`
}

type ReorderRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type FormSummary struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	HeaderImage   string    `json:"headerImage,omitempty"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

type ListFormsResponse struct {
	Forms []FormSummary `json:"forms"`
	Total int64         `json:"total"`
}

// ===== SERVICE INTERFACE =====

type FormService interface {
	Create(ctx context.Context, req *CreateFormRequest) (*models.Form, error)
	GetByID(ctx context.Context, id uint) (*models.Form, error)
	List(ctx context.Context, filters repositories.FormFilters) (*ListFormsResponse, error)
	Delete(ctx context.Context, id uint) error
	ReorderQuestions(ctx context.Context, formID uint, from, to int) (*models.Form, error)
}

type formService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
	newID     func() string
}

func NewFormService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
	newID func() string,
) FormService {
	return &formService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		validator: v,
		logger:    logger,
		newID:     newID,
	}
}

// Create validates and stores a new form. Cloze blanks arriving without an
// id are patched with a generated one before anything references them, so
// every marker written later resolves against the tokens list.
func (s *formService) Create(ctx context.Context, req *CreateFormRequest) (*models.Form, error) {
	s.logger.Info("Creating form", "title", req.Title, "question_count", len(req.Questions))

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	questions, err := s.patchBlankIDs(req.Questions)
	if err != nil {
		return nil, ValidationErrors{{Field: "questions", Message: err.Error()}}
	}

	warnings, err := s.validator.Question().ValidateBatch(questions)
	if err != nil {
		return nil, ValidationErrors{{Field: "questions", Message: err.Error()}}
	}
	for qid, ws := range warnings {
		for _, w := range ws {
			s.logger.Warn("Question content divergence", "question_id", qid, "warning", w)
		}
	}

	form := &models.Form{
		Title:       req.Title,
		HeaderImage: req.HeaderImage,
	}
	if err := form.SetQuestionList(questions); err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	if err := s.repo.Form().Create(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	s.publishEvent(ctx, events.EventFormCreated, events.FormCreatedEvent{
		FormID:        form.ID,
		Title:         form.Title,
		QuestionCount: len(questions),
	})

	s.logger.Info("Form created", "form_id", form.ID)
	return form, nil
}

func (s *formService) GetByID(ctx context.Context, id uint) (*models.Form, error) {
	key := fmt.Sprintf(formCacheKeyFmt, id)

	var cached models.Form
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	form, err := s.repo.Form().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to get form: %w", err)
	}

	if err := s.cache.Set(ctx, key, form, formCacheTTL); err != nil {
		s.logger.Warn("Failed to cache form", "form_id", id, "error", err)
	}
	return form, nil
}

func (s *formService) List(ctx context.Context, filters repositories.FormFilters) (*ListFormsResponse, error) {
	forms, total, err := s.repo.Form().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	summaries := make([]FormSummary, 0, len(forms))
	for _, f := range forms {
		questions, err := f.QuestionList()
		if err != nil {
			s.logger.Warn("Skipping form with undecodable questions", "form_id", f.ID, "error", err)
			continue
		}
		summaries = append(summaries, FormSummary{
			ID:            f.ID,
			Title:         f.Title,
			HeaderImage:   f.HeaderImage,
			QuestionCount: len(questions),
			CreatedAt:     f.CreatedAt,
		})
	}
	return &ListFormsResponse{Forms: summaries, Total: total}, nil
}

func (s *formService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Form().Delete(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrFormNotFound
		}
		return fmt.Errorf("failed to delete form: %w", err)
	}
	if err := s.cache.Delete(ctx, fmt.Sprintf(formCacheKeyFmt, id)); err != nil {
		s.logger.Warn("Failed to invalidate form cache", "form_id", id, "error", err)
	}
	return nil
}

// ReorderQuestions moves the question at index from so it lands at index to,
// shifting everything between. Out of range indices leave the form untouched.
func (s *formService) ReorderQuestions(ctx context.Context, formID uint, from, to int) (*models.Form, error) {
	form, err := s.repo.Form().GetByID(ctx, formID)
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

	moved, err := reorder.Move(questions, from, to)
	if err != nil {
		return nil, err
	}
	if err := form.SetQuestionList(moved); err != nil {
		return nil, fmt.Errorf("failed to encode questions: %w", err)
	}

	if err := s.repo.Form().Update(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to update form: %w", err)
	}
	if err := s.cache.Delete(ctx, fmt.Sprintf(formCacheKeyFmt, formID)); err != nil {
		s.logger.Warn("Failed to invalidate form cache", "form_id", formID, "error", err)
	}

	s.logger.Info("Questions reordered", "form_id", formID, "from", from, "to", to)
	return form, nil
}

// patchBlankIDs assigns generated ids to cloze blanks that arrive without one
// and verifies the meta decodes for its declared type.
func (s *formService) patchBlankIDs(questions []models.Question) ([]models.Question, error) {
	out := make([]models.Question, len(questions))
	copy(out, questions)

	for i := range out {
		if out[i].ID == "" {
			out[i].ID = s.newID()
		}
		if out[i].Type != models.QuestionCloze {
			continue
		}
		meta, err := out[i].ClozeMeta()
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", out[i].ID, err)
		}
		patched := false
		for j := range meta.Blanks {
			if meta.Blanks[j].ID == "" {
				meta.Blanks[j].ID = s.newID()
				patched = true
			}
		}
		if patched {
			if err := out[i].SetMeta(meta); err != nil {
				return nil, fmt.Errorf("question %s: %w", out[i].ID, err)
			}
		}
	}
	return out, nil
}

func (s *formService) publishEvent(ctx context.Context, eventType events.EventType, data interface{}) {
	event := &events.FormEvent{
		ID:        s.newID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "form-service",
		Version:   "1.0",
		Data:      data,
	}
	if err := s.publisher.PublishFormEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "type", eventType, "error", err)
	}
}
