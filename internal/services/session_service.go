package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/formlab/form-service/internal/assignment"
	"github.com/formlab/form-service/internal/completion"
	"github.com/formlab/form-service/internal/models"
)

// SessionView is what mutation operations hand back: the touched question's
// fresh state plus overall progress, recomputed synchronously.
type SessionView struct {
	SessionID string              `json:"sessionId"`
	FormID    uint                `json:"formId"`
	State     *models.AnswerState `json:"state,omitempty"`
	Progress  completion.Progress `json:"progress"`
}

// SessionService drives one respondent's pass over a form. States are
// per-session copies; the authored form is never written to. Every mutation
// swaps in a new state snapshot and re-evaluates progress before returning.
type SessionService interface {
	Start(ctx context.Context, formID uint) (*SessionView, error)
	GetState(sessionID, questionID string) (*models.AnswerState, error)
	AssignCategorizeItem(sessionID, questionID, itemID, categoryID string) (*SessionView, error)
	AssignBankItem(sessionID, questionID, itemID, dest string) (*SessionView, error)
	ClearBlank(sessionID, questionID, blankID string) (*SessionView, error)
	SetComprehensionAnswer(sessionID, questionID, subQuestionID, value string) (*SessionView, error)
	Progress(sessionID string) (completion.Progress, error)
	Submit(ctx context.Context, sessionID string) (*models.Response, error)
}

type session struct {
	id        string
	formID    uint
	questions []models.Question
	states    map[string]*models.AnswerState
	submitted bool
}

func (s *session) question(id string) *models.Question {
	for i := range s.questions {
		if s.questions[i].ID == id {
			return &s.questions[i]
		}
	}
	return nil
}

func (s *session) progress() completion.Progress {
	return completion.Evaluate(s.questions, s.states)
}

type sessionService struct {
	forms     FormService
	responses ResponseService
	logger    *slog.Logger
	newID     func() string

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionService(
	forms FormService,
	responses ResponseService,
	logger *slog.Logger,
	newID func() string,
) SessionService {
	return &sessionService{
		forms:     forms,
		responses: responses,
		logger:    logger,
		newID:     newID,
		sessions:  make(map[string]*session),
	}
}

// Start loads the form and builds a fresh AnswerState per question. Authored
// categorize assignments are stripped; cloze questions get their own snapshot
// of text and blanks that later edits to the form do not touch.
func (s *sessionService) Start(ctx context.Context, formID uint) (*SessionView, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		return nil, err
	}
	questions, err := form.QuestionList()
	if err != nil {
		return nil, fmt.Errorf("failed to decode questions: %w", err)
	}

	sess := &session{
		id:        s.newID(),
		formID:    formID,
		questions: questions,
		states:    make(map[string]*models.AnswerState, len(questions)),
	}
	for i := range questions {
		sess.states[questions[i].ID] = models.NewAnswerState(&questions[i])
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("Session started", "session_id", sess.id, "form_id", formID)
	return &SessionView{
		SessionID: sess.id,
		FormID:    formID,
		Progress:  sess.progress(),
	}, nil
}

func (s *sessionService) GetState(sessionID, questionID string) (*models.AnswerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	state, ok := sess.states[questionID]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	return state, nil
}

func (s *sessionService) AssignCategorizeItem(sessionID, questionID, itemID, categoryID string) (*SessionView, error) {
	return s.mutate(sessionID, questionID, func(state *models.AnswerState) *models.AnswerState {
		if state.Categorize == nil {
			return state
		}
		next := *state
		next.Categorize = assignment.AssignItem(state.Categorize, itemID, categoryID)
		return &next
	})
}

func (s *sessionService) AssignBankItem(sessionID, questionID, itemID, dest string) (*SessionView, error) {
	return s.mutate(sessionID, questionID, func(state *models.AnswerState) *models.AnswerState {
		if state.Cloze == nil {
			return state
		}
		next := *state
		next.Cloze = assignment.Assign(state.Cloze, itemID, dest)
		return &next
	})
}

func (s *sessionService) ClearBlank(sessionID, questionID, blankID string) (*SessionView, error) {
	return s.mutate(sessionID, questionID, func(state *models.AnswerState) *models.AnswerState {
		if state.Cloze == nil {
			return state
		}
		next := *state
		next.Cloze = assignment.ClearBlank(state.Cloze, blankID)
		return &next
	})
}

func (s *sessionService) SetComprehensionAnswer(sessionID, questionID, subQuestionID, value string) (*SessionView, error) {
	return s.mutate(sessionID, questionID, func(state *models.AnswerState) *models.AnswerState {
		if state.Comprehension == nil {
			return state
		}
		next := *state
		answers := make(map[string]string, len(state.Comprehension.Answers)+1)
		for k, v := range state.Comprehension.Answers {
			answers[k] = v
		}
		answers[subQuestionID] = value
		next.Comprehension = &models.ComprehensionAnswer{Answers: answers}
		return &next
	})
}

func (s *sessionService) Progress(sessionID string) (completion.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return completion.Progress{}, ErrSessionNotFound
	}
	return sess.progress(), nil
}

// Submit serializes the session snapshot and hands it to the response
// service. The gate runs here first: an unfinished session never reaches
// persistence. A second submit on the same session is rejected outright.
func (s *sessionService) Submit(ctx context.Context, sessionID string) (*models.Response, error) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	if sess.submitted {
		s.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}
	progress := sess.progress()
	if !progress.AllAnswered {
		s.mu.Unlock()
		return nil, ErrResponseIncomplete
	}

	answers := make([]models.ResponseAnswer, 0, len(sess.questions))
	for i := range sess.questions {
		answers = append(answers, models.ResponseAnswer{
			QuestionID: sess.questions[i].ID,
			Value:      sess.states[sess.questions[i].ID],
		})
	}
	sess.submitted = true
	formID := sess.formID
	s.mu.Unlock()

	response, err := s.responses.Submit(ctx, &SubmitResponseRequest{
		FormID:  formID,
		Answers: answers,
	})
	if err != nil {
		// Persistence failed; let the respondent retry.
		s.mu.Lock()
		sess.submitted = false
		s.mu.Unlock()
		return nil, err
	}

	s.logger.Info("Session submitted", "session_id", sessionID, "response_id", response.ID)
	return response, nil
}

func (s *sessionService) mutate(sessionID, questionID string, fn func(*models.AnswerState) *models.AnswerState) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if sess.submitted {
		return nil, ErrAlreadySubmitted
	}
	state, ok := sess.states[questionID]
	if !ok {
		return nil, ErrQuestionNotFound
	}

	sess.states[questionID] = fn(state)
	return &SessionView{
		SessionID: sessionID,
		FormID:    sess.formID,
		State:     sess.states[questionID],
		Progress:  sess.progress(),
	}, nil
}
