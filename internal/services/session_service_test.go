package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/formlab/form-service/internal/cache"
	"github.com/formlab/form-service/internal/events"
	"github.com/formlab/form-service/internal/models"
	"github.com/formlab/form-service/internal/repositories"
	"github.com/formlab/form-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ===== IN-MEMORY MOCKS =====

type mockFormRepo struct {
	forms  map[uint]*models.Form
	nextID uint
}

func (m *mockFormRepo) Create(ctx context.Context, form *models.Form) error {
	m.nextID++
	form.ID = m.nextID
	form.CreatedAt = time.Now()
	m.forms[form.ID] = form
	return nil
}

func (m *mockFormRepo) GetByID(ctx context.Context, id uint) (*models.Form, error) {
	form, ok := m.forms[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *form
	return &copied, nil
}

func (m *mockFormRepo) List(ctx context.Context, filters repositories.FormFilters) ([]*models.Form, int64, error) {
	out := make([]*models.Form, 0, len(m.forms))
	for _, f := range m.forms {
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}

func (m *mockFormRepo) Update(ctx context.Context, form *models.Form) error {
	if _, ok := m.forms[form.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	m.forms[form.ID] = form
	return nil
}

func (m *mockFormRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := m.forms[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.forms, id)
	return nil
}

func (m *mockFormRepo) Exists(ctx context.Context, id uint) (bool, error) {
	_, ok := m.forms[id]
	return ok, nil
}

type mockResponseRepo struct {
	responses []*models.Response
	nextID    uint
}

func (m *mockResponseRepo) Create(ctx context.Context, response *models.Response) error {
	m.nextID++
	response.ID = m.nextID
	response.SubmittedAt = time.Now()
	m.responses = append(m.responses, response)
	return nil
}

func (m *mockResponseRepo) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	for _, r := range m.responses {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResponseRepo) ListByForm(ctx context.Context, formID uint, filters repositories.ResponseFilters) ([]*models.Response, int64, error) {
	out := make([]*models.Response, 0)
	for _, r := range m.responses {
		if r.FormID == formID {
			out = append(out, r)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockResponseRepo) CountByForm(ctx context.Context, formID uint) (int64, error) {
	_, n, err := m.ListByForm(ctx, formID, repositories.ResponseFilters{})
	return n, err
}

type mockRepository struct {
	forms     *mockFormRepo
	responses *mockResponseRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		forms:     &mockFormRepo{forms: make(map[uint]*models.Form)},
		responses: &mockResponseRepo{},
	}
}

func (m *mockRepository) Form() repositories.FormRepository         { return m.forms }
func (m *mockRepository) Response() repositories.ResponseRepository { return m.responses }

// missCache always misses so reads go through the repository.
type missCache struct{}

func (missCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (missCache) Get(ctx context.Context, key string, dest interface{}) error {
	return cache.ErrCacheMiss
}
func (missCache) Delete(ctx context.Context, key string) error         { return nil }
func (missCache) DeletePattern(ctx context.Context, pattern string) error { return nil }

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// ===== FIXTURES =====

func clozeQuestion(t *testing.T, id string) models.Question {
	t.Helper()
	q := models.Question{ID: id, Type: models.QuestionCloze, QuestionText: "Fill in the blank"}
	require.NoError(t, q.SetMeta(&models.ClozeMeta{
		Text:   "The sky is [[b:b1]].",
		Blanks: []models.ClozeBlank{{ID: "b1", Answer: "blue"}},
	}))
	return q
}

func comprehensionQuestion(t *testing.T, id string) models.Question {
	t.Helper()
	q := models.Question{ID: id, Type: models.QuestionComprehension, QuestionText: "Read and answer"}
	require.NoError(t, q.SetMeta(&models.ComprehensionMeta{
		PassageText: "A short passage.",
		SubQuestions: []models.SubQuestion{
			{
				ID:   "sq1",
				Kind: models.SubQuestionMCQ,
				Text: "Pick one",
				Options: []models.MCQOption{
					{ID: "opt-a", Text: "A"},
					{ID: "opt-b", Text: "B"},
				},
			},
		},
	}))
	return q
}

type sessionFixture struct {
	forms     FormService
	responses ResponseService
	sessions  SessionService
	repo      *mockRepository
	publisher *events.MockEventPublisher
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	logger := testLogger()
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(logger)
	v := validator.New()

	forms := NewFormService(repo, missCache{}, publisher, v, logger, sequentialIDs("id"))
	responses := NewResponseService(repo, publisher, logger, sequentialIDs("evt"))
	sessions := NewSessionService(forms, responses, logger, sequentialIDs("sess"))

	return &sessionFixture{
		forms:     forms,
		responses: responses,
		sessions:  sessions,
		repo:      repo,
		publisher: publisher,
	}
}

func (f *sessionFixture) createForm(t *testing.T, questions ...models.Question) *models.Form {
	t.Helper()
	form, err := f.forms.Create(context.Background(), &CreateFormRequest{
		Title:     "Session test form",
		Questions: questions,
	})
	require.NoError(t, err)
	return form
}

// ===== TESTS =====

func TestSessionService_ClozeAssignClearRoundTrip(t *testing.T) {
	f := newSessionFixture(t)
	form := f.createForm(t, clozeQuestion(t, "q1"))

	ctx := context.Background()
	view, err := f.sessions.Start(ctx, form.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Progress.Total)
	assert.Equal(t, 0, view.Progress.AnsweredCount)
	assert.False(t, view.Progress.AllAnswered)

	// Bank item id matches the blank id it was derived from.
	view, err = f.sessions.AssignBankItem(view.SessionID, "q1", "b1", "b1")
	require.NoError(t, err)
	assert.Equal(t, "blue", view.State.Cloze.UserAnswers["b1"])
	assert.True(t, view.Progress.AllAnswered)

	view, err = f.sessions.ClearBlank(view.SessionID, "q1", "b1")
	require.NoError(t, err)
	assert.Empty(t, view.State.Cloze.UserAnswers)
	assert.False(t, view.Progress.AllAnswered)
	assert.Equal(t, 1, view.Progress.Remaining)
}

func TestSessionService_SubmitGate(t *testing.T) {
	f := newSessionFixture(t)
	form := f.createForm(t, clozeQuestion(t, "q1"), comprehensionQuestion(t, "q2"))

	ctx := context.Background()
	view, err := f.sessions.Start(ctx, form.ID)
	require.NoError(t, err)
	sessionID := view.SessionID

	_, err = f.sessions.Submit(ctx, sessionID)
	assert.ErrorIs(t, err, ErrResponseIncomplete)

	view, err = f.sessions.AssignBankItem(sessionID, "q1", "b1", "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.Progress.AnsweredCount)

	_, err = f.sessions.Submit(ctx, sessionID)
	assert.ErrorIs(t, err, ErrResponseIncomplete)

	view, err = f.sessions.SetComprehensionAnswer(sessionID, "q2", "sq1", "opt-a")
	require.NoError(t, err)
	assert.True(t, view.Progress.AllAnswered)

	response, err := f.sessions.Submit(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, form.ID, response.FormID)

	answers, err := response.AnswerList()
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, "q1", answers[0].QuestionID)
	assert.Equal(t, "blue", answers[0].Value.Cloze.UserAnswers["b1"])
	assert.Equal(t, "opt-a", answers[1].Value.Comprehension.Answers["sq1"])
}

func TestSessionService_DoubleSubmitRejected(t *testing.T) {
	f := newSessionFixture(t)
	form := f.createForm(t, clozeQuestion(t, "q1"))

	ctx := context.Background()
	view, err := f.sessions.Start(ctx, form.ID)
	require.NoError(t, err)

	_, err = f.sessions.AssignBankItem(view.SessionID, "q1", "b1", "b1")
	require.NoError(t, err)

	_, err = f.sessions.Submit(ctx, view.SessionID)
	require.NoError(t, err)

	_, err = f.sessions.Submit(ctx, view.SessionID)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	// Mutations after submit are rejected too.
	_, err = f.sessions.ClearBlank(view.SessionID, "q1", "b1")
	assert.ErrorIs(t, err, ErrAlreadySubmitted)

	// Only one submission reached the store.
	_, count, err := f.repo.responses.ListByForm(ctx, form.ID, repositories.ResponseFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSessionService_SubmitPublishesEvent(t *testing.T) {
	f := newSessionFixture(t)
	form := f.createForm(t, clozeQuestion(t, "q1"))

	ctx := context.Background()
	view, err := f.sessions.Start(ctx, form.ID)
	require.NoError(t, err)

	_, err = f.sessions.AssignBankItem(view.SessionID, "q1", "b1", "b1")
	require.NoError(t, err)
	response, err := f.sessions.Submit(ctx, view.SessionID)
	require.NoError(t, err)

	published := f.publisher.GetPublishedEvents()
	require.NotEmpty(t, published)
	last := published[len(published)-1]
	assert.Equal(t, events.EventResponseSubmitted, last.Type)

	data, ok := last.Data.(events.ResponseSubmittedEvent)
	require.True(t, ok)
	assert.Equal(t, form.ID, data.FormID)
	assert.Equal(t, response.ID, data.ResponseID)
}

func TestSessionService_SessionSnapshotIgnoresFormEdits(t *testing.T) {
	f := newSessionFixture(t)
	form := f.createForm(t, clozeQuestion(t, "q1"))

	ctx := context.Background()
	view, err := f.sessions.Start(ctx, form.ID)
	require.NoError(t, err)

	// The author adds a blank after the session began. The running
	// session keeps judging completion against its own snapshot.
	stored := f.repo.forms.forms[form.ID]
	questions, err := stored.QuestionList()
	require.NoError(t, err)
	meta, err := questions[0].ClozeMeta()
	require.NoError(t, err)
	meta.Text += " Grass is [[b:b2]]."
	meta.Blanks = append(meta.Blanks, models.ClozeBlank{ID: "b2", Answer: "green"})
	require.NoError(t, questions[0].SetMeta(meta))
	require.NoError(t, stored.SetQuestionList(questions))

	v, err := f.sessions.AssignBankItem(view.SessionID, "q1", "b1", "b1")
	require.NoError(t, err)
	assert.True(t, v.Progress.AllAnswered)
}

func TestSessionService_StartUnknownForm(t *testing.T) {
	f := newSessionFixture(t)
	_, err := f.sessions.Start(context.Background(), 42)
	assert.ErrorIs(t, err, ErrFormNotFound)
}

func TestSessionService_UnknownSessionAndQuestion(t *testing.T) {
	f := newSessionFixture(t)
	form := f.createForm(t, clozeQuestion(t, "q1"))

	_, err := f.sessions.Progress("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	view, err := f.sessions.Start(context.Background(), form.ID)
	require.NoError(t, err)

	_, err = f.sessions.AssignBankItem(view.SessionID, "missing", "b1", "b1")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}
