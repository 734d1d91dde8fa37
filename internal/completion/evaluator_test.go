package completion

import (
	"encoding/json"
	"testing"

	"github.com/formlab/form-service/internal/assignment"
	"github.com/formlab/form-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func mustQuestion(t *testing.T, id string, qtype models.QuestionType, meta any) models.Question {
	t.Helper()
	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	return models.Question{ID: id, Type: qtype, Meta: raw}
}

func TestIsAnswered_Categorize(t *testing.T) {
	q := mustQuestion(t, "q1", models.QuestionCategorize, models.CategorizeMeta{})

	state := &models.AnswerState{
		Type: models.QuestionCategorize,
		Categorize: &models.CategorizeAnswer{
			Items: []models.CategorizeItem{
				{ID: "i1", Label: "Dog", CategoryID: strptr("c1")},
				{ID: "i2", Label: "Cat", CategoryID: strptr("c2")},
			},
		},
	}
	assert.True(t, IsAnswered(&q, state))

	// One more unassigned item flips the result.
	state.Categorize.Items = append(state.Categorize.Items, models.CategorizeItem{ID: "i3", Label: "Fern"})
	assert.False(t, IsAnswered(&q, state))

	// Empty item list is never answered.
	state.Categorize.Items = nil
	assert.False(t, IsAnswered(&q, state))
}

func TestIsAnswered_ClozeKeyedByBlankID(t *testing.T) {
	q := mustQuestion(t, "q1", models.QuestionCloze, models.ClozeMeta{})

	state := &models.AnswerState{
		Type: models.QuestionCloze,
		Cloze: &models.ClozeAnswer{
			Blanks: []models.ClozeBlank{
				{ID: "b1", Answer: "blue"},
				{ID: "b2", Answer: "green"},
			},
			UserAnswers: map[string]string{"b1": "blue", "b2": "green"},
		},
	}
	assert.True(t, IsAnswered(&q, state))

	state.Cloze.UserAnswers["b2"] = "   "
	assert.False(t, IsAnswered(&q, state))

	delete(state.Cloze.UserAnswers, "b2")
	assert.False(t, IsAnswered(&q, state))

	state.Cloze.Blanks = nil
	assert.False(t, IsAnswered(&q, state))
}

func TestIsAnswered_ClozePathIndependence(t *testing.T) {
	// Two assignment paths reaching the same final answers evaluate alike.
	q := mustQuestion(t, "q1", models.QuestionCloze, models.ClozeMeta{})
	base := &models.ClozeAnswer{
		Blanks: []models.ClozeBlank{
			{ID: "b1", Answer: "blue"},
			{ID: "b2", Answer: "green"},
		},
		UserMap:     map[string]string{},
		UserAnswers: map[string]string{},
	}

	direct := assignment.Assign(base, "b1", "b1")
	direct = assignment.Assign(direct, "b2", "b2")

	reassigned := assignment.Assign(base, "b1", "b2")
	reassigned = assignment.Assign(reassigned, "b1", "b1")
	reassigned = assignment.Assign(reassigned, "b2", "b2")

	sDirect := &models.AnswerState{Type: models.QuestionCloze, Cloze: direct}
	sReassigned := &models.AnswerState{Type: models.QuestionCloze, Cloze: reassigned}
	assert.Equal(t, IsAnswered(&q, sDirect), IsAnswered(&q, sReassigned))
	assert.True(t, IsAnswered(&q, sDirect))
}

func TestIsAnswered_Comprehension(t *testing.T) {
	q := mustQuestion(t, "q1", models.QuestionComprehension, models.ComprehensionMeta{
		PassageText: "A passage.",
		SubQuestions: []models.SubQuestion{
			{ID: "s1", Kind: models.SubQuestionMCQ, Options: []models.MCQOption{{ID: "o1", Text: "A"}}},
			{ID: "s2", Kind: models.SubQuestionShort},
		},
	})

	state := &models.AnswerState{
		Type:          models.QuestionComprehension,
		Comprehension: &models.ComprehensionAnswer{Answers: map[string]string{}},
	}
	assert.False(t, IsAnswered(&q, state))

	state.Comprehension.Answers["s1"] = "o1"
	assert.False(t, IsAnswered(&q, state))

	state.Comprehension.Answers["s2"] = "  "
	assert.False(t, IsAnswered(&q, state))

	state.Comprehension.Answers["s2"] = "because"
	assert.True(t, IsAnswered(&q, state))
}

func TestIsAnswered_ComprehensionWithoutSubQuestions(t *testing.T) {
	q := mustQuestion(t, "q1", models.QuestionComprehension, models.ComprehensionMeta{})
	state := &models.AnswerState{
		Type:          models.QuestionComprehension,
		Comprehension: &models.ComprehensionAnswer{Answers: map[string]string{"x": "y"}},
	}
	assert.False(t, IsAnswered(&q, state))
}

func TestIsAnswered_FailsClosed(t *testing.T) {
	unknown := models.Question{ID: "q1", Type: "essay", Meta: []byte(`{}`)}
	assert.False(t, IsAnswered(&unknown, &models.AnswerState{}))

	malformed := models.Question{ID: "q2", Type: models.QuestionComprehension, Meta: []byte(`not json`)}
	assert.False(t, IsAnswered(&malformed, &models.AnswerState{
		Comprehension: &models.ComprehensionAnswer{Answers: map[string]string{}},
	}))

	q := mustQuestion(t, "q3", models.QuestionCategorize, models.CategorizeMeta{})
	assert.False(t, IsAnswered(&q, nil))
}

func TestEvaluate_Progress(t *testing.T) {
	q1 := mustQuestion(t, "q1", models.QuestionCategorize, models.CategorizeMeta{})
	q2 := mustQuestion(t, "q2", models.QuestionCloze, models.ClozeMeta{})

	states := map[string]*models.AnswerState{
		"q1": {
			Type: models.QuestionCategorize,
			Categorize: &models.CategorizeAnswer{
				Items: []models.CategorizeItem{{ID: "i1", Label: "Dog", CategoryID: strptr("c1")}},
			},
		},
		"q2": {
			Type: models.QuestionCloze,
			Cloze: &models.ClozeAnswer{
				Blanks:      []models.ClozeBlank{{ID: "b1", Answer: "blue"}},
				UserAnswers: map[string]string{},
			},
		},
	}

	p := Evaluate([]models.Question{q1, q2}, states)
	assert.Equal(t, 1, p.AnsweredCount)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, 1, p.Remaining)
	assert.False(t, p.AllAnswered)

	states["q2"].Cloze.UserAnswers["b1"] = "blue"
	p = Evaluate([]models.Question{q1, q2}, states)
	assert.True(t, p.AllAnswered)
	assert.Equal(t, 0, p.Remaining)
}

func TestEvaluate_EmptyFormNeverSubmittable(t *testing.T) {
	p := Evaluate(nil, nil)
	assert.Equal(t, 0, p.Total)
	assert.False(t, p.AllAnswered)
}
