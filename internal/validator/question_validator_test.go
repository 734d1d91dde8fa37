package validator

import (
	"encoding/json"
	"testing"

	"github.com/formlab/form-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func question(t *testing.T, id string, qtype models.QuestionType, meta any) models.Question {
	t.Helper()
	raw, err := json.Marshal(meta)
	require.NoError(t, err)
	return models.Question{ID: id, Type: qtype, Meta: raw}
}

func TestValidateCategorize(t *testing.T) {
	v := NewQuestionValidator()

	ok := question(t, "q1", models.QuestionCategorize, models.CategorizeMeta{
		Categories: []models.Category{{ID: "c1", Name: "Animals"}},
		Items:      []models.CategorizeItem{{ID: "i1", Label: "Dog", CategoryID: strptr("c1")}},
	})
	_, err := v.ValidateQuestion(&ok)
	assert.NoError(t, err)

	dangling := question(t, "q2", models.QuestionCategorize, models.CategorizeMeta{
		Items: []models.CategorizeItem{{ID: "i1", Label: "Dog", CategoryID: strptr("gone")}},
	})
	_, err = v.ValidateQuestion(&dangling)
	assert.ErrorContains(t, err, "non-existent category")

	dupCat := question(t, "q3", models.QuestionCategorize, models.CategorizeMeta{
		Categories: []models.Category{{ID: "c1", Name: "A"}, {ID: "c1", Name: "B"}},
	})
	_, err = v.ValidateQuestion(&dupCat)
	assert.ErrorContains(t, err, "duplicate category id")
}

func TestValidateCloze_DivergenceIsAdvisory(t *testing.T) {
	v := NewQuestionValidator()

	q := question(t, "q1", models.QuestionCloze, models.ClozeMeta{
		Text: "The sky is [[b:b1]] and [[b:ghost]].",
		Blanks: []models.ClozeBlank{
			{ID: "b1", Answer: "blue"},
			{ID: "gone", Answer: "green"},
		},
	})

	warnings, err := v.ValidateQuestion(&q)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "[[b:ghost]]")
	assert.Contains(t, warnings[1], `"gone"`)
}

func TestValidateCloze_DuplicateBlankID(t *testing.T) {
	v := NewQuestionValidator()
	q := question(t, "q1", models.QuestionCloze, models.ClozeMeta{
		Blanks: []models.ClozeBlank{{ID: "b1", Answer: "x"}, {ID: "b1", Answer: "y"}},
	})
	_, err := v.ValidateQuestion(&q)
	assert.ErrorContains(t, err, "duplicate blank id")
}

func TestValidateComprehension(t *testing.T) {
	v := NewQuestionValidator()

	ok := question(t, "q1", models.QuestionComprehension, models.ComprehensionMeta{
		PassageText: "A passage.",
		SubQuestions: []models.SubQuestion{
			{
				ID:   "s1",
				Kind: models.SubQuestionMCQ,
				Options: []models.MCQOption{
					{ID: "o1", Text: "Yes"},
					{ID: "o2", Text: "No"},
				},
				CorrectOptionID: "o1",
			},
			{ID: "s2", Kind: models.SubQuestionShort},
		},
	})
	_, err := v.ValidateQuestion(&ok)
	assert.NoError(t, err)

	badCorrect := question(t, "q2", models.QuestionComprehension, models.ComprehensionMeta{
		SubQuestions: []models.SubQuestion{
			{
				ID:              "s1",
				Kind:            models.SubQuestionMCQ,
				Options:         []models.MCQOption{{ID: "o1"}, {ID: "o2"}},
				CorrectOptionID: "o9",
			},
		},
	})
	_, err = v.ValidateQuestion(&badCorrect)
	assert.ErrorContains(t, err, "does not match any option")

	badKind := question(t, "q3", models.QuestionComprehension, models.ComprehensionMeta{
		SubQuestions: []models.SubQuestion{{ID: "s1", Kind: "truefalse"}},
	})
	_, err = v.ValidateQuestion(&badKind)
	assert.ErrorContains(t, err, "unsupported kind")
}

func TestValidateBatch_DuplicateQuestionIDs(t *testing.T) {
	v := NewQuestionValidator()
	q1 := question(t, "dup", models.QuestionCloze, models.ClozeMeta{})
	q2 := question(t, "dup", models.QuestionCloze, models.ClozeMeta{})

	_, err := v.ValidateBatch([]models.Question{q1, q2})
	assert.ErrorContains(t, err, "duplicate question id")
}

func TestValidateQuestion_UnknownType(t *testing.T) {
	v := NewQuestionValidator()
	q := models.Question{ID: "q1", Type: "essay", Meta: []byte(`{}`)}
	_, err := v.ValidateQuestion(&q)
	assert.ErrorContains(t, err, "unsupported question type")
}
