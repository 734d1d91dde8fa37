// Package completion holds the pure predicates that decide whether a
// question is answered and gate respondent submission. Nothing here has
// hidden state or I/O; absent or malformed data fails closed to "not
// answered", never the other way.
package completion

import (
	"strings"

	"github.com/formlab/form-service/internal/models"
)

// IsAnswered reports whether state completely answers q.
//
// Categorize: every item carries a category, and there is at least one item.
// Cloze: every blank in the respondent's own snapshot has a non-blank derived
// answer, keyed by blank id regardless of assignment order. The snapshot
// captured at session start is authoritative; authored meta edited after the
// session began is deliberately ignored.
// Comprehension: every authored sub-question has a selected option (mcq) or
// trimmed non-empty text (short).
// Unknown types and nil or mismatched state are never answered.
func IsAnswered(q *models.Question, state *models.AnswerState) bool {
	if state == nil {
		return false
	}

	switch q.Type {
	case models.QuestionCategorize:
		ans := state.Categorize
		if ans == nil || len(ans.Items) == 0 {
			return false
		}
		for _, it := range ans.Items {
			if !it.Assigned() {
				return false
			}
		}
		return true

	case models.QuestionCloze:
		ans := state.Cloze
		if ans == nil || len(ans.Blanks) == 0 {
			return false
		}
		for _, b := range ans.Blanks {
			text, ok := ans.UserAnswers[b.ID]
			if !ok || strings.TrimSpace(text) == "" {
				return false
			}
		}
		return true

	case models.QuestionComprehension:
		meta, err := q.ComprehensionMeta()
		if err != nil || len(meta.SubQuestions) == 0 {
			return false
		}
		ans := state.Comprehension
		if ans == nil {
			return false
		}
		for _, sub := range meta.SubQuestions {
			value := ans.Answers[sub.ID]
			if sub.Kind == models.SubQuestionMCQ {
				if value == "" {
					return false
				}
			} else if strings.TrimSpace(value) == "" {
				return false
			}
		}
		return true
	}

	return false
}

// Progress is the aggregate completion state over a form.
type Progress struct {
	AnsweredCount int  `json:"answered_count"`
	Total         int  `json:"total"`
	Remaining     int  `json:"remaining"`
	AllAnswered   bool `json:"all_answered"`
}

// Evaluate computes progress for a question list against per-question answer
// states keyed by question id. Submission is permitted only when AllAnswered
// holds; callers re-run this synchronously after every answer mutation.
func Evaluate(questions []models.Question, states map[string]*models.AnswerState) Progress {
	p := Progress{Total: len(questions)}
	for i := range questions {
		if IsAnswered(&questions[i], states[questions[i].ID]) {
			p.AnsweredCount++
		}
	}
	p.Remaining = p.Total - p.AnsweredCount
	if p.Remaining < 0 {
		p.Remaining = 0
	}
	p.AllAnswered = p.Total > 0 && p.AnsweredCount == p.Total
	return p
}
