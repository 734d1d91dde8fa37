package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AnswerState is the respondent-session working copy of one question's
// answerable fields. It is derived from the authored Question at session
// start and never written back to it; exactly one variant pointer is set,
// matching Type.
type AnswerState struct {
	Type          QuestionType         `json:"type"`
	Categorize    *CategorizeAnswer    `json:"categorize,omitempty"`
	Cloze         *ClozeAnswer         `json:"cloze,omitempty"`
	Comprehension *ComprehensionAnswer `json:"comprehension,omitempty"`
}

// CategorizeAnswer starts with every item's CategoryID nulled so respondents
// never see authoring-time assignments.
type CategorizeAnswer struct {
	Categories []Category       `json:"categories"`
	Items      []CategorizeItem `json:"items"`
}

// ClozeAnswer holds the session's own snapshot of text and blanks plus the
// live assignment. UserMap maps blank id to the assigned bank item id;
// UserAnswers is derived from UserMap (blank id to the assigned item's label)
// and is what completion checks read.
type ClozeAnswer struct {
	Text        string            `json:"text"`
	Blanks      []ClozeBlank      `json:"blanks"`
	UserMap     map[string]string `json:"userMap"`
	UserAnswers map[string]string `json:"userAnswers"`
}

// ComprehensionAnswer maps sub-question id to the selected option id (mcq)
// or the free text (short).
type ComprehensionAnswer struct {
	Answers map[string]string `json:"answers"`
}

// NewAnswerState builds the fresh respondent state for a question. Authored
// categorize assignments are dropped; cloze gets an empty assignment over the
// session's own copy of text and blanks; malformed meta yields an empty state
// of the right variant, which evaluates to not answered.
func NewAnswerState(q *Question) *AnswerState {
	state := &AnswerState{Type: q.Type}
	switch q.Type {
	case QuestionCategorize:
		ans := &CategorizeAnswer{}
		if meta, err := q.CategorizeMeta(); err == nil {
			ans.Categories = append([]Category(nil), meta.Categories...)
			ans.Items = make([]CategorizeItem, len(meta.Items))
			for i, it := range meta.Items {
				it.CategoryID = nil
				ans.Items[i] = it
			}
		}
		state.Categorize = ans
	case QuestionCloze:
		ans := &ClozeAnswer{
			UserMap:     map[string]string{},
			UserAnswers: map[string]string{},
		}
		if meta, err := q.ClozeMeta(); err == nil {
			ans.Text = meta.Text
			ans.Blanks = append([]ClozeBlank(nil), meta.Blanks...)
		}
		state.Cloze = ans
	case QuestionComprehension:
		state.Comprehension = &ComprehensionAnswer{Answers: map[string]string{}}
	}
	return state
}

// Response is one submitted respondent session: a per-question snapshot of
// the final AnswerState, captured at submit time.
type Response struct {
	ID      uint           `json:"id" gorm:"primaryKey"`
	FormID  uint           `json:"form_id" gorm:"not null;index"`
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"` // []ResponseAnswer

	SubmittedAt time.Time `json:"submitted_at" gorm:"autoCreateTime"`

	Form Form `json:"-" gorm:"foreignKey:FormID"`
}

func (Response) TableName() string {
	return "responses"
}

type ResponseAnswer struct {
	QuestionID string       `json:"questionId"`
	Value      *AnswerState `json:"value"`
}

// AnswerList decodes the stored answers payload.
func (r *Response) AnswerList() ([]ResponseAnswer, error) {
	if len(r.Answers) == 0 {
		return nil, nil
	}
	var answers []ResponseAnswer
	if err := json.Unmarshal(r.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// SetAnswerList encodes and stores the answers payload.
func (r *Response) SetAnswerList(answers []ResponseAnswer) error {
	data, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	r.Answers = data
	return nil
}
