package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionCategorize    QuestionType = "categorize"
	QuestionCloze         QuestionType = "cloze"
	QuestionComprehension QuestionType = "comprehension"
)

type SubQuestionKind string

const (
	SubQuestionMCQ   SubQuestionKind = "mcq"
	SubQuestionShort SubQuestionKind = "short"
)

// Form is the authored document: a title, an optional header image and an
// ordered list of questions. Questions are stored as a single JSON payload
// because the question shape is variant-typed and edited as one document.
type Form struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Title       string         `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	HeaderImage string         `json:"header_image" gorm:"size:500"`
	Questions   datatypes.JSON `json:"questions" gorm:"type:jsonb"` // []Question

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Form) TableName() string {
	return "forms"
}

// QuestionList decodes the stored questions payload.
func (f *Form) QuestionList() ([]Question, error) {
	if len(f.Questions) == 0 {
		return nil, nil
	}
	var qs []Question
	if err := json.Unmarshal(f.Questions, &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

// SetQuestionList encodes and stores the questions payload.
func (f *Form) SetQuestionList(qs []Question) error {
	data, err := json.Marshal(qs)
	if err != nil {
		return err
	}
	f.Questions = data
	return nil
}

// Question is the tagged union for the three variants. Exactly one of the
// typed meta accessors is meaningful for a given Type; Meta holds the raw
// variant payload so unknown variants survive round-trips untouched.
type Question struct {
	ID            string          `json:"id" validate:"required"`
	Type          QuestionType    `json:"type" validate:"required,question_type"`
	QuestionText  string          `json:"questionText"`
	QuestionImage string          `json:"questionImage,omitempty"`
	Meta          json.RawMessage `json:"meta"`
}

// CategorizeMeta is the categorize variant payload.
type CategorizeMeta struct {
	Categories []Category       `json:"categories"`
	Items      []CategorizeItem `json:"items"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CategorizeItem carries its assignment on the item itself: a nil CategoryID
// means unassigned, anything else must reference an existing category.
type CategorizeItem struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	CategoryID *string `json:"categoryId"`
}

// Assigned reports whether the item points at a category.
func (it CategorizeItem) Assigned() bool {
	return it.CategoryID != nil && *it.CategoryID != ""
}

// ClozeMeta is the cloze variant payload. Text may embed blank markers of the
// form [[b:<id>]]; Blanks lists each blank's id and authored answer. The two
// are edited independently and may diverge (orphaned tokens, missing blanks).
type ClozeMeta struct {
	Text   string       `json:"text"`
	Blanks []ClozeBlank `json:"blanks"`
}

type ClozeBlank struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// ComprehensionMeta is the comprehension variant payload.
type ComprehensionMeta struct {
	PassageText  string        `json:"passageText"`
	PassageImage string        `json:"passageImage,omitempty"`
	SubQuestions []SubQuestion `json:"subQuestions"`
}

type SubQuestion struct {
	ID              string          `json:"id"`
	Kind            SubQuestionKind `json:"kind"`
	Text            string          `json:"text"`
	Options         []MCQOption     `json:"options,omitempty"`
	CorrectOptionID string          `json:"correctOptionId,omitempty"`
	CorrectAnswer   string          `json:"correctAnswer,omitempty"`
}

type MCQOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CategorizeMeta decodes the variant payload; an error or a wrong Type yields
// (nil, err) so callers fail closed.
func (q *Question) CategorizeMeta() (*CategorizeMeta, error) {
	var m CategorizeMeta
	if err := json.Unmarshal(q.Meta, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *Question) ClozeMeta() (*ClozeMeta, error) {
	var m ClozeMeta
	if err := json.Unmarshal(q.Meta, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *Question) ComprehensionMeta() (*ComprehensionMeta, error) {
	var m ComprehensionMeta
	if err := json.Unmarshal(q.Meta, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SetMeta encodes a typed meta back into the raw payload.
func (q *Question) SetMeta(meta any) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	q.Meta = data
	return nil
}
