package validator

import (
	"fmt"

	"github.com/formlab/form-service/internal/cloze"
	"github.com/formlab/form-service/internal/models"
)

// QuestionValidator handles variant-specific validation of question meta.
// Structural violations (dangling references, duplicate ids) are errors;
// cloze text/blanks divergence is advisory and reported as warnings, never
// as a failure.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a complete question object and returns any
// advisory warnings alongside a hard error.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) ([]string, error) {
	if q.ID == "" {
		return nil, fmt.Errorf("question id is required")
	}

	switch q.Type {
	case models.QuestionCategorize:
		return nil, v.validateCategorize(q)
	case models.QuestionCloze:
		return v.validateCloze(q)
	case models.QuestionComprehension:
		return nil, v.validateComprehension(q)
	default:
		return nil, fmt.Errorf("unsupported question type: %s", q.Type)
	}
}

// ValidateBatch validates every question of a form and checks question id
// uniqueness across the form. Warnings are keyed by question id.
func (v *QuestionValidator) ValidateBatch(questions []models.Question) (map[string][]string, error) {
	warnings := make(map[string][]string)
	seen := make(map[string]bool, len(questions))

	for i := range questions {
		q := &questions[i]
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = true

		w, err := v.ValidateQuestion(q)
		if err != nil {
			return nil, fmt.Errorf("question %d (%s): %w", i+1, q.ID, err)
		}
		if len(w) > 0 {
			warnings[q.ID] = w
		}
	}
	return warnings, nil
}

func (v *QuestionValidator) validateCategorize(q *models.Question) error {
	meta, err := q.CategorizeMeta()
	if err != nil {
		return fmt.Errorf("invalid categorize meta: %w", err)
	}

	categoryIDs := make(map[string]bool, len(meta.Categories))
	for _, c := range meta.Categories {
		if c.ID == "" {
			return fmt.Errorf("category id cannot be empty")
		}
		if categoryIDs[c.ID] {
			return fmt.Errorf("duplicate category id %q", c.ID)
		}
		categoryIDs[c.ID] = true
	}

	itemIDs := make(map[string]bool, len(meta.Items))
	for _, it := range meta.Items {
		if it.ID == "" {
			return fmt.Errorf("item id cannot be empty")
		}
		if itemIDs[it.ID] {
			return fmt.Errorf("duplicate item id %q", it.ID)
		}
		itemIDs[it.ID] = true

		// A non-null assignment must reference an existing category.
		if it.CategoryID != nil && *it.CategoryID != "" && !categoryIDs[*it.CategoryID] {
			return fmt.Errorf("item %q references non-existent category %q", it.ID, *it.CategoryID)
		}
	}

	return nil
}

func (v *QuestionValidator) validateCloze(q *models.Question) ([]string, error) {
	meta, err := q.ClozeMeta()
	if err != nil {
		return nil, fmt.Errorf("invalid cloze meta: %w", err)
	}

	blankIDs := make(map[string]bool, len(meta.Blanks))
	for _, b := range meta.Blanks {
		if b.ID == "" {
			return nil, fmt.Errorf("blank id cannot be empty")
		}
		if blankIDs[b.ID] {
			return nil, fmt.Errorf("duplicate blank id %q", b.ID)
		}
		blankIDs[b.ID] = true
	}

	var warnings []string
	div := cloze.FindOrphans(meta.Text, meta.Blanks)
	for _, id := range div.OrphanedMarkerIDs {
		warnings = append(warnings, fmt.Sprintf("token %s has no matching blank entry", cloze.Marker(id)))
	}
	for _, id := range div.MissingBlankIDs {
		warnings = append(warnings, fmt.Sprintf("blank %q has no token in the text", id))
	}
	return warnings, nil
}

func (v *QuestionValidator) validateComprehension(q *models.Question) error {
	meta, err := q.ComprehensionMeta()
	if err != nil {
		return fmt.Errorf("invalid comprehension meta: %w", err)
	}

	subIDs := make(map[string]bool, len(meta.SubQuestions))
	for _, sub := range meta.SubQuestions {
		if sub.ID == "" {
			return fmt.Errorf("sub-question id cannot be empty")
		}
		if subIDs[sub.ID] {
			return fmt.Errorf("duplicate sub-question id %q", sub.ID)
		}
		subIDs[sub.ID] = true

		switch sub.Kind {
		case models.SubQuestionMCQ:
			if len(sub.Options) < 2 {
				return fmt.Errorf("sub-question %q must have at least 2 options", sub.ID)
			}
			optionIDs := make(map[string]bool, len(sub.Options))
			for _, opt := range sub.Options {
				if opt.ID == "" {
					return fmt.Errorf("sub-question %q has an option without id", sub.ID)
				}
				if optionIDs[opt.ID] {
					return fmt.Errorf("sub-question %q has duplicate option id %q", sub.ID, opt.ID)
				}
				optionIDs[opt.ID] = true
			}
			if sub.CorrectOptionID != "" && !optionIDs[sub.CorrectOptionID] {
				return fmt.Errorf("sub-question %q correct option %q does not match any option", sub.ID, sub.CorrectOptionID)
			}
		case models.SubQuestionShort:
			// Free text; nothing structural to check.
		default:
			return fmt.Errorf("sub-question %q has unsupported kind %q", sub.ID, sub.Kind)
		}
	}

	return nil
}
