package validator

import (
	"reflect"
	"strings"

	"github.com/formlab/form-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator combines struct-tag validation with question-variant validation.
type Validator struct {
	structValidator   *validator.Validate
	questionValidator *QuestionValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator:   structValidator,
		questionValidator: NewQuestionValidator(),
	}
}

// ValidateStruct validates struct tags, translating failures into the
// shared ValidationErrors type.
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Question returns the question validator
func (v *Validator) Question() *QuestionValidator {
	return v.questionValidator
}

func validQuestionType(fl validator.FieldLevel) bool {
	switch models.QuestionType(fl.Field().String()) {
	case models.QuestionCategorize, models.QuestionCloze, models.QuestionComprehension:
		return true
	}
	return false
}

func validSubQuestionKind(fl validator.FieldLevel) bool {
	switch models.SubQuestionKind(fl.Field().String()) {
	case models.SubQuestionMCQ, models.SubQuestionShort:
		return true
	}
	return false
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_type", validQuestionType)
	validate.RegisterValidation("subquestion_kind", validSubQuestionKind)

	// Report json field names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}
