package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/coursekit/quiz-engine/internal/models"
)

// Validator wraps go-playground struct validation with the engine's custom
// tags.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	validate.RegisterValidation("question_kind", validateQuestionKind)

	// Report json field names in validation errors.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: validate}
}

// Validate checks struct tags and returns the validator's error (a
// validator.ValidationErrors when fields fail).
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateQuiz combines struct-tag validation with the definition integrity
// invariants (points sum, option ranges, kind-specific correct answers).
func (v *Validator) ValidateQuiz(quiz *models.Quiz) error {
	if err := v.validate.Struct(quiz); err != nil {
		return err
	}
	return quiz.CheckIntegrity()
}

func validateQuestionKind(fl validator.FieldLevel) bool {
	switch models.QuestionKind(fl.Field().String()) {
	case models.MultipleChoice, models.TrueFalse, models.ShortAnswer:
		return true
	}
	return false
}
