package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AnswerValue is the tagged union for one submitted answer, discriminated by
// the question kind: an option index for multiple choice, the literal
// "true"/"false" for true/false, free text for short answer.
//
// On the wire and in storage a value is a bare JSON number or string, matching
// the persisted attempt layout; the kind tag is re-derived from the question
// when a stored value is graded or rendered.
type AnswerValue struct {
	Kind  QuestionKind `json:"-"`
	Index int          `json:"-"`
	Text  string       `json:"-"`
}

// SelectedOption builds a multiple choice answer.
func SelectedOption(index int) AnswerValue {
	return AnswerValue{Kind: MultipleChoice, Index: index}
}

// TrueFalseValue builds a true/false answer.
func TrueFalseValue(value bool) AnswerValue {
	return AnswerValue{Kind: TrueFalse, Text: strconv.FormatBool(value)}
}

// FreeText builds a short answer.
func FreeText(text string) AnswerValue {
	return AnswerValue{Kind: ShortAnswer, Text: text}
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.Kind == MultipleChoice {
		return json.Marshal(v.Index)
	}
	return json.Marshal(v.Text)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var idx int
	if err := json.Unmarshal(data, &idx); err == nil {
		v.Kind = MultipleChoice
		v.Index = idx
		v.Text = ""
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("answer value must be a number or a string: %w", err)
	}
	// true_false and short_answer are both stored as strings; the owning
	// question decides which rule applies.
	v.Kind = ""
	v.Index = 0
	v.Text = text
	return nil
}

// ParseSubmittedValue validates a raw JSON value against the question's
// expected value type and returns the typed answer. This is the boundary
// check for Answer(): shape only, never correctness.
func ParseSubmittedValue(q *Question, raw json.RawMessage) (AnswerValue, error) {
	var v AnswerValue
	if err := json.Unmarshal(raw, &v); err != nil {
		return AnswerValue{}, err
	}
	switch q.Kind {
	case MultipleChoice:
		if v.Kind != MultipleChoice {
			return AnswerValue{}, fmt.Errorf("question %s expects an option index", q.ID)
		}
		if v.Index < 0 || v.Index >= len(q.Options) {
			return AnswerValue{}, fmt.Errorf("question %s option index %d out of range", q.ID, v.Index)
		}
	case TrueFalse:
		if v.Kind == MultipleChoice {
			return AnswerValue{}, fmt.Errorf("question %s expects \"true\" or \"false\"", q.ID)
		}
		if v.Text != "true" && v.Text != "false" {
			return AnswerValue{}, fmt.Errorf("question %s expects \"true\" or \"false\", got %q", q.ID, v.Text)
		}
		v.Kind = TrueFalse
	case ShortAnswer:
		if v.Kind == MultipleChoice {
			return AnswerValue{}, fmt.Errorf("question %s expects free text", q.ID)
		}
		v.Kind = ShortAnswer
	default:
		return AnswerValue{}, fmt.Errorf("question %s has unknown kind %q", q.ID, q.Kind)
	}
	return v, nil
}

// DisplayText renders the value the way the reviewer shows it to the user.
func (v AnswerValue) DisplayText(q *Question) string {
	switch q.Kind {
	case MultipleChoice:
		if v.Kind != MultipleChoice || v.Index < 0 || v.Index >= len(q.Options) {
			return "(invalid option)"
		}
		return q.Options[v.Index]
	case TrueFalse:
		if v.Text == "true" {
			return "True"
		}
		return "False"
	default:
		return v.Text
	}
}

// AnswerMap maps question ids to submitted values. Keys are present only for
// questions the user actually answered.
type AnswerMap map[string]AnswerValue
