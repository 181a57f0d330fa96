package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmittedValue(t *testing.T) {
	mc := &Question{ID: "mc", Kind: MultipleChoice, Options: []string{"a", "b", "c"}}
	tf := &Question{ID: "tf", Kind: TrueFalse}
	sa := &Question{ID: "sa", Kind: ShortAnswer}

	tests := []struct {
		name     string
		question *Question
		raw      string
		want     AnswerValue
		wantErr  bool
	}{
		{"option index", mc, `1`, SelectedOption(1), false},
		{"option index out of range", mc, `7`, AnswerValue{}, true},
		{"negative option index", mc, `-1`, AnswerValue{}, true},
		{"text for multiple choice", mc, `"b"`, AnswerValue{}, true},
		{"true literal", tf, `"true"`, TrueFalseValue(true), false},
		{"false literal", tf, `"false"`, TrueFalseValue(false), false},
		{"non-boolean text", tf, `"yes"`, AnswerValue{}, true},
		{"number for true/false", tf, `1`, AnswerValue{}, true},
		{"free text", sa, `"Document Object Model"`, FreeText("Document Object Model"), false},
		{"number for short answer", sa, `3`, AnswerValue{}, true},
		{"malformed json", sa, `{`, AnswerValue{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubmittedValue(tt.question, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnswerMapRoundTrip(t *testing.T) {
	original := AnswerMap{
		"q1": SelectedOption(2),
		"q2": TrueFalseValue(true),
		"q3": FreeText("css"),
	}

	attempt := &Attempt{ID: "a1"}
	require.NoError(t, attempt.SetAnswers(original))

	// Stored as bare values keyed by question id.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(attempt.Answers, &raw))
	assert.JSONEq(t, `2`, string(raw["q1"]))
	assert.JSONEq(t, `"true"`, string(raw["q2"]))
	assert.JSONEq(t, `"css"`, string(raw["q3"]))

	decoded, err := attempt.AnswerValues()
	require.NoError(t, err)

	// Numbers come back as multiple choice; string kinds are re-derived
	// from the owning question, so the tag stays empty here.
	assert.Equal(t, MultipleChoice, decoded["q1"].Kind)
	assert.Equal(t, 2, decoded["q1"].Index)
	assert.Equal(t, "true", decoded["q2"].Text)
	assert.Equal(t, "css", decoded["q3"].Text)
}

func TestAnswerValuesEmpty(t *testing.T) {
	attempt := &Attempt{ID: "a1"}
	m, err := attempt.AnswerValues()
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestDisplayText(t *testing.T) {
	mc := &Question{ID: "mc", Kind: MultipleChoice, Options: []string{"a", "b"}}
	tf := &Question{ID: "tf", Kind: TrueFalse}
	sa := &Question{ID: "sa", Kind: ShortAnswer}

	assert.Equal(t, "b", SelectedOption(1).DisplayText(mc))
	assert.Equal(t, "(invalid option)", SelectedOption(9).DisplayText(mc))
	assert.Equal(t, "True", TrueFalseValue(true).DisplayText(tf))
	assert.Equal(t, "False", TrueFalseValue(false).DisplayText(tf))
	assert.Equal(t, "dom", FreeText("dom").DisplayText(sa))
}
