// Package importer loads quiz question banks from spreadsheets. Expected
// columns, with a header row: kind, prompt, options (pipe-separated, multiple
// choice only), correct_answer, points, explanation.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/coursekit/quiz-engine/internal/models"
)

// RowError describes one rejected spreadsheet row.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Summary reports what an import did. Rows with errors are skipped, not
// fatal; the caller decides whether a partial import is acceptable.
type Summary struct {
	TotalRows    int        `json:"total_rows"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	Errors       []RowError `json:"errors,omitempty"`
}

// ReadQuestions parses every data row of the workbook's first sheet into
// questions for the given quiz id.
func ReadQuestions(r io.Reader, quizID string) ([]models.Question, *Summary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("sheet %s has no data rows", sheet)
	}

	summary := &Summary{}
	var questions []models.Question
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header
		summary.TotalRows++

		q, err := parseRow(row, quizID, len(questions))
		if err != nil {
			summary.ErrorCount++
			summary.Errors = append(summary.Errors, RowError{Row: rowNum, Message: err.Error()})
			continue
		}
		summary.SuccessCount++
		questions = append(questions, q)
	}
	return questions, summary, nil
}

func parseRow(row []string, quizID string, position int) (models.Question, error) {
	col := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	kind := models.QuestionKind(col(0))
	prompt := col(1)
	if prompt == "" {
		return models.Question{}, fmt.Errorf("empty prompt")
	}

	points := 1
	if raw := col(4); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return models.Question{}, fmt.Errorf("invalid points %q", raw)
		}
		points = n
	}

	q := models.Question{
		ID:            fmt.Sprintf("%s-q%d", quizID, position+1),
		QuizID:        quizID,
		Kind:          kind,
		Prompt:        prompt,
		CorrectAnswer: col(3),
		Points:        points,
		Position:      position,
	}
	if explanation := col(5); explanation != "" {
		q.Explanation = &explanation
	}

	switch kind {
	case models.MultipleChoice:
		options := strings.Split(col(2), "|")
		for i := range options {
			options[i] = strings.TrimSpace(options[i])
		}
		if len(options) < 2 {
			return models.Question{}, fmt.Errorf("multiple_choice needs at least two options")
		}
		q.Options = options
		if _, err := q.CorrectOptionIndex(); err != nil {
			return models.Question{}, err
		}
	case models.TrueFalse:
		if q.CorrectAnswer != "true" && q.CorrectAnswer != "false" {
			return models.Question{}, fmt.Errorf("correct_answer must be \"true\" or \"false\", got %q", q.CorrectAnswer)
		}
	case models.ShortAnswer:
		if q.CorrectAnswer == "" {
			return models.Question{}, fmt.Errorf("empty reference answer")
		}
	default:
		return models.Question{}, fmt.Errorf("unknown kind %q", kind)
	}
	return q, nil
}

// PopulateQuiz attaches imported questions to a quiz definition. When the
// definition declares no total, the total becomes the question sum so the
// points invariant holds.
func PopulateQuiz(quiz *models.Quiz, questions []models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("no questions to attach to quiz %s", quiz.ID)
	}
	sum := 0
	for _, q := range questions {
		sum += q.Points
	}
	if quiz.TotalPoints == 0 {
		quiz.TotalPoints = sum
	} else if quiz.TotalPoints != sum {
		return fmt.Errorf("quiz %s declares %d total points but questions sum to %d", quiz.ID, quiz.TotalPoints, sum)
	}
	quiz.Questions = questions
	return nil
}
