package content

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type QuizType string

const (
	Single   QuizType = "single"
	Multiple QuizType = "multiple"
)

type Option struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"isCorrect"`
}

type Quiz struct {
	Question    string   `json:"question" validate:"required"`
	Options     []Option `json:"options" validate:"required,min=2,dive"`
	Type        QuizType `json:"type" validate:"omitempty,oneof=single multiple"`
	Explanation string   `json:"explanation,omitempty"`
}

// QuizError keeps the payload that failed to parse so it can be shown back
// to the reader.
type QuizError struct {
	Raw string
	Err error
}

func (e *QuizError) Error() string {
	return fmt.Sprintf("malformed quiz: %v", e.Err)
}

func (e *QuizError) Unwrap() error { return e.Err }

var validate = validator.New()

func ParseQuiz(raw string) (*Quiz, error) {
	var q Quiz
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		return nil, &QuizError{Raw: raw, Err: err}
	}
	if err := validate.Struct(&q); err != nil {
		return nil, &QuizError{Raw: raw, Err: err}
	}
	if q.Type == "" {
		q.Type = Single
	}
	if dup := lo.FindDuplicates(lo.Map(q.Options, func(o Option, _ int) string { return o.ID })); len(dup) > 0 {
		return nil, &QuizError{Raw: raw, Err: errors.Errorf("duplicate option ids %v", dup)}
	}
	correct := q.Correct()
	switch {
	case len(correct) == 0:
		return nil, &QuizError{Raw: raw, Err: errors.New("no correct option")}
	case q.Type == Single && len(correct) > 1:
		return nil, &QuizError{Raw: raw, Err: errors.New("single choice quiz with several correct options")}
	}
	return &q, nil
}

// Correct lists the ids of the correct options in order.
func (q *Quiz) Correct() []string {
	return lo.FilterMap(q.Options, func(o Option, _ int) (string, bool) { return o.ID, o.IsCorrect })
}

type Result struct {
	Correct bool
	// Wrong are selected options that are not correct.
	Wrong []string
	// Missed are correct options that were not selected.
	Missed []string
}

// Grade checks a selection. A single choice quiz takes exactly one id.
func (q *Quiz) Grade(ids []string) (Result, error) {
	if len(ids) == 0 {
		return Result{}, errors.New("select an answer first")
	}
	if q.Type == Single && len(ids) > 1 {
		return Result{}, errors.Errorf("single choice quiz, got %d answers", len(ids))
	}
	known := lo.Map(q.Options, func(o Option, _ int) string { return o.ID })
	if unknown := lo.Without(ids, known...); len(unknown) > 0 {
		return Result{}, errors.Errorf("unknown options %v", unknown)
	}
	ids = lo.Uniq(ids)
	correct := q.Correct()
	wrong := lo.Without(ids, correct...)
	missed := lo.Without(correct, ids...)
	return Result{
		Correct: len(wrong) == 0 && len(missed) == 0,
		Wrong:   wrong,
		Missed:  missed,
	}, nil
}
