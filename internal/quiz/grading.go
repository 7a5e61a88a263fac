package quiz

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	QuestionOpen   = "open"
	QuestionClosed = "closed"
)

// QuestionKey identifies one question inside a test. The wire format encodes
// it as "{type}-{number}" (e.g. "open-3", "closed-1").
type QuestionKey struct {
	Type   string
	Number int
}

func (k QuestionKey) String() string {
	return k.Type + "-" + strconv.Itoa(k.Number)
}

// ParseQuestionKey parses the "{type}-{number}" wire form.
func ParseQuestionKey(s string) (QuestionKey, error) {
	typ, num, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return QuestionKey{}, fmt.Errorf("malformed question key %q", s)
	}
	if typ != QuestionOpen && typ != QuestionClosed {
		return QuestionKey{}, fmt.Errorf("unknown question type %q", typ)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return QuestionKey{}, fmt.Errorf("malformed question number %q", num)
	}
	return QuestionKey{Type: typ, Number: n}, nil
}

// AnswerKeyEntry is one correct answer from a test's answer key.
type AnswerKeyEntry struct {
	Key           QuestionKey
	CorrectAnswer string
}

// AnswerDetail is the graded record of one question, ready for persistence.
type AnswerDetail struct {
	QuestionNumber int    `json:"question_number"`
	QuestionType   string `json:"question_type"`
	Answer         string `json:"answer"`
	Correct        bool   `json:"correct"`
}

type GradeResult struct {
	Score      int
	Total      int
	Percentage int
	Details    []AnswerDetail
}

// Grade compares a submitted answer set against the answer key. Submitted
// values are looked up by question key; a missing submission counts as
// incorrect. Open answers match case-insensitively with surrounding whitespace
// trimmed; internal whitespace is significant. Closed answers must match the
// stored choice label exactly.
//
// Grade performs no I/O and never fails: malformed submissions simply do not
// match.
func Grade(key []AnswerKeyEntry, answers map[string]string, totalQuestions int) GradeResult {
	score := 0
	details := make([]AnswerDetail, 0, len(key))

	for _, entry := range key {
		submitted, ok := answers[entry.Key.String()]

		correct := false
		if ok {
			switch entry.Key.Type {
			case QuestionOpen:
				correct = matchOpen(submitted, entry.CorrectAnswer)
			default:
				correct = submitted == entry.CorrectAnswer
			}
		}
		if correct {
			score++
		}

		details = append(details, AnswerDetail{
			QuestionNumber: entry.Key.Number,
			QuestionType:   entry.Key.Type,
			Answer:         submitted,
			Correct:        correct,
		})
	}

	return GradeResult{
		Score:      score,
		Total:      totalQuestions,
		Percentage: percentage(score, totalQuestions),
		Details:    details,
	}
}

func matchOpen(submitted, correct string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
}

func percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
