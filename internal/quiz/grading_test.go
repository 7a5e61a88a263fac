package quiz

import "testing"

func answerKey(entries ...AnswerKeyEntry) []AnswerKeyEntry {
	return entries
}

func open(n int, correct string) AnswerKeyEntry {
	return AnswerKeyEntry{Key: QuestionKey{Type: QuestionOpen, Number: n}, CorrectAnswer: correct}
}

func closed(n int, correct string) AnswerKeyEntry {
	return AnswerKeyEntry{Key: QuestionKey{Type: QuestionClosed, Number: n}, CorrectAnswer: correct}
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name       string
		key        []AnswerKeyEntry
		answers    map[string]string
		total      int
		score      int
		percentage int
	}{
		{
			name:    "all correct with normalization",
			key:     answerKey(open(1, "42"), closed(1, "B")),
			answers: map[string]string{"open-1": " 42 ", "closed-1": "B"},
			total:   2, score: 2, percentage: 100,
		},
		{
			name:    "open wrong and closed case mismatch",
			key:     answerKey(open(1, "42"), closed(1, "B")),
			answers: map[string]string{"open-1": "43", "closed-1": "b"},
			total:   2, score: 0, percentage: 0,
		},
		{
			name:    "open match is case insensitive",
			key:     answerKey(open(1, "Paris")),
			answers: map[string]string{"open-1": "paris"},
			total:   1, score: 1, percentage: 100,
		},
		{
			name:    "open match trims surrounding whitespace only",
			key:     answerKey(open(1, "Paris")),
			answers: map[string]string{"open-1": " Paris "},
			total:   1, score: 1, percentage: 100,
		},
		{
			name:    "open match keeps internal whitespace significant",
			key:     answerKey(open(1, "New York")),
			answers: map[string]string{"open-1": "New  York"},
			total:   1, score: 0, percentage: 0,
		},
		{
			name:    "closed match is exact",
			key:     answerKey(closed(1, "A")),
			answers: map[string]string{"closed-1": "a"},
			total:   1, score: 0, percentage: 0,
		},
		{
			name:    "missing submission is incorrect not an error",
			key:     answerKey(open(1, "42"), closed(1, "B")),
			answers: map[string]string{"closed-1": "B"},
			total:   2, score: 1, percentage: 50,
		},
		{
			name:    "nil answer map",
			key:     answerKey(open(1, "42")),
			answers: nil,
			total:   1, score: 0, percentage: 0,
		},
		{
			name:    "extra submitted keys are ignored",
			key:     answerKey(open(1, "42")),
			answers: map[string]string{"open-1": "42", "open-9": "nope"},
			total:   1, score: 1, percentage: 100,
		},
		{
			name:    "percentage rounds half up",
			key:     answerKey(open(1, "a"), open(2, "b"), open(3, "c"), open(4, "d"), open(5, "e"), open(6, "f"), open(7, "g"), open(8, "h")),
			answers: map[string]string{"open-1": "a"},
			total:   8, score: 1, percentage: 13, // 12.5 -> 13
		},
		{
			name:    "percentage rounds down below half",
			key:     answerKey(open(1, "a"), open(2, "b"), open(3, "c")),
			answers: map[string]string{"open-1": "a"},
			total:   3, score: 1, percentage: 33,
		},
		{
			name:    "zero total yields zero percentage",
			key:     nil,
			answers: map[string]string{},
			total:   0, score: 0, percentage: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Grade(tc.key, tc.answers, tc.total)
			if got.Score != tc.score {
				t.Fatalf("expected score=%d, got=%d", tc.score, got.Score)
			}
			if got.Total != tc.total {
				t.Fatalf("expected total=%d, got=%d", tc.total, got.Total)
			}
			if got.Percentage != tc.percentage {
				t.Fatalf("expected percentage=%d, got=%d", tc.percentage, got.Percentage)
			}
			if got.Score < 0 || got.Score > got.Total && got.Total > 0 {
				t.Fatalf("score %d out of bounds for total %d", got.Score, got.Total)
			}
			if len(got.Details) != len(tc.key) {
				t.Fatalf("expected %d details, got %d", len(tc.key), len(got.Details))
			}
		})
	}
}

func TestGradeDetails(t *testing.T) {
	got := Grade(answerKey(open(1, "42"), closed(2, "C")), map[string]string{"open-1": "wrong", "closed-2": "C"}, 2)

	if got.Details[0].QuestionType != QuestionOpen || got.Details[0].QuestionNumber != 1 {
		t.Fatalf("unexpected first detail: %+v", got.Details[0])
	}
	if got.Details[0].Correct {
		t.Fatalf("expected first detail incorrect")
	}
	if got.Details[0].Answer != "wrong" {
		t.Fatalf("expected submitted value echoed, got %q", got.Details[0].Answer)
	}
	if !got.Details[1].Correct {
		t.Fatalf("expected second detail correct")
	}
}

func TestParseQuestionKey(t *testing.T) {
	tests := []struct {
		in      string
		want    QuestionKey
		wantErr bool
	}{
		{in: "open-1", want: QuestionKey{Type: "open", Number: 1}},
		{in: "closed-12", want: QuestionKey{Type: "closed", Number: 12}},
		{in: " open-3 ", want: QuestionKey{Type: "open", Number: 3}},
		{in: "open1", wantErr: true},
		{in: "essay-1", wantErr: true},
		{in: "open-x", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseQuestionKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseQuestionKey(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseQuestionKey(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseQuestionKey(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestQuestionKeyString(t *testing.T) {
	k := QuestionKey{Type: QuestionClosed, Number: 7}
	if k.String() != "closed-7" {
		t.Fatalf("unexpected wire form %q", k.String())
	}
}
