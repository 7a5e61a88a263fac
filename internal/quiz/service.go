package quiz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTestNotFound    = errors.New("test not found")
	ErrTestCodeTaken   = errors.New("test code already in use")
	ErrAdminNotFound   = errors.New("admin not found")
	ErrInvalidAnswers  = errors.New("invalid answer set")
	ErrAttemptNotSaved = errors.New("attempt could not be saved")
	ErrResultNotSaved  = errors.New("graded result could not be saved")
)

// PassPercentage is the fixed pass threshold used by the statistics report.
const PassPercentage = 70

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

type Test struct {
	ID                   int64     `json:"id"`
	Code                 string    `json:"code"`
	Title                string    `json:"title"`
	AdminID              int64     `json:"admin_id"`
	OpenQuestionsCount   int       `json:"open_questions_count"`
	ClosedQuestionsCount int       `json:"closed_questions_count"`
	OptionsCount         int       `json:"options_count"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
}

// Attempt is one student's run at a test. Completion fields stay zero until
// grading commits; a failed grading commit leaves the row started forever and
// the student resubmits.
type Attempt struct {
	ID             int64      `json:"id"`
	TelegramID     int64      `json:"telegram_id"`
	FullName       string     `json:"full_name"`
	TestCode       string     `json:"test_code"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Score          int        `json:"score"`
	TotalQuestions int        `json:"total_questions"`
	Percentage     float64    `json:"percentage"`
}

type TestStats struct {
	TotalParticipants int     `json:"total_participants"`
	AveragePercentage float64 `json:"average_percentage"`
	MaxPercentage     float64 `json:"max_percentage"`
	MinPercentage     float64 `json:"min_percentage"`
	PassedCount       int     `json:"passed_count"`
}

type CreateTestInput struct {
	Code                 string
	Title                string
	AdminTelegramID      int64
	OpenQuestionsCount   int
	ClosedQuestionsCount int
	OptionsCount         int
}

type SubmitInput struct {
	TelegramID int64
	FullName   string
	TestCode   string
	Answers    map[string]string
}

type SubmitResult struct {
	AttemptID  int64
	Score      int
	Total      int
	Percentage int
}

func (s *Service) CreateTest(ctx context.Context, in CreateTestInput) (*Test, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create test tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var adminID int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM admins WHERE telegram_id = $1
	`, in.AdminTelegramID).Scan(&adminID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("resolve admin: %w", err)
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM tests WHERE code = $1`, in.Code).Scan(&exists)
	if err == nil {
		return nil, ErrTestCodeTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check test code: %w", err)
	}

	if in.OptionsCount <= 0 {
		in.OptionsCount = 4
	}

	test := &Test{
		Code:                 in.Code,
		Title:                in.Title,
		AdminID:              adminID,
		OpenQuestionsCount:   in.OpenQuestionsCount,
		ClosedQuestionsCount: in.ClosedQuestionsCount,
		OptionsCount:         in.OptionsCount,
		IsActive:             true,
		CreatedAt:            time.Now(),
	}
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO tests (code, title, admin_id, open_questions_count, closed_questions_count, options_count, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7)
		RETURNING id
	`, test.Code, test.Title, test.AdminID, test.OpenQuestionsCount, test.ClosedQuestionsCount, test.OptionsCount, test.CreatedAt).Scan(&test.ID); err != nil {
		return nil, fmt.Errorf("insert test: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create test: %w", err)
	}
	return test, nil
}

// GetTestByCode returns the active test with the given code.
func (s *Service) GetTestByCode(ctx context.Context, code string) (*Test, error) {
	test := &Test{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, code, title, admin_id, open_questions_count, closed_questions_count, options_count, is_active, created_at
		FROM tests
		WHERE code = $1 AND is_active = TRUE
	`, code).Scan(
		&test.ID,
		&test.Code,
		&test.Title,
		&test.AdminID,
		&test.OpenQuestionsCount,
		&test.ClosedQuestionsCount,
		&test.OptionsCount,
		&test.IsActive,
		&test.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("load test: %w", err)
	}
	return test, nil
}

// ReplaceAnswerKey swaps the whole answer key of a test in one transaction:
// existing rows are deleted, then one row is inserted per submitted entry.
// A malformed key or a failed insert rolls everything back.
func (s *Service) ReplaceAnswerKey(ctx context.Context, testID int64, answers map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin answer key tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM test_answers WHERE test_id = $1`, testID); err != nil {
		return fmt.Errorf("clear answer key: %w", err)
	}

	for raw, correct := range answers {
		key, err := ParseQuestionKey(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAnswers, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO test_answers (test_id, question_number, question_type, correct_answer)
			VALUES ($1, $2, $3, $4)
		`, testID, key.Number, key.Type, correct); err != nil {
			return fmt.Errorf("insert answer key entry %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit answer key: %w", err)
	}
	return nil
}

// FetchAnswerKey returns all answer key entries for a test. The ordering is
// presentational only; grading indexes entries by question key.
func (s *Service) FetchAnswerKey(ctx context.Context, testID int64) ([]AnswerKeyEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_number, question_type, correct_answer
		FROM test_answers
		WHERE test_id = $1
		ORDER BY question_type, question_number
	`, testID)
	if err != nil {
		return nil, fmt.Errorf("query answer key: %w", err)
	}
	defer rows.Close()

	entries := make([]AnswerKeyEntry, 0)
	for rows.Next() {
		var e AnswerKeyEntry
		if err := rows.Scan(&e.Key.Number, &e.Key.Type, &e.CorrectAnswer); err != nil {
			return nil, fmt.Errorf("scan answer key entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answer key: %w", err)
	}
	return entries, nil
}

// StartAttempt records a new attempt for an active test. Repeat submissions by
// the same student are allowed and create independent rows.
func (s *Service) StartAttempt(ctx context.Context, telegramID int64, fullName, testCode string) (*Attempt, error) {
	var testID int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT id FROM tests WHERE code = $1 AND is_active = TRUE
	`, testCode).Scan(&testID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("validate test: %w", err)
	}

	attempt := &Attempt{
		TelegramID: telegramID,
		FullName:   fullName,
		TestCode:   testCode,
		StartedAt:  time.Now(),
	}
	if err := s.db.QueryRowContext(ctx, `
		INSERT INTO students (telegram_id, full_name, test_code, started_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, attempt.TelegramID, attempt.FullName, attempt.TestCode, attempt.StartedAt).Scan(&attempt.ID); err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return attempt, nil
}

// CommitGrading writes the per-question details and the aggregate result in a
// single transaction. On any failure everything rolls back and the attempt
// stays in its started state.
func (s *Service) CommitGrading(ctx context.Context, attemptID int64, details []AnswerDetail, score, total, pct int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grading tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range details {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO student_answers (student_id, question_number, question_type, student_answer, is_correct)
			VALUES ($1, $2, $3, $4, $5)
		`, attemptID, d.QuestionNumber, d.QuestionType, d.Answer, d.Correct); err != nil {
			return fmt.Errorf("insert answer detail: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE students
		SET completed_at = $2, score = $3, total_questions = $4, percentage = $5
		WHERE id = $1
	`, attemptID, time.Now(), score, total, pct); err != nil {
		return fmt.Errorf("update attempt result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grading: %w", err)
	}
	return nil
}

// SubmitTest runs the full submission pipeline: validate the test, record the
// attempt, grade the answers against the stored key and persist the result.
func (s *Service) SubmitTest(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	test, err := s.GetTestByCode(ctx, in.TestCode)
	if err != nil {
		return nil, err
	}

	attempt, err := s.StartAttempt(ctx, in.TelegramID, in.FullName, in.TestCode)
	if err != nil {
		if errors.Is(err, ErrTestNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrAttemptNotSaved, err)
	}

	key, err := s.FetchAnswerKey(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultNotSaved, err)
	}

	total := test.OpenQuestionsCount + test.ClosedQuestionsCount
	graded := Grade(key, in.Answers, total)

	if err := s.CommitGrading(ctx, attempt.ID, graded.Details, graded.Score, graded.Total, graded.Percentage); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResultNotSaved, err)
	}

	return &SubmitResult{
		AttemptID:  attempt.ID,
		Score:      graded.Score,
		Total:      graded.Total,
		Percentage: graded.Percentage,
	}, nil
}

// ListResults returns all completed attempts for a test code, best percentage
// first; completion time breaks ties with earlier completions ranked higher.
func (s *Service) ListResults(ctx context.Context, testCode string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, telegram_id, full_name, test_code, started_at, completed_at,
		       COALESCE(score, 0), COALESCE(total_questions, 0), COALESCE(percentage, 0)
		FROM students
		WHERE test_code = $1 AND completed_at IS NOT NULL
		ORDER BY percentage DESC, completed_at ASC
	`, testCode)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	results := make([]Attempt, 0)
	for rows.Next() {
		var (
			a           Attempt
			telegramID  sql.NullInt64
			completedAt sql.NullTime
		)
		if err := rows.Scan(&a.ID, &telegramID, &a.FullName, &a.TestCode, &a.StartedAt, &completedAt, &a.Score, &a.TotalQuestions, &a.Percentage); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		a.TelegramID = telegramID.Int64
		if completedAt.Valid {
			t := completedAt.Time
			a.CompletedAt = &t
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// Stats aggregates completed attempts for a test code. All values are zero,
// never null, when nobody has completed the test yet.
func (s *Service) Stats(ctx context.Context, testCode string) (*TestStats, error) {
	stats := &TestStats{}
	if err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(percentage), 0),
			COALESCE(MAX(percentage), 0),
			COALESCE(MIN(percentage), 0),
			COALESCE(SUM(CASE WHEN percentage >= $2 THEN 1 ELSE 0 END), 0)
		FROM students
		WHERE test_code = $1 AND completed_at IS NOT NULL
	`, testCode, PassPercentage).Scan(
		&stats.TotalParticipants,
		&stats.AveragePercentage,
		&stats.MaxPercentage,
		&stats.MinPercentage,
		&stats.PassedCount,
	); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	return stats, nil
}
