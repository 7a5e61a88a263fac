package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abdufattohfattoyev/test-bot-web/internal/quiz"
)

type fakeResults struct {
	attempts []quiz.Attempt
	err      error
}

func (f *fakeResults) ListResults(_ context.Context, _ string) ([]quiz.Attempt, error) {
	return f.attempts, f.err
}

func sampleAttempts(t *testing.T) []quiz.Attempt {
	t.Helper()
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(25 * time.Minute)
	return []quiz.Attempt{
		{
			ID:             1,
			TelegramID:     111,
			FullName:       "Aziza Karimova",
			TestCode:       "MATH1",
			StartedAt:      started,
			CompletedAt:    &completed,
			Score:          9,
			TotalQuestions: 10,
			Percentage:     90,
		},
		{
			ID:             2,
			TelegramID:     222,
			FullName:       "Bobur Toshmatov",
			TestCode:       "MATH1",
			StartedAt:      started,
			CompletedAt:    &completed,
			Score:          7,
			TotalQuestions: 10,
			Percentage:     70,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	svc := NewService(&fakeResults{attempts: sampleAttempts(t)})

	var buf bytes.Buffer
	if err := svc.WriteCSV(context.Background(), &buf, "MATH1"); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "Ism Familiya,Telegram ID") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "Aziza Karimova") || !strings.Contains(lines[1], "90%") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if !strings.Contains(lines[1], "2024-03-01 10:00:00") {
		t.Fatalf("started time missing from row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "Bobur Toshmatov") || !strings.Contains(lines[2], "70%") {
		t.Fatalf("unexpected second row: %q", lines[2])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	svc := NewService(&fakeResults{})

	var buf bytes.Buffer
	if err := svc.WriteCSV(context.Background(), &buf, "MATH1"); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %q", buf.String())
	}
}

func TestWriteCSVSourceError(t *testing.T) {
	wantErr := errors.New("db down")
	svc := NewService(&fakeResults{err: wantErr})

	var buf bytes.Buffer
	err := svc.WriteCSV(context.Background(), &buf, "MATH1")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected source error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written on source error, got %q", buf.String())
	}
}

func TestBuildXLSX(t *testing.T) {
	svc := NewService(&fakeResults{attempts: sampleAttempts(t)})

	f, err := svc.BuildXLSX(context.Background(), "MATH1")
	if err != nil {
		t.Fatalf("BuildXLSX: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)

	header, err := f.GetCellValue(sheet, "A1")
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if header != "Ism Familiya" {
		t.Fatalf("unexpected header cell: %q", header)
	}

	name, err := f.GetCellValue(sheet, "A2")
	if err != nil {
		t.Fatalf("read name: %v", err)
	}
	if name != "Aziza Karimova" {
		t.Fatalf("unexpected name cell: %q", name)
	}

	pct, err := f.GetCellValue(sheet, "G3")
	if err != nil {
		t.Fatalf("read percentage: %v", err)
	}
	if pct != "70" {
		t.Fatalf("unexpected percentage cell: %q", pct)
	}
}
