package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abdufattohfattoyev/test-bot-web/internal/quiz"
)

// ResultsSource supplies the completed attempts to export; the quiz service
// satisfies it.
type ResultsSource interface {
	ListResults(ctx context.Context, testCode string) ([]quiz.Attempt, error)
}

type Service struct {
	results ResultsSource
}

func NewService(results ResultsSource) *Service {
	return &Service{results: results}
}

var exportHeader = []string{
	"Ism Familiya",
	"Telegram ID",
	"Boshlagan vaqt",
	"Tugatgan vaqt",
	"To'g'ri javoblar",
	"Umumiy savollar",
	"Foiz",
}

// WriteCSV streams the completed attempts for a test code as CSV rows, best
// result first.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer, testCode string) error {
	results, err := s.results.ListResults(ctx, testCode)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.FullName,
			strconv.FormatInt(r.TelegramID, 10),
			formatTime(&r.StartedAt),
			formatTime(r.CompletedAt),
			strconv.Itoa(r.Score),
			strconv.Itoa(r.TotalQuestions),
			fmt.Sprintf("%.0f%%", r.Percentage),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// BuildXLSX renders the same export as an Excel workbook.
func (s *Service) BuildXLSX(ctx context.Context, testCode string) (*excelize.File, error) {
	results, err := s.results.ListResults(ctx, testCode)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for i, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("write header cell: %w", err)
		}
	}

	for rowIdx, r := range results {
		values := []interface{}{
			r.FullName,
			r.TelegramID,
			formatTime(&r.StartedAt),
			formatTime(r.CompletedAt),
			r.Score,
			r.TotalQuestions,
			r.Percentage,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("write result cell: %w", err)
			}
		}
	}

	return f, nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}
