package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type allowList map[int64]bool

func (a allowList) IsAdmin(_ context.Context, telegramID int64) (bool, error) {
	return a[telegramID], nil
}

func exportRequest(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ExportResults(rec, req)
	return rec
}

func TestExportResultsParamValidation(t *testing.T) {
	h := NewHandler(NewService(&fakeResults{}), allowList{})

	rec := exportRequest(t, h, "/api/export-results?code=MATH1")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing telegram_id, got %d", rec.Code)
	}

	rec = exportRequest(t, h, "/api/export-results?code=MATH1&telegram_id=abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad telegram_id, got %d", rec.Code)
	}
}

func TestExportResultsRequiresAdmin(t *testing.T) {
	h := NewHandler(NewService(&fakeResults{}), allowList{})

	rec := exportRequest(t, h, "/api/export-results?code=MATH1&telegram_id=111")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestExportResultsCSV(t *testing.T) {
	h := NewHandler(NewService(&fakeResults{attempts: sampleAttempts(t)}), allowList{999: true})

	rec := exportRequest(t, h, "/api/export-results?code=MATH1&telegram_id=999")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "test_MATH1_results.csv") {
		t.Fatalf("unexpected disposition: %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Aziza Karimova") {
		t.Fatalf("csv body missing rows: %q", rec.Body.String())
	}
}

func TestExportResultsXLSX(t *testing.T) {
	h := NewHandler(NewService(&fakeResults{attempts: sampleAttempts(t)}), allowList{999: true})

	rec := exportRequest(t, h, "/api/export-results?code=MATH1&telegram_id=999&format=xlsx")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type: %q", ct)
	}
	if rec.Body.Len() == 0 {
		t.Fatalf("xlsx body should not be empty")
	}
}

func TestExportResultsUnknownFormat(t *testing.T) {
	h := NewHandler(NewService(&fakeResults{}), allowList{999: true})

	rec := exportRequest(t, h, "/api/export-results?code=MATH1&telegram_id=999&format=pdf")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown format, got %d", rec.Code)
	}
}
