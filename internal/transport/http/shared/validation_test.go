package shared

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Run("plain date", func(t *testing.T) {
		parsed, err := ParseDate("2026-03-02")
		if err != nil {
			t.Fatalf("ParseDate: %v", err)
		}
		want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		if !parsed.Equal(want) {
			t.Errorf("parsed = %v, want %v", parsed, want)
		}
	})

	t.Run("rfc3339", func(t *testing.T) {
		parsed, err := ParseDate("2026-03-02T09:30:00Z")
		if err != nil {
			t.Fatalf("ParseDate: %v", err)
		}
		if parsed.Hour() != 9 || parsed.Minute() != 30 {
			t.Errorf("parsed = %v, want 09:30", parsed)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseDate("last tuesday"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Required("motive", "", "is required")
	v.Add("endDate", "must be on or after startDate")

	if !v.HasIssues() {
		t.Fatal("expected issues")
	}
	issues := v.Issues()
	if len(issues) != 2 {
		t.Fatalf("issues = %d, want 2", len(issues))
	}
	if issues[0].Field != "endDate" || issues[1].Field != "motive" {
		t.Errorf("issues not sorted by field: %+v", issues)
	}
}

func TestParsePaginationClampsLimit(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=5000&skip=20", nil)
	p := ParsePagination(req, 50, 200)
	if p.Limit != 200 {
		t.Errorf("limit = %d, want 200", p.Limit)
	}
	if p.Skip != 20 {
		t.Errorf("skip = %d, want 20", p.Skip)
	}

	req = httptest.NewRequest("GET", "/?limit=-3&skip=junk", nil)
	p = ParsePagination(req, 50, 200)
	if p.Limit != 50 || p.Skip != 0 {
		t.Errorf("defaults not applied: %+v", p)
	}

	req = httptest.NewRequest("GET", "/?offset=30", nil)
	if p = ParsePagination(req, 50, 200); p.Skip != 30 {
		t.Errorf("offset alias not honored: %+v", p)
	}
}
