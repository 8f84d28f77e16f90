package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func paramContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/admin/1098t/forms?"+query, nil)
	return c
}

func TestYearParam(t *testing.T) {
	year, err := yearParam(paramContext(t, "year=2024"))
	if err != nil {
		t.Fatalf("yearParam: %v", err)
	}
	if year != 2024 {
		t.Fatalf("year: want=2024 got=%d", year)
	}

	if _, err := yearParam(paramContext(t, "")); err == nil {
		t.Fatalf("missing year must fail")
	}
	if _, err := yearParam(paramContext(t, "year=twenty24")); err == nil {
		t.Fatalf("non-numeric year must fail")
	}
}

func TestRangeParamsExplicit(t *testing.T) {
	start, end, err := rangeParams(paramContext(t, "from=2024-01-01&until=2024-07-01"))
	if err != nil {
		t.Fatalf("rangeParams: %v", err)
	}
	if start.Format("2006-01-02") != "2024-01-01" || end.Format("2006-01-02") != "2024-07-01" {
		t.Fatalf("range: %v .. %v", start, end)
	}
}

func TestRangeParamsDefaultIsPriorYear(t *testing.T) {
	start, end, err := rangeParams(paramContext(t, ""))
	if err != nil {
		t.Fatalf("rangeParams: %v", err)
	}
	prior := time.Now().Year() - 1
	if start.Year() != prior || start.Month() != time.January || start.Day() != 1 {
		t.Fatalf("default start: %v", start)
	}
	if end.Year() != prior+1 || end.Month() != time.January || end.Day() != 1 {
		t.Fatalf("default end must be exclusive next Jan 1: %v", end)
	}
}

func TestRangeParamsRejectsHalfRange(t *testing.T) {
	if _, _, err := rangeParams(paramContext(t, "from=2024-01-01")); err == nil {
		t.Fatalf("from without until must fail")
	}
	if _, _, err := rangeParams(paramContext(t, "until=2024-07-01")); err == nil {
		t.Fatalf("until without from must fail")
	}
}

func TestRangeParamsRejectsInvertedRange(t *testing.T) {
	if _, _, err := rangeParams(paramContext(t, "from=2024-07-01&until=2024-01-01")); err == nil {
		t.Fatalf("inverted range must fail")
	}
	if _, _, err := rangeParams(paramContext(t, "from=2024-07-01&until=2024-07-01")); err == nil {
		t.Fatalf("empty range must fail")
	}
}

func TestRangeParamsRejectsBadDates(t *testing.T) {
	if _, _, err := rangeParams(paramContext(t, "from=01/01/2024&until=2024-07-01")); err == nil {
		t.Fatalf("non-ISO from must fail")
	}
	if _, _, err := rangeParams(paramContext(t, "from=2024-01-01&until=July")); err == nil {
		t.Fatalf("non-ISO until must fail")
	}
}
