package collector

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"FractalSentinel/internal/model"
)

func TestCollect_SortsAndDeduplicates(t *testing.T) {
	d := func(day int) time.Time {
		return time.Date(2024, 7, day, 0, 0, 0, 0, CST)
	}
	fetcher := &MockFetcher{Bars: map[string][]model.Bar{
		"600519": {
			{Date: d(3), Close: 3},
			{Date: d(1), Close: 1},
			{Date: d(2), Close: 2},
			{Date: d(2), Close: 2.5}, // duplicate date
		},
	}}
	col := NewCollector(fetcher)
	bars, err := col.Collect("600519", d(1), d(3))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars after dedupe, got %d", len(bars))
	}
	if !model.SortedByDate(bars) {
		t.Error("collected bars must be strictly ascending by date")
	}
	for i, want := range []float64{1, 2, 3} {
		if bars[i].Close != want {
			t.Errorf("bar %d: expected close %.1f, got %.1f", i, want, bars[i].Close)
		}
	}
}

func TestCollect_FetchErrorPropagates(t *testing.T) {
	col := NewCollector(&MockFetcher{Err: errors.New("boom")})
	if _, err := col.Collect("600519", time.Now().AddDate(0, 0, -10), time.Now()); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"600519", "600519.SH"},
		{"601318", "601318.SH"},
		{"000001", "000001.SZ"},
		{"000300", "000300.SZ"},
		{"399001", "399001.SZ"},
		{"300750", "300750.SZ"},
		{"600519.SH", "600519.SH"},
		{"000001.SZ", "000001.SZ"},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestIsIndexCode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"000001", true},
		{"399001", true},
		{"600519", false},
		{"300750", false},
	}
	for _, tt := range tests {
		if got := IsIndexCode(tt.in); got != tt.want {
			t.Errorf("IsIndexCode(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestTushareFetcher_ParsesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"code": 0,
			"msg": "",
			"data": {
				"fields": ["trade_date", "open", "high", "low", "close", "vol"],
				"items": [
					["20240702", 10.5, 11.0, 10.2, 10.8, 120000],
					["20240701", 10.0, 10.6, 9.9, 10.4, 100000]
				]
			}
		}`))
	}))
	defer srv.Close()

	f := NewTushareFetcher(srv.URL, "test-token", "")
	bars, err := f.FetchDailyBars("600519", time.Date(2024, 7, 1, 0, 0, 0, 0, CST), time.Date(2024, 7, 2, 0, 0, 0, 0, CST))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	first := bars[0]
	if first.Open != 10.5 || first.Close != 10.8 || first.Volume != 120000 {
		t.Errorf("unexpected bar: %+v", first)
	}
	want := time.Date(2024, 7, 2, 0, 0, 0, 0, CST)
	if !first.Date.Equal(want) {
		t.Errorf("expected date %v, got %v", want, first.Date)
	}
}

func TestTushareFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 2002, "msg": "token invalid", "data": {"fields": [], "items": []}}`))
	}))
	defer srv.Close()

	f := NewTushareFetcher(srv.URL, "bad-token", "")
	if _, err := f.FetchDailyBars("600519", time.Now().AddDate(0, 0, -5), time.Now()); err == nil {
		t.Fatal("expected API error")
	}
}
