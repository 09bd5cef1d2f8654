package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/finsent/internal/interfaces"
)

func TestGetEOD_ParsesBarsAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/eod/AAPL.US" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_token") != "test-key" {
			t.Errorf("api_token = %q", q.Get("api_token"))
		}
		if q.Get("fmt") != "json" {
			t.Errorf("fmt = %q", q.Get("fmt"))
		}
		if q.Get("order") != "a" {
			t.Errorf("order = %q, want ascending default", q.Get("order"))
		}
		if q.Get("period") != "w" {
			t.Errorf("period = %q, want w", q.Get("period"))
		}
		if q.Get("from") != "2019-01-01" {
			t.Errorf("from = %q", q.Get("from"))
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"date": "2019-01-02", "open": 154.89, "high": 158.85, "low": 154.23, "close": 157.92, "adjusted_close": 37.89, "volume": 37039700},
			{"date": "2019-01-03", "open": "143.98", "high": "145.72", "low": "142", "close": "142.19", "adjusted_close": "34.11", "volume": "91312200"},
			{"date": "not-a-date", "open": 1, "high": 1, "low": 1, "close": 1, "adjusted_close": 1, "volume": 1},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	from := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	resp, err := client.GetEOD(context.Background(), "AAPL.US", interfaces.WithDateRange(from, time.Time{}), interfaces.WithPeriod("w"))
	if err != nil {
		t.Fatalf("GetEOD failed: %v", err)
	}

	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(resp.Data))
	}
	if resp.Data[0].Close != 157.92 {
		t.Errorf("Close = %v, want 157.92", resp.Data[0].Close)
	}
	if resp.Data[1].AdjClose != 34.11 {
		t.Errorf("string AdjClose = %v, want 34.11", resp.Data[1].AdjClose)
	}
	if resp.Data[1].Volume != 91312200 {
		t.Errorf("string Volume = %v, want 91312200", resp.Data[1].Volume)
	}
	if !resp.Data[1].Date.Equal(time.Date(2019, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", resp.Data[1].Date)
	}
}

func TestGetEOD_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Unauthenticated"))
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))
	_, err := client.GetEOD(context.Background(), "AAPL.US")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if apiErr.Message != "Unauthenticated" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestFlexFloat64(t *testing.T) {
	cases := map[string]float64{
		`12.5`:   12.5,
		`"12.5"`: 12.5,
		`""`:     0,
		`"N/A"`:  0,
		`null`:   0,
	}
	for in, want := range cases {
		var f flexFloat64
		if err := json.Unmarshal([]byte(in), &f); err != nil {
			t.Errorf("%s: unexpected error %v", in, err)
			continue
		}
		if float64(f) != want {
			t.Errorf("%s: got %v, want %v", in, float64(f), want)
		}
	}
}
