// Package common provides shared test infrastructure
package common

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/finsent/internal/interfaces"
	"github.com/bobmcallan/finsent/internal/models"
)

// MockEODHDClient implements EODHDClient for testing
type MockEODHDClient struct {
	EODData     map[string]*models.EODResponse
	Errors      map[string]error
	GetEODCalls int
	Tickers     []string
	Params      []interfaces.EODParams // options applied on each call

	mu sync.Mutex
}

// NewMockEODHDClient creates a mock EODHD client
func NewMockEODHDClient() *MockEODHDClient {
	return &MockEODHDClient{
		EODData: make(map[string]*models.EODResponse),
		Errors:  make(map[string]error),
	}
}

func (m *MockEODHDClient) GetEOD(ctx context.Context, ticker string, opts ...interfaces.EODOption) (*models.EODResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetEODCalls++
	m.Tickers = append(m.Tickers, ticker)
	var params interfaces.EODParams
	for _, opt := range opts {
		opt(&params)
	}
	m.Params = append(m.Params, params)
	if err, ok := m.Errors[ticker]; ok {
		return nil, err
	}
	if data, ok := m.EODData[ticker]; ok {
		return data, nil
	}
	// Return sample data
	return &models.EODResponse{
		Data: generateSampleBars(30),
	}, nil
}

// MockLLMClient implements LLMClient for testing.
// Replies are matched by substring of the prompt; Default is used otherwise.
type MockLLMClient struct {
	Replies map[string]string
	Default string
	// FailFirst makes the first N calls for each prompt return Err
	FailFirst int
	Err       error
	// Delay simulates request latency
	Delay time.Duration

	mu       sync.Mutex
	calls    int
	attempts map[string]int
	inFlight int
	peak     int
}

// NewMockLLMClient creates a mock LLM client answering "neutral" by default
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Replies:  make(map[string]string),
		Default:  `{"label": "neutral"}`,
		Err:      fmt.Errorf("mock API unavailable"),
		attempts: make(map[string]int),
	}
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.calls++
	m.attempts[prompt]++
	attempt := m.attempts[prompt]
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if attempt <= m.FailFirst {
		return "", m.Err
	}
	for key, reply := range m.Replies {
		if strings.Contains(prompt, key) {
			return reply, nil
		}
	}
	return m.Default, nil
}

func (m *MockLLMClient) Model() string {
	return "mock-model"
}

// Calls returns the total number of GenerateJSON calls
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// PeakInFlight returns the highest number of concurrent calls observed
func (m *MockLLMClient) PeakInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

func generateSampleBars(days int) []models.EODBar {
	bars := make([]models.EODBar, days)
	basePrice := 50.0
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i)
		change := (float64(i%10) - 5) * 0.1
		price := basePrice + change
		bars[i] = models.EODBar{
			Date:     date,
			Open:     price - 0.5,
			High:     price + 1.0,
			Low:      price - 1.0,
			Close:    price,
			AdjClose: price,
			Volume:   1000000 + int64(i*10000),
		}
	}
	return bars
}

var (
	_ interfaces.EODHDClient = (*MockEODHDClient)(nil)
	_ interfaces.LLMClient   = (*MockLLMClient)(nil)
)
