// Package interfaces defines service contracts for finsent
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/finsent/internal/models"
)

// LLMClient sends a single prompt to a hosted generation endpoint and
// returns the raw text of the first candidate.
type LLMClient interface {
	// GenerateJSON sends the system instruction and prompt, asking for a JSON reply
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)

	// Model names the model the client talks to
	Model() string
}

// EODHDClient provides access to EODHD API
type EODHDClient interface {
	// GetEOD retrieves end-of-day price data
	GetEOD(ctx context.Context, ticker string, opts ...EODOption) (*models.EODResponse, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // d=daily, w=weekly, m=monthly
	Order  string // a=ascending, d=descending
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the period for EOD query
func WithPeriod(period string) EODOption {
	return func(p *EODParams) {
		p.Period = period
	}
}

// WithOrder sets the sort order for EOD query
func WithOrder(order string) EODOption {
	return func(p *EODParams) {
		p.Order = order
	}
}
