// Package models defines the data records shared by the finsent jobs
package models

import (
	"math"
	"time"
)

// EODBar represents a single day's price data
type EODBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// EODResponse wraps the bars returned by a price provider
type EODResponse struct {
	Data []EODBar `json:"data"`
}

// PricePoint is one row of a per-ticker price file keyed to a plain calendar date.
// Price is NaN when the row's price cell could not be parsed.
type PricePoint struct {
	Date  time.Time
	Price float64
}

// SentimentPoint is one sentiment observation keyed to a trading day.
// Score is NaN when the value was neither numeric nor a known label.
type SentimentPoint struct {
	Date  time.Time
	Score float64
}

// MonthlyAggregate is one calendar month of joined price and sentiment.
type MonthlyAggregate struct {
	Month        time.Time `json:"month"` // last calendar day of the month
	Price        float64   `json:"price"`
	Sentiment    float64   `json:"sentiment"` // NaN when no sentiment value contributed
	SentimentPct float64   `json:"sentiment_pct"`
	Days         int       `json:"days"` // joined trading days in the month
}

// HasSentiment reports whether any sentiment value contributed to the month
func (m MonthlyAggregate) HasSentiment() bool {
	return !math.IsNaN(m.Sentiment)
}
