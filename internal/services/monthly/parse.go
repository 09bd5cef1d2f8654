package monthly

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/finsent/internal/models"
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
)

// layouts carrying a UTC offset or zone designator
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -0700 MST",
	time.RFC1123Z,
	time.RFC1123,
}

// layouts without zone information
var naiveLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"20060102",
}

// parseTime parses a date or timestamp cell. Naive values come back in UTC.
func parseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// civilDate drops the clock, keeping the calendar day t shows in its own zone
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// monthEnd returns the last calendar day of d's month
func monthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

func parseFloat(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// loadPrices reads the price rows. Rows with an unreadable date are dropped;
// an unreadable price is kept as NaN.
func loadPrices(t *tablefs.Table, dateCol, priceCol string) []models.PricePoint {
	di, pi := t.Index(dateCol), t.Index(priceCol)
	out := make([]models.PricePoint, 0, t.Len())
	for _, row := range t.Rows {
		d, ok := parseTime(row[di])
		if !ok {
			continue
		}
		out = append(out, models.PricePoint{Date: civilDate(d), Price: parseFloat(row[pi])})
	}
	return out
}

// loadSentiment reads the sentiment rows, keying each to its calendar day in loc.
// A column whose non-empty cells are all numeric is read as scores; otherwise
// cells are read as labels and anything but positive/neutral/negative is NaN.
func loadSentiment(t *tablefs.Table, dateCol, sentCol string, loc *time.Location) []models.SentimentPoint {
	di, si := t.Index(dateCol), t.Index(sentCol)

	numeric := true
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[si])
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
			break
		}
	}

	out := make([]models.SentimentPoint, 0, t.Len())
	for _, row := range t.Rows {
		d, ok := parseTime(row[di])
		if !ok {
			continue
		}
		var score float64
		if numeric {
			score = parseFloat(row[si])
		} else {
			score = models.ParseLabel(row[si]).Score()
		}
		out = append(out, models.SentimentPoint{Date: civilDate(d.In(loc)), Score: score})
	}
	return out
}
