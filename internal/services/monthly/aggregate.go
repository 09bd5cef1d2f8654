package monthly

import (
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/finsent/internal/models"
)

// Price aggregations
const (
	AggMean = "mean"
	AggLast = "last"
)

// DailySentiment averages the scores of each day, skipping NaN. A day whose
// every score is NaN is kept with a NaN mean.
func DailySentiment(points []models.SentimentPoint) map[time.Time]float64 {
	type acc struct {
		sum float64
		n   int
	}
	days := make(map[time.Time]*acc)
	for _, p := range points {
		a, ok := days[p.Date]
		if !ok {
			a = &acc{}
			days[p.Date] = a
		}
		if !math.IsNaN(p.Score) {
			a.sum += p.Score
			a.n++
		}
	}

	out := make(map[time.Time]float64, len(days))
	for d, a := range days {
		if a.n == 0 {
			out[d] = math.NaN()
			continue
		}
		out[d] = a.sum / float64(a.n)
	}
	return out
}

type joinedDay struct {
	date  time.Time
	price float64
	sent  float64
}

// Monthly inner-joins price rows with daily sentiment on date and rolls the
// result up to calendar months. Price is the mean or the last non-NaN value
// of the month, sentiment the mean of non-NaN values. Months without a price
// and months ending before start are dropped.
func Monthly(prices []models.PricePoint, daily map[time.Time]float64, agg string, start time.Time) []models.MonthlyAggregate {
	joined := make([]joinedDay, 0, len(prices))
	for _, p := range prices {
		s, ok := daily[p.Date]
		if !ok {
			continue
		}
		joined = append(joined, joinedDay{date: p.Date, price: p.Price, sent: s})
	}
	sort.SliceStable(joined, func(i, j int) bool { return joined[i].date.Before(joined[j].date) })

	type bucket struct {
		month          time.Time
		priceSum, last float64
		sentSum        float64
		priceN, sentN  int
		days           int
	}
	var buckets []*bucket
	for _, j := range joined {
		end := monthEnd(j.date)
		if len(buckets) == 0 || !buckets[len(buckets)-1].month.Equal(end) {
			buckets = append(buckets, &bucket{month: end, last: math.NaN()})
		}
		b := buckets[len(buckets)-1]
		b.days++
		if !math.IsNaN(j.price) {
			b.priceSum += j.price
			b.priceN++
			b.last = j.price
		}
		if !math.IsNaN(j.sent) {
			b.sentSum += j.sent
			b.sentN++
		}
	}

	cutoff := civilDate(start)
	out := make([]models.MonthlyAggregate, 0, len(buckets))
	for _, b := range buckets {
		if b.priceN == 0 || b.month.Before(cutoff) {
			continue
		}
		m := models.MonthlyAggregate{
			Month:     b.month,
			Sentiment: math.NaN(),
			Days:      b.days,
		}
		if agg == AggLast {
			m.Price = b.last
		} else {
			m.Price = b.priceSum / float64(b.priceN)
		}
		if b.sentN > 0 {
			m.Sentiment = b.sentSum / float64(b.sentN)
			m.SentimentPct = models.ScoreToPercent(m.Sentiment)
		}
		out = append(out, m)
	}
	return out
}

// Aligned rescales each month's sentiment percentage by p0/s0 so the
// sentiment line starts at the first month's price. A first sentiment of
// zero scales by p0.
func Aligned(months []models.MonthlyAggregate) []float64 {
	if len(months) == 0 {
		return nil
	}
	p0, s0 := months[0].Price, months[0].SentimentPct
	if math.Abs(s0) < 1e-9 {
		s0 = 1.0
	}
	out := make([]float64, len(months))
	for i, m := range months {
		out[i] = m.SentimentPct * (p0 / s0)
	}
	return out
}
