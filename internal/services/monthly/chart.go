package monthly

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/finsent/internal/models"
)

// ChartSize is the pixel size of rendered charts
type ChartSize struct {
	Width  int
	Height int
}

var (
	priceColor     = drawing.ColorFromHex("1f77b4") // blue
	sentimentColor = drawing.ColorFromHex("ff7f0e") // orange
	alignedColor   = drawing.ColorFromHex("2ca02c") // green
)

// ChartTitle is the title of the two-axis monthly chart
func ChartTitle(ticker, agg string) string {
	return fmt.Sprintf("%s: Monthly %s Price vs. Sentiment (%%)", ticker, capitalize(agg))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// RenderMonthlyChart renders price on the left axis and sentiment % on the
// right axis over a shared month axis. Returns raw PNG bytes.
func RenderMonthlyChart(ticker, agg string, months []models.MonthlyAggregate, size ChartSize) ([]byte, error) {
	if len(months) == 0 {
		return nil, fmt.Errorf("no monthly data to plot for %s", ticker)
	}

	xValues := make([]time.Time, len(months))
	priceY := make([]float64, len(months))
	sentY := make([]float64, len(months))
	for i, m := range months {
		xValues[i] = m.Month
		priceY[i] = m.Price
		sentY[i] = m.SentimentPct
	}

	priceSeries := chart.TimeSeries{
		Name: fmt.Sprintf("%s Monthly Price", capitalize(agg)),
		Style: chart.Style{
			StrokeColor: priceColor,
			StrokeWidth: 2,
		},
		XValues: xValues,
		YValues: priceY,
	}
	sentSeries := chart.TimeSeries{
		Name: "Avg Sentiment (%)",
		Style: chart.Style{
			StrokeColor: sentimentColor,
			StrokeWidth: 2,
		},
		YAxis:   chart.YAxisSecondary,
		XValues: xValues,
		YValues: sentY,
	}

	graph := chart.Chart{
		Title:  ChartTitle(ticker, agg),
		Width:  size.Width,
		Height: size.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 10},
		},
		XAxis: monthAxis(xValues),
		YAxis: chart.YAxis{
			Name:           fmt.Sprintf("%s Monthly Price", capitalize(agg)),
			NameStyle:      chart.Style{FontColor: priceColor},
			Range:          paddedRange(priceY),
			ValueFormatter: twoDecimals,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Avg Sentiment (%)",
			NameStyle:      chart.Style{FontColor: sentimentColor},
			Range:          paddedRange(sentY),
			ValueFormatter: oneDecimal,
		},
		Series: []chart.Series{priceSeries, sentSeries},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	return render(graph)
}

// RenderAlignedChart renders price and the sentiment line rescaled to start
// at the first month's price, both on one axis.
func RenderAlignedChart(ticker string, months []models.MonthlyAggregate, size ChartSize) ([]byte, error) {
	if len(months) == 0 {
		return nil, fmt.Errorf("no monthly data to plot for %s", ticker)
	}

	xValues := make([]time.Time, len(months))
	priceY := make([]float64, len(months))
	for i, m := range months {
		xValues[i] = m.Month
		priceY[i] = m.Price
	}
	aligned := Aligned(months)

	both := append(append([]float64(nil), priceY...), aligned...)

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s: Price vs Sentiment (aligned to start)", ticker),
		Width:  size.Width,
		Height: size.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 10},
		},
		XAxis: monthAxis(xValues),
		YAxis: chart.YAxis{
			Name:           "Price / Aligned Sentiment",
			Range:          paddedRange(both),
			ValueFormatter: twoDecimals,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Price",
				Style:   chart.Style{StrokeColor: priceColor, StrokeWidth: 2},
				XValues: xValues,
				YValues: priceY,
			},
			chart.TimeSeries{
				Name:    "Sentiment (aligned)",
				Style:   chart.Style{StrokeColor: alignedColor, StrokeWidth: 2},
				XValues: xValues,
				YValues: aligned,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	return render(graph)
}

func render(graph chart.Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func monthAxis(xValues []time.Time) chart.XAxis {
	axis := chart.XAxis{
		Name:         "Month",
		TickPosition: chart.TickPositionBetweenTicks,
		ValueFormatter: func(v interface{}) string {
			if t, ok := v.(float64); ok {
				return chart.TimeFromFloat64(t).Format("Jan 06")
			}
			return ""
		},
	}
	if len(xValues) == 1 {
		// a single month has no extent to scale over
		x := xValues[0]
		axis.Range = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(x.AddDate(0, -1, 0)),
			Max: chart.TimeToFloat64(x.AddDate(0, 1, 0)),
		}
	}
	return axis
}

// paddedRange widens a flat series so the axis has a non-zero extent.
// A nil range lets the chart fit the data.
func paddedRange(values []float64) chart.Range {
	if len(values) == 0 {
		return nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi > lo {
		return nil
	}
	pad := 1.0
	if lo != 0 {
		pad = math.Abs(lo) * 0.05
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func twoDecimals(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return ""
}

func oneDecimal(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1f", f)
	}
	return ""
}
