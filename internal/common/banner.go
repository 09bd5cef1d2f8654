package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the job banner to w and records the run in the log.
func PrintBanner(w io.Writer, config *Config, logger *Logger, job, runID string) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n", hr)
	fmt.Fprintf(w, "%s  finsent · finance headline sentiment toolkit%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n", hr)

	kvPad := 12
	kvLines := [][2]string{
		{"Job", job},
		{"Version", GetVersion()},
		{"Environment", config.Environment},
		{"Run", runID},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "%s\n\n", hr)

	logger.Info().
		Str("job", job).
		Str("version", GetVersion()).
		Str("environment", config.Environment).
		Str("run_id", runID).
		Msg("Job started")
}
