package interfaces

import (
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
)

// TableStorage reads and writes the CSV tables and per-ticker files the jobs operate on
type TableStorage interface {
	// Exists reports whether a file or directory exists
	Exists(path string) bool

	// ReadTable loads a CSV file with a header row
	ReadTable(path string) (*tablefs.Table, error)

	// WriteTable writes a table atomically, creating parent directories
	WriteTable(path string, t *tablefs.Table) error

	// WriteRaw writes arbitrary bytes atomically
	WriteRaw(path string, data []byte) error

	// EnsureDir creates a directory and its parents
	EnsureDir(dir string) error

	// ListTickers returns the tickers of the *.csv files in dir
	ListTickers(dir string) ([]string, error)

	// MoveFile moves a file, replacing the destination
	MoveFile(src, dst string) error
}
