// Package checkpoint persists per-row classification progress so an
// interrupted run can resume where it stopped.
package checkpoint

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/models"
)

// Entry is one finished row
type Entry struct {
	Row   int          `json:"row"`
	Hash  string       `json:"hash"` // HashTitle of the row's title when it was classified
	Label models.Label `json:"label"`
}

// Store is an append-only JSON-lines file of finished rows.
// Append is safe for concurrent use.
type Store struct {
	path   string
	logger *common.Logger

	mu sync.Mutex
	f  *os.File
}

// Key derives a stable checkpoint name for an input file and strategy
func Key(inputPath, strategy string) string {
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		abs = inputPath
	}
	sum := sha256.Sum256([]byte(abs + "|" + strategy))
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return sanitizeKey(base) + "-" + strategy + "-" + hex.EncodeToString(sum[:6])
}

// HashTitle fingerprints a title so a resumed run can tell an edited row from a finished one
func HashTitle(title string) string {
	sum := sha256.Sum256([]byte(title))
	return hex.EncodeToString(sum[:8])
}

// sanitizeKey makes a key safe for use as a filename.
func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "..", "_")
	return r.Replace(key)
}

// Open opens (or creates) the checkpoint file <dir>/<key>.jsonl
func Open(logger *common.Logger, dir, key string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, sanitizeKey(key)+".jsonl")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint %s: %w", path, err)
	}

	logger.Debug().Str("path", path).Msg("Checkpoint opened")
	return &Store{path: path, logger: logger, f: f}, nil
}

// Path returns the checkpoint file location
func (s *Store) Path() string {
	return s.path
}

// Load returns the finished rows recorded so far, keyed by row.
// A torn trailing line from a crash is skipped.
func (s *Store) Load() (map[int]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint %s: %w", s.path, err)
	}
	defer f.Close()

	entries := make(map[int]Entry)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	skipped := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			skipped++
			continue
		}
		entries[e.Row] = e
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan checkpoint %s: %w", s.path, err)
	}

	if skipped > 0 {
		s.logger.Warn().Str("path", s.path).Int("skipped", skipped).Msg("Skipped unreadable checkpoint lines")
	}
	return entries, nil
}

// Append records a finished row
func (s *Store) Append(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint entry: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return fmt.Errorf("checkpoint %s is closed", s.path)
	}
	if _, err := s.f.Write(data); err != nil {
		return fmt.Errorf("failed to append checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying file
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// Remove closes and deletes the checkpoint once a run has completed
func (s *Store) Remove() error {
	if err := s.Close(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint %s: %w", s.path, err)
	}
	return nil
}
