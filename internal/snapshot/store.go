// Package snapshot durably persists every room's game state to a single
// JSON file and restores it at startup, so a process restart loses no
// in-progress game.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lukev/we_server/internal/game"
	"github.com/rs/zerolog"
)

// Store coalesces back-to-back persist requests behind a dirty flag and
// a single debounce goroutine, and writes via a temp-file-then-rename
// sequence so a crash mid-write never corrupts the on-disk snapshot.
type Store struct {
	path     string
	debounce time.Duration
	log      zerolog.Logger

	dirty int32

	mu      sync.Mutex
	source  func() map[string]*game.Game
	stopCh  chan struct{}
	started bool
}

// New returns a Store that writes to path. source is called to capture
// a consistent copy of every game each time a write actually happens.
func New(path string, debounce time.Duration, source func() map[string]*game.Game, logger zerolog.Logger) *Store {
	return &Store{
		path:     path,
		debounce: debounce,
		source:   source,
		log:      logger,
	}
}

// Start launches the debounce loop. Persist is a no-op before Start (or
// after Stop) other than marking the dirty flag, which the next Start
// will pick up.
func (s *Store) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.stopCh = make(chan struct{})
	go s.loop(s.stopCh)
}

// Stop halts the debounce loop after flushing any pending write.
func (s *Store) Stop() {
	s.mu.Lock()
	stopCh := s.stopCh
	s.started = false
	s.mu.Unlock()
	if stopCh != nil {
		close(stopCh)
	}
	if atomic.LoadInt32(&s.dirty) != 0 {
		s.flush()
	}
}

func (s *Store) loop(stopCh chan struct{}) {
	ticker := time.NewTicker(s.debounce)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if atomic.CompareAndSwapInt32(&s.dirty, 1, 0) {
				s.flush()
			}
		case <-stopCh:
			return
		}
	}
}

// Persist marks the store dirty. The actual write happens on the next
// debounce tick (or, if the loop hasn't started, on the next Stop), so
// this never blocks the caller on file I/O.
func (s *Store) Persist() {
	atomic.StoreInt32(&s.dirty, 1)
}

func (s *Store) flush() {
	games := s.source()
	records := make(map[string]*game.Game, len(games))
	for id, g := range games {
		records[id] = g
	}

	data, err := json.Marshal(records)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal games")
		return
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		s.log.Error().Err(err).Msg("failed to create temp file")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.log.Error().Err(err).Str("path", tmpPath).Msg("failed to write temp file")
		return
	}
	if err := tmp.Close(); err != nil {
		s.log.Error().Err(err).Str("path", tmpPath).Msg("failed to close temp file")
		return
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("failed to rename temp file into place")
		return
	}
}

// Load reads and parses the snapshot file, if present. A missing file
// is not an error (first run); a parse failure is logged and treated as
// an empty snapshot rather than fatal, per §4.4.
func Load(path string, logger zerolog.Logger) map[string]*game.Game {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Error().Err(err).Str("path", path).Msg("failed to read snapshot file")
		}
		return map[string]*game.Game{}
	}

	var records map[string]*game.Game
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to parse snapshot file, starting empty")
		return map[string]*game.Game{}
	}
	return records
}
