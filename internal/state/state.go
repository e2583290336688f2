// Package state persists the mutable relay configuration: sources, keywords,
// the target channel, and the sent-hash ledger.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// DefaultStateFile is the document name inside the config directory.
const DefaultStateFile = "state.json"

var (
	ErrDuplicateSource = errors.New("state: source already added")
	ErrSourceIsTarget  = errors.New("state: source equals the target channel")
	ErrUnknownSource   = errors.New("state: source not found")
)

// document is the on-disk layout. sent_hashes is append-only during normal
// operation.
type document struct {
	Sources struct {
		Channels []string `json:"channels"`
		Sites    []string `json:"sites"`
		Feeds    []string `json:"feeds"`
	} `json:"sources"`
	Keywords      []string `json:"keywords"`
	TargetChannel string   `json:"target_channel"`
	SentHashes    []string `json:"sent_hashes"`
}

// State is the persisted relay configuration. Safe for concurrent use by the
// ingestion loop and operator command handlers. Every mutation is saved to
// disk before the mutator returns.
type State struct {
	mu   sync.Mutex
	path string
	doc  document
	seen map[string]bool

	// maxLedgerEntries caps sent_hashes, dropping the oldest entries on
	// overflow. Zero keeps every hash forever, matching the historical
	// behavior.
	maxLedgerEntries int
}

// Load reads the state document at path. A missing or unparsable file is not
// fatal: a warning is logged and an empty default document is used.
func Load(path string, maxLedgerEntries int, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	st := &State{path: path, maxLedgerEntries: maxLedgerEntries}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("state load failed, using defaults", "path", path, "error", err)
		}
	} else if err := json.Unmarshal(data, &st.doc); err != nil {
		logger.Warn("state parse failed, using defaults", "path", path, "error", err)
		st.doc = document{}
	}

	st.cleanSourcesLocked()
	st.seen = make(map[string]bool, len(st.doc.SentHashes))
	for _, h := range st.doc.SentHashes {
		st.seen[h] = true
	}
	return st
}

// cleanSourcesLocked enforces the invariant that the target channel is never
// scanned as a source.
func (s *State) cleanSourcesLocked() {
	if s.doc.TargetChannel == "" {
		return
	}
	s.doc.Sources.Channels = slices.DeleteFunc(s.doc.Sources.Channels, func(ch string) bool {
		return ch == s.doc.TargetChannel
	})
}

// saveLocked writes the document atomically: temp file in the same
// directory, then rename.
func (s *State) saveLocked() error {
	s.cleanSourcesLocked()

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("create temp state: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Target returns the destination channel, or "" when unset.
func (s *State) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.TargetChannel
}

// SetTarget records the destination channel and drops it from the source
// list if present.
func (s *State) SetTarget(channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.TargetChannel = channel
	return s.saveLocked()
}

func (s *State) Channels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.doc.Sources.Channels)
}

func (s *State) Sites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.doc.Sources.Sites)
}

func (s *State) Feeds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.doc.Sources.Feeds)
}

func (s *State) AddChannel(channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel == s.doc.TargetChannel {
		return ErrSourceIsTarget
	}
	if slices.Contains(s.doc.Sources.Channels, channel) {
		return ErrDuplicateSource
	}
	s.doc.Sources.Channels = append(s.doc.Sources.Channels, channel)
	return s.saveLocked()
}

func (s *State) AddSite(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.doc.Sources.Sites, url) {
		return ErrDuplicateSource
	}
	s.doc.Sources.Sites = append(s.doc.Sources.Sites, url)
	return s.saveLocked()
}

func (s *State) AddFeed(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.doc.Sources.Feeds, url) {
		return ErrDuplicateSource
	}
	s.doc.Sources.Feeds = append(s.doc.Sources.Feeds, url)
	return s.saveLocked()
}

// RemoveSource deletes id from whichever source list holds it.
func (s *State) RemoveSource(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, list := range []*[]string{
		&s.doc.Sources.Channels,
		&s.doc.Sources.Sites,
		&s.doc.Sources.Feeds,
	} {
		if i := slices.Index(*list, id); i >= 0 {
			*list = slices.Delete(*list, i, i+1)
			return s.saveLocked()
		}
	}
	return ErrUnknownSource
}

func (s *State) Keywords() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.doc.Keywords)
}

// SetKeywords replaces the keyword set. An empty or nil set disables
// filtering.
func (s *State) SetKeywords(keywords []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Keywords = slices.Clone(keywords)
	return s.saveLocked()
}

// Seen reports whether hash is already in the sent ledger.
func (s *State) Seen(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[hash]
}

// RecordSent appends hash to the ledger and persists. Recording an already
// present hash is a no-op.
func (s *State) RecordSent(hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[hash] {
		return nil
	}
	s.seen[hash] = true
	s.doc.SentHashes = append(s.doc.SentHashes, hash)
	if s.maxLedgerEntries > 0 && len(s.doc.SentHashes) > s.maxLedgerEntries {
		drop := len(s.doc.SentHashes) - s.maxLedgerEntries
		for _, old := range s.doc.SentHashes[:drop] {
			delete(s.seen, old)
		}
		s.doc.SentHashes = slices.Clone(s.doc.SentHashes[drop:])
	}
	return s.saveLocked()
}

// LedgerSize returns the number of recorded sent hashes.
func (s *State) LedgerSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.SentHashes)
}
