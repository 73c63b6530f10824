// Package library persists named HTML documents as content/metadata file pairs.
//
// Each entry is `<id>.html` plus `<id>.json` holding `{"name","created"}`. The
// content file is the source of truth: a missing or corrupt metadata file
// degrades to the id as name and the file's mtime as creation time, it never
// fails a read.
package library

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/Giorgiomufen/display-sync/internal/domain"
	"github.com/Giorgiomufen/display-sync/internal/metrics"
)

type metadata struct {
	Name    string  `json:"name"`
	Created float64 `json:"created"`
}

// Store is a file-backed library of HTML documents.
type Store struct {
	dir   string
	clock clockwork.Clock
}

// NewStore creates the backing directory if needed.
func NewStore(dir string, clock clockwork.Clock) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	return &Store{dir: dir, clock: clock}, nil
}

// List returns all entries, newest first. Entries whose metadata is missing or
// corrupt fall back to the content file's mtime and the id as name.
func (s *Store) List() ([]domain.LibraryEntry, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("scan library dir: %w", err)
	}

	entries := make([]domain.LibraryEntry, 0, len(files))
	for _, f := range files {
		id := strings.TrimSuffix(filepath.Base(f), ".html")
		entry := domain.LibraryEntry{ID: id, Name: id}
		if info, err := os.Stat(f); err == nil {
			entry.Created = float64(info.ModTime().UnixNano()) / 1e9
		}
		if meta, ok := s.readMetadata(id); ok {
			if meta.Name != "" {
				entry.Name = meta.Name
			}
			if meta.Created != 0 {
				entry.Created = meta.Created
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Created > entries[j].Created })
	return entries, nil
}

// Save writes a new document and its metadata under a fresh id and returns the
// id. Ids are time-prefixed with a random suffix, so concurrent saves do not
// collide and an existing entry is never overwritten.
func (s *Store) Save(name, html string) (string, error) {
	id := s.newID()

	if err := os.WriteFile(s.contentPath(id), []byte(html), 0o644); err != nil {
		metrics.LibraryOperationsTotal.WithLabelValues("save", "error").Inc()
		return "", fmt.Errorf("write library content: %w", err)
	}

	meta := metadata{Name: name, Created: float64(s.clock.Now().UnixNano()) / 1e9}
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal library metadata: %w", err)
	}
	if err := os.WriteFile(s.metadataPath(id), raw, 0o644); err != nil {
		// Content exists; the entry survives with degraded metadata.
		slog.Warn("Failed to write library metadata", "id", id, "error", err)
	}

	metrics.LibraryOperationsTotal.WithLabelValues("save", "ok").Inc()
	return id, nil
}

// Load returns the document for id, or domain.ErrEntryNotFound.
func (s *Store) Load(id string) (domain.LibraryDocument, error) {
	if !validID(id) {
		return domain.LibraryDocument{}, domain.ErrEntryNotFound
	}

	raw, err := os.ReadFile(s.contentPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.LibraryDocument{}, domain.ErrEntryNotFound
	}
	if err != nil {
		return domain.LibraryDocument{}, fmt.Errorf("read library content: %w", err)
	}

	doc := domain.LibraryDocument{Name: id, HTML: string(raw)}
	if meta, ok := s.readMetadata(id); ok && meta.Name != "" {
		doc.Name = meta.Name
	}
	metrics.LibraryOperationsTotal.WithLabelValues("load", "ok").Inc()
	return doc, nil
}

// Delete removes both files of an entry. Returns true when content existed.
// Deleting an unknown id is a no-op, not an error.
func (s *Store) Delete(id string) bool {
	if !validID(id) {
		return false
	}

	deleted := os.Remove(s.contentPath(id)) == nil
	_ = os.Remove(s.metadataPath(id))
	if deleted {
		metrics.LibraryOperationsTotal.WithLabelValues("delete", "ok").Inc()
	}
	return deleted
}

func (s *Store) readMetadata(id string) (metadata, bool) {
	raw, err := os.ReadFile(s.metadataPath(id))
	if err != nil {
		return metadata{}, false
	}
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		// Corrupt metadata is treated as absent.
		slog.Warn("Ignoring corrupt library metadata", "id", id, "error", err)
		return metadata{}, false
	}
	return meta, true
}

func (s *Store) newID() string {
	u := uuid.New()
	return fmt.Sprintf("%d_%s", s.clock.Now().Unix(), hex.EncodeToString(u[:])[:6])
}

func (s *Store) contentPath(id string) string  { return filepath.Join(s.dir, id+".html") }
func (s *Store) metadataPath(id string) string { return filepath.Join(s.dir, id+".json") }

// validID rejects anything that could escape the library directory.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/\\") && id != "." && id != ".."
}
