package knownset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pevans/kufarwatch/listing"
)

// FileStore keeps the known set in a single JSON file of the form
// {"<id>": ["<title>", "<url>"]}.
type FileStore struct {
	path string
}

// fileEntry is the [title, url] pair stored for each ID.
type fileEntry struct {
	Title string
	URL   string
	valid bool
}

func (e fileEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.Title, e.URL})
}

func (e *fileEntry) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected [title, url], got %d elements", len(pair))
	}
	*e = fileEntry{Title: pair[0], URL: pair[1], valid: true}
	return nil
}

// NewFileStore creates a file store at path. The file is not touched until
// Load or Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the state file location.
func (fs *FileStore) Path() string {
	return fs.path
}

// Load reads the state file. A missing file is StatusAbsent; unreadable
// content, non-integer keys or malformed entries are StatusCorrupt.
func (fs *FileStore) Load(ctx context.Context) LoadResult {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return absentResult()
		}
		return corruptResult(fmt.Errorf("failed to read state file: %w", err))
	}

	set, err := decodeState(data)
	if err != nil {
		return corruptResult(err)
	}

	return okResult(set)
}

func decodeState(data []byte) (listing.Set, error) {
	var raw map[string]fileEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	if raw == nil {
		return nil, errors.New("failed to parse state file: expected an object")
	}

	set := make(listing.Set, len(raw))
	for key, entry := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid listing id %q: %w", key, err)
		}
		if !entry.valid {
			return nil, fmt.Errorf("invalid entry for listing %d", id)
		}
		set.Add(listing.Listing{ID: id, Title: entry.Title, URL: entry.URL})
	}

	return set, nil
}

// Save writes the set to a temporary file next to the state file and renames
// it into place, so readers only ever see a complete file.
func (fs *FileStore) Save(ctx context.Context, s listing.Set) error {
	if dir := filepath.Dir(fs.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	data, err := encodeState(s)
	if err != nil {
		return err
	}

	tmp := fs.path + ".tmp"
	if err := writeSynced(tmp, data); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write state file: %w", err)
	}

	if err := os.Rename(tmp, fs.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

func encodeState(s listing.Set) ([]byte, error) {
	raw := make(map[string]fileEntry, len(s))
	for id, l := range s {
		raw[strconv.FormatInt(id, 10)] = fileEntry{Title: l.Title, URL: l.URL}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	return buf.Bytes(), nil
}

func writeSynced(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Close is a no-op; the file is only open during Load and Save.
func (fs *FileStore) Close() error {
	return nil
}
