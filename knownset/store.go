package knownset

import (
	"context"
	"errors"
	"fmt"

	"github.com/pevans/kufarwatch/listing"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DefaultPath is where the file backend keeps its state when no DSN is
// configured.
const DefaultPath = "known_listings.json"

var (
	// ErrUnknownBackend is returned by Open for unsupported backend names.
	ErrUnknownBackend = errors.New("storage type must be file or sqlite")
	// ErrReadOnly is returned by Save on a store opened with OpenReadOnly.
	ErrReadOnly = errors.New("known listings store is read-only")
)

// Status describes what Load found.
type Status int

const (
	// StatusOK means prior state was read successfully.
	StatusOK Status = iota
	// StatusAbsent means no prior state exists yet.
	StatusAbsent
	// StatusCorrupt means prior state exists but couldn't be parsed.
	StatusCorrupt
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusAbsent:
		return "absent"
	case StatusCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// LoadResult is the outcome of loading the known set. Set is never nil; for
// StatusAbsent and StatusCorrupt it is empty, and for StatusCorrupt Err holds
// the cause.
type LoadResult struct {
	Status Status
	Set    listing.Set
	Err    error
}

// Store persists the set of listings that have already been reported or
// baselined.
type Store interface {
	// Load reads the persisted set. It never fails outright: missing and
	// unreadable state are reported through LoadResult.Status.
	Load(ctx context.Context) LoadResult
	// Save replaces the persisted set with s. A failed save leaves the
	// previous state intact.
	Save(ctx context.Context, s listing.Set) error
	Close() error
}

// Open returns the store for the given backend. An empty backend selects the
// file store and an empty dsn selects DefaultPath.
func Open(backend, dsn string) (Store, error) {
	switch backend {
	case "", BackendFile:
		if dsn == "" {
			dsn = DefaultPath
		}
		return NewFileStore(dsn), nil
	case BackendSQLite:
		if dsn == "" {
			dsn = "known_listings.db"
		}
		return NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("%w (got %q)", ErrUnknownBackend, backend)
	}
}

// OpenReadOnly returns a store for inspecting state. It never creates or
// modifies anything on disk; Save always fails.
func OpenReadOnly(backend, dsn string) (Store, error) {
	switch backend {
	case "", BackendFile:
		if dsn == "" {
			dsn = DefaultPath
		}
		return readOnly{NewFileStore(dsn)}, nil
	case BackendSQLite:
		if dsn == "" {
			dsn = "known_listings.db"
		}
		return NewReadOnlySQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("%w (got %q)", ErrUnknownBackend, backend)
	}
}

type readOnly struct {
	Store
}

func (readOnly) Save(ctx context.Context, s listing.Set) error {
	return ErrReadOnly
}

func okResult(s listing.Set) LoadResult {
	return LoadResult{Status: StatusOK, Set: s}
}

func absentResult() LoadResult {
	return LoadResult{Status: StatusAbsent, Set: listing.Set{}}
}

func corruptResult(err error) LoadResult {
	return LoadResult{Status: StatusCorrupt, Set: listing.Set{}, Err: err}
}
