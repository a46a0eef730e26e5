// Package cache is a content-addressed compilation cache: it stores
// bytecode.Chunk blobs keyed by a hash of the source text and the compiler
// version that produced them, so re-running an unchanged source skips
// lexing/parsing/checking/compiling entirely. Backed by modernc.org/sqlite
// (pure Go, no cgo) under $STRATUM_HOME/cache, the way the persisted-state
// layout names it.
package cache

import (
	"bytes"
	"crypto/sha256"
	"database/sql"
	"encoding/gob"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"
	"golang.org/x/sync/singleflight"

	"github.com/horizonanalytic/stratum/internal/bytecode"
	"github.com/horizonanalytic/stratum/internal/vm"
)

func init() {
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register(false)
	gob.Register(&vm.Function{})
}

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	key        TEXT PRIMARY KEY,
	blob       BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Cache is a handle to the on-disk sqlite cache. Safe for concurrent use:
// concurrent Get-or-compile requests for the same key are deduped via
// singleflight so a cold cache under concurrent load compiles a given
// source exactly once.
type Cache struct {
	db    *sql.DB
	group singleflight.Group
}

// Open creates (if needed) and opens the sqlite database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: create schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Key derives the content-addressed cache key from source text and the
// compiler version string (bumped whenever the bytecode format changes, so
// stale entries from an older compiler are never mistaken for a hit).
func Key(source, compilerVersion string) string {
	h := sha256.New()
	h.Write([]byte(compilerVersion))
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// Get looks up a previously stored chunk by key. ok is false on a miss.
func (c *Cache) Get(key string) (chunk *bytecode.Chunk, ok bool, err error) {
	var blob []byte
	row := c.db.QueryRow(`SELECT blob FROM chunks WHERE key = ?`, key)
	switch err := row.Scan(&blob); err {
	case nil:
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("cache: lookup %s: %w", key, err)
	}

	var c2 bytecode.Chunk
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&c2); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return &c2, true, nil
}

// Put stores chunk under key, overwriting any existing entry, with
// createdAt as a unix-seconds timestamp (passed in rather than taken via
// time.Now so callers control it, and so the cache stays trivially testable).
func (c *Cache) Put(key string, chunk *bytecode.Chunk, createdAt int64) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(chunk); err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	_, err := c.db.Exec(
		`INSERT INTO chunks (key, blob, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, created_at = excluded.created_at`,
		key, buf.Bytes(), createdAt,
	)
	if err != nil {
		return fmt.Errorf("cache: store %s: %w", key, err)
	}
	return nil
}

// GetOrCompile returns the cached chunk for key if present; otherwise it
// calls compile exactly once even under concurrent callers sharing the same
// key, stores the result, and returns it.
func (c *Cache) GetOrCompile(key string, createdAt int64, compile func() (*bytecode.Chunk, error)) (*bytecode.Chunk, error) {
	if chunk, ok, err := c.Get(key); err != nil {
		return nil, err
	} else if ok {
		return chunk, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if chunk, ok, err := c.Get(key); err != nil {
			return nil, err
		} else if ok {
			return chunk, nil
		}
		chunk, err := compile()
		if err != nil {
			return nil, err
		}
		if err := c.Put(key, chunk, createdAt); err != nil {
			return nil, err
		}
		return chunk, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bytecode.Chunk), nil
}
