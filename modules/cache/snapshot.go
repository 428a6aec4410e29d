package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// snapshotFile is the on-disk form of the store: payloads and fetch times
// keyed by URL, written as one document.
type snapshotFile struct {
	Payloads  map[string]json.RawMessage `json:"payloads"`
	FetchedAt map[string]time.Time       `json:"fetched_at"`
}

// CorruptError reports an unreadable or malformed snapshot at load time.
type CorruptError struct {
	Path string
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("cache snapshot %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// FlushError reports a failed persistence attempt. The previous snapshot on
// disk is untouched and the in-memory store remains authoritative.
type FlushError struct {
	Err error
}

func (e *FlushError) Error() string {
	return fmt.Sprintf("cache flush failed: %v", e.Err)
}

func (e *FlushError) Unwrap() error { return e.Err }

// load reads the snapshot file into the store. A missing file means an
// empty store; anything unparsable is a *CorruptError. Legacy snapshots
// (a bare URL -> payload map with no timestamps) are accepted, with the
// missing fetch times left at zero so freshness-enforcing reads re-fetch.
func (c *ResponseCache) load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &CorruptError{Path: c.path, Err: err}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &CorruptError{Path: c.path, Err: err}
	}

	if _, ok := raw["payloads"]; ok {
		var snap snapshotFile
		if err := json.Unmarshal(data, &snap); err != nil {
			return &CorruptError{Path: c.path, Err: err}
		}
		if snap.Payloads != nil {
			c.payloads = snap.Payloads
		}
		for url, at := range snap.FetchedAt {
			c.fetchedAt[url] = at
		}
		return nil
	}

	// Legacy format: the top-level document is the payload map itself.
	c.payloads = raw
	return nil
}

// flushLocked writes the whole store to a sibling temp file and atomically
// renames it over the destination. Either the new snapshot lands complete
// or the old one survives; no reader ever sees a partial state. The caller
// must hold c.mu.
func (c *ResponseCache) flushLocked() error {
	if c.unsaved == 0 {
		return nil
	}

	data, err := json.Marshal(snapshotFile{
		Payloads:  c.payloads,
		FetchedAt: c.fetchedAt,
	})
	if err != nil {
		cacheFlushErrors.Inc()
		return &FlushError{Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		cacheFlushErrors.Inc()
		return &FlushError{Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		cacheFlushErrors.Inc()
		return &FlushError{Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		cacheFlushErrors.Inc()
		return &FlushError{Err: err}
	}
	if err := c.rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		cacheFlushErrors.Inc()
		return &FlushError{Err: err}
	}

	cacheFlushes.Inc()
	c.unsaved = 0
	c.log.Debug("cache snapshot saved", "path", c.path, "entries", len(c.payloads))
	return nil
}
