package ratelimit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"otomata/pkg/logger"
)

// Record is the persisted state for one (service, identity, action, day)
type Record struct {
	// DailyCount is the number of requests made that calendar day
	DailyCount int `json:"daily_count"`
	// HourlyTimestamps holds request times within the trailing hour.
	// Entries older than one hour are pruned lazily on read.
	HourlyTimestamps []string `json:"hourly_timestamps"`
	// LastRequest is the most recent request time, nil if none
	LastRequest *string `json:"last_request"`
}

// document is the shared JSON file layout:
// service -> identity -> action -> date -> record
type document map[string]map[string]map[string]map[string]Record

// key identifies one limiter's slice of the shared document
type key struct {
	service  string
	identity string
	action   string
}

const (
	dateLayout = "2006-01-02"
	// records older than this are purged on every write
	retention = 7 * 24 * time.Hour
)

// store reads and writes the shared rate limits JSON file. The file is a
// machine-wide resource: concurrent processes may read and write it, so every
// file operation runs under an advisory lock (shared for loads, exclusive for
// the read-modify-write of saves). Locking covers single file operations
// only; a check made through one load and a record made through a later save
// are not one transaction, so two processes can both pass a check and both
// record. That best-effort window is part of the contract.
type store struct {
	path string
	lock *flock.Flock
	log  logger.Logger
}

// newStore creates a store over the given path, creating the directory and
// an empty document if absent
func newStore(path string, log logger.Logger) (*store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
			return nil, fmt.Errorf("failed to create storage file: %w", err)
		}
	}
	return &store{
		path: path,
		// saves replace the data file by rename, so the lock lives on a
		// sidecar file whose inode is stable
		lock: flock.New(path + ".lock"),
		log:  log,
	}, nil
}

// defaultStoragePath returns the shared per-user rate limits file
func defaultStoragePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve cache directory: %w", err)
	}
	return filepath.Join(cacheDir, "otomata", "rate_limits.json"), nil
}

// load reads the whole document under a shared lock. A missing or corrupt
// file is treated as an empty document, never an error: the limiter must not
// crash because the persistence file is damaged.
func (s *store) load() document {
	if err := s.lock.RLock(); err != nil {
		s.log.WithError(err).Warn("rate limit storage read lock failed, treating as empty")
		return document{}
	}
	defer s.lock.Unlock()

	return s.read()
}

// read decodes the document without locking
func (s *store) read() document {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return document{}
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.WithError(err).Warn("rate limit storage corrupt, treating as empty")
		return document{}
	}
	if doc == nil {
		doc = document{}
	}
	return doc
}

// write encodes the document to a temp file and renames it into place
func (s *store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rate limit data: %w", err)
	}

	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary storage file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync storage file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close storage file: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}

// record returns the record for the key and date, zero-valued if absent
func (s *store) record(k key, date string) Record {
	rec := s.load()[k.service][k.identity][k.action][date]
	if rec.HourlyTimestamps == nil {
		rec.HourlyTimestamps = []string{}
	}
	return rec
}

// updateRecord sets the record for the key and date under one exclusive
// lock, purging records older than the retention window on the way.
func (s *store) updateRecord(k key, date string, rec Record, now time.Time) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock rate limit storage: %w", err)
	}
	defer s.lock.Unlock()

	doc := s.read()

	if doc[k.service] == nil {
		doc[k.service] = map[string]map[string]map[string]Record{}
	}
	if doc[k.service][k.identity] == nil {
		doc[k.service][k.identity] = map[string]map[string]Record{}
	}
	if doc[k.service][k.identity][k.action] == nil {
		doc[k.service][k.identity][k.action] = map[string]Record{}
	}

	records := doc[k.service][k.identity][k.action]
	cutoff := now.Add(-retention).Format(dateLayout)
	for d := range records {
		if d < cutoff {
			delete(records, d)
		}
	}
	records[date] = rec

	return s.write(doc)
}

// deleteRecord removes the record for the key and date. Absent records are
// a no-op, not an error.
func (s *store) deleteRecord(k key, date string) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock rate limit storage: %w", err)
	}
	defer s.lock.Unlock()

	doc := s.read()
	records := doc[k.service][k.identity][k.action]
	if _, ok := records[date]; !ok {
		return nil
	}
	delete(records, date)
	return s.write(doc)
}
