// Package store persists runs and their match records in a local bolt
// database. It backs the archive tracker and the read API.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/boltdb/bolt"

	"github.com/allibot/rtsbench/internal/models"
)

// ErrNotFound is returned when a run id has no entry.
var ErrNotFound = errors.New("run not found")

var (
	runsBucket    = []byte("runs")
	matchesBucket = []byte("matches")
)

// RunStore stores runs keyed by id and match records keyed by run id
// plus zero-padded match index, so a cursor scan yields them in play
// order.
type RunStore struct {
	db *bolt.DB
}

// Open opens or creates the database at path and ensures the buckets
// exist.
func Open(path string) (*RunStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{runsBucket, matchesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &RunStore{db: db}, nil
}

// Close closes the database.
func (s *RunStore) Close() error {
	return s.db.Close()
}

func matchKey(runID string, index int) []byte {
	return []byte(fmt.Sprintf("%s/%08d", runID, index))
}

// CreateRun writes a new run document.
func (s *RunStore) CreateRun(run *models.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Put([]byte(run.ID), data)
	})
}

// GetRun loads one run.
func (s *RunStore) GetRun(runID string) (*models.Run, error) {
	var run models.Run
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(runsBucket).Get([]byte(runID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns all runs, most recently started first.
func (s *RunStore) ListRuns() ([]models.Run, error) {
	var runs []models.Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(_, v []byte) error {
			var run models.Run
			if err := json.Unmarshal(v, &run); err != nil {
				return err
			}
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	return runs, nil
}

// AppendMatch stores one match record under its run.
func (s *RunStore) AppendMatch(runID string, rec models.MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal match: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(matchesBucket).Put(matchKey(runID, rec.Index), data)
	})
}

// GetMatches returns a run's match records in play order. Unknown runs
// yield an empty slice.
func (s *RunStore) GetMatches(runID string) ([]models.MatchRecord, error) {
	var records []models.MatchRecord
	prefix := []byte(runID + "/")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(matchesBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec models.MatchRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FinishRun marks a run finished and attaches its summary.
func (s *RunStore) FinishRun(runID string, summary []models.OpponentSummary, finishedAt time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(runsBucket)
		data := bucket.Get([]byte(runID))
		if data == nil {
			return ErrNotFound
		}
		var run models.Run
		if err := json.Unmarshal(data, &run); err != nil {
			return err
		}
		run.State = models.RunStateFinished
		run.FinishedAt = &finishedAt
		run.Summary = summary
		updated, err := json.Marshal(&run)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}
		return bucket.Put([]byte(runID), updated)
	})
}
