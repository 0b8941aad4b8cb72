package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	// SchemaVersion is the bucket layout written by Migrate.
	SchemaVersion = 1

	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

var (
	bucketMeta = []byte("meta")
	bucketRuns = []byte("runs")

	keySchemaVersion = []byte("schema_version")
	keyRunSeq        = []byte("run_seq")
)

// Migrator prepares persistent state before the service accepts requests.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// RunStore records pipeline runs.
type RunStore interface {
	SaveRun(ctx context.Context, rec domain.RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)
}

// BoltStore keeps run history in a local bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if needed) the bbolt file at path.
func Open(path string) (*BoltStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, &domain.ConfigurationError{Setting: "DB_PATH"}
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db %s: %w", path, err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate creates the buckets and records the schema version. It is safe to run repeatedly.
func (s *BoltStore) Migrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return fmt.Errorf("create meta bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return fmt.Errorf("create runs bucket: %w", err)
		}

		if current := decodeUint(meta.Get(keySchemaVersion)); current > SchemaVersion {
			return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
		}
		return meta.Put(keySchemaVersion, encodeUint(SchemaVersion))
	})
}

// SchemaVersion returns the version recorded by the last migration, zero if none ran.
func (s *BoltStore) SchemaVersion() (uint64, error) {
	var v uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		if meta := tx.Bucket(bucketMeta); meta != nil {
			v = decodeUint(meta.Get(keySchemaVersion))
		}
		return nil
	})
	return v, err
}

// SaveRun appends a run record. Records without an id get a sequence based one.
func (s *BoltStore) SaveRun(ctx context.Context, rec domain.RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return errors.New("runs bucket missing: migrate has not run")
		}

		seq, err := runs.NextSequence()
		if err != nil {
			return fmt.Errorf("next run sequence: %w", err)
		}
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("run-%d", seq)
		}

		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal run record: %w", err)
		}
		if meta := tx.Bucket(bucketMeta); meta != nil {
			if err := meta.Put(keyRunSeq, encodeUint(seq)); err != nil {
				return err
			}
		}
		return runs.Put(encodeUint(seq), payload)
	})
}

// RecentRuns returns up to limit runs, newest first.
func (s *BoltStore) RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	limit = min(limit, maxRecentLimit)

	out := make([]domain.RunRecord, 0, limit)
	err := s.db.View(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if runs == nil {
			return nil
		}
		c := runs.Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var rec domain.RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode run %d: %w", decodeUint(k), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func encodeUint(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
