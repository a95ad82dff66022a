package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/jaywantadh/PrioStream/internal/protocol"
	"github.com/jaywantadh/PrioStream/pkg/logging"
)

const downloadPrefix = "download:"

// Record describes one file the client finished downloading.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Size        uint64 `json:"size"`
	Digest      string `json:"digest"` // blake2b-256, hex
	Server      string `json:"server"`
	CompletedAt int64  `json:"completed_at"` // Unix timestamp
}

// Store wraps BadgerDB for the download history.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a BadgerDB at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dbPath).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a record, replacing any earlier download of the same name.
func (s *Store) Put(rec Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(downloadPrefix+rec.Name), val)
	})
}

// Get retrieves the record for a file name.
func (s *Store) Get(name string) (Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(downloadPrefix + name))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// List returns every record, most recent first.
func (s *Store) List() ([]Record, error) {
	var recs []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(downloadPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CompletedAt > recs[j].CompletedAt
	})
	return recs, err
}

// Digest hashes a file with blake2b-256.
func Digest(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Recorder stores a Record for every file a client session finishes.
type Recorder struct {
	store     *Store
	fs        afero.Fs
	outputDir string
	catalog   protocol.Catalog
	server    string
}

func NewRecorder(store *Store, fs afero.Fs, outputDir string, cat protocol.Catalog, server string) *Recorder {
	return &Recorder{
		store:     store,
		fs:        fs,
		outputDir: outputDir,
		catalog:   cat,
		server:    server,
	}
}

func (r *Recorder) Progress(int, uint64) {}

func (r *Recorder) Waiting() {}

func (r *Recorder) Finished(index int) {
	entry := r.catalog[index]
	path := filepath.Join(r.outputDir, entry.Name)

	digest, err := Digest(r.fs, path)
	if err != nil {
		logging.Log.WithError(err).Warnf("⚠️ Could not hash `%s`", path)
		return
	}

	rec := Record{
		ID:          uuid.New().String(),
		Name:        entry.Name,
		Size:        entry.Size,
		Digest:      digest,
		Server:      r.server,
		CompletedAt: time.Now().Unix(),
	}
	if err := r.store.Put(rec); err != nil {
		logging.Log.WithError(err).Warnf("⚠️ Could not record download of `%s`", entry.Name)
	}
}
