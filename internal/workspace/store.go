package workspace

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"raven/internal/metadata"
)

// Current schema version - increment when the stored metadata layout changes
const storeSchemaVersion = 1

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("index store closed")

// Store persists extracted metadata of closed files so a restart can skip
// re-parsing files whose mtime and size are unchanged.
type Store struct {
	mu     sync.Mutex
	conn   *sql.DB
	logger *slog.Logger
	path   string

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// StoredFile is one row of the store.
type StoredFile struct {
	URI      string
	Snapshot FileSnapshot
	Metadata *metadata.FileMetadata
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS files (
	uri     TEXT PRIMARY KEY,
	mtime   INTEGER NOT NULL,
	size    INTEGER NOT NULL,
	hash    TEXT NOT NULL,
	schema  INTEGER NOT NULL,
	payload BLOB NOT NULL
)`

// OpenStore opens or creates the database at path.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	// одно соединение: sqlite всё равно сериализует запись
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Debug("index store opened", "path", path)
	return &Store{conn: conn, logger: logger, path: path, enc: enc, dec: dec}, nil
}

// Close releases the database and codecs.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	_ = s.enc.Close()
	s.dec.Close()
	return err
}

func (s *Store) encode(meta *metadata.FileMetadata) ([]byte, error) {
	raw, err := msgpack.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return s.enc.EncodeAll(raw, nil), nil
}

func (s *Store) decode(payload []byte) (*metadata.FileMetadata, error) {
	raw, err := s.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress metadata: %w", err)
	}
	var meta metadata.FileMetadata
	if err := msgpack.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}

// Put inserts or replaces the row for uri.
func (s *Store) Put(uri string, snap FileSnapshot, meta *metadata.FileMetadata) error {
	payload, err := s.encode(meta)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrStoreClosed
	}
	_, err = s.conn.Exec(
		`INSERT OR REPLACE INTO files (uri, mtime, size, hash, schema, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		uri, snap.ModTime.UnixNano(), snap.Size, strconv.FormatUint(snap.ContentHash, 16), storeSchemaVersion, payload,
	)
	if err != nil {
		return fmt.Errorf("store %s: %w", uri, err)
	}
	return nil
}

// Get returns the stored row for uri. Rows written by another schema
// version are reported as absent.
func (s *Store) Get(uri string) (*StoredFile, bool, error) {
	s.mu.Lock()
	if s.conn == nil {
		s.mu.Unlock()
		return nil, false, ErrStoreClosed
	}
	row := s.conn.QueryRow(`SELECT mtime, size, hash, schema, payload FROM files WHERE uri = ?`, uri)
	var (
		mtime, size int64
		hash        string
		schema      int
		payload     []byte
	)
	err := row.Scan(&mtime, &size, &hash, &schema, &payload)
	s.mu.Unlock()
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", uri, err)
	}
	return s.row(uri, mtime, size, hash, schema, payload)
}

func (s *Store) row(uri string, mtime, size int64, hash string, schema int, payload []byte) (*StoredFile, bool, error) {
	if schema != storeSchemaVersion {
		return nil, false, nil
	}
	meta, err := s.decode(payload)
	if err != nil {
		return nil, false, err
	}
	h, err := strconv.ParseUint(hash, 16, 64)
	if err != nil {
		return nil, false, fmt.Errorf("bad hash for %s: %w", uri, err)
	}
	return &StoredFile{
		URI: uri,
		Snapshot: FileSnapshot{
			ModTime:     time.Unix(0, mtime),
			Size:        size,
			ContentHash: h,
		},
		Metadata: meta,
	}, true, nil
}

// Load returns every decodable row of the current schema. Undecodable rows
// are logged and skipped.
func (s *Store) Load() ([]*StoredFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrStoreClosed
	}
	rows, err := s.conn.Query(`SELECT uri, mtime, size, hash, schema, payload FROM files ORDER BY uri`)
	if err != nil {
		return nil, fmt.Errorf("load index store: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*StoredFile
	for rows.Next() {
		var (
			uri, hash   string
			mtime, size int64
			schema      int
			payload     []byte
		)
		if err := rows.Scan(&uri, &mtime, &size, &hash, &schema, &payload); err != nil {
			return nil, err
		}
		f, ok, err := s.row(uri, mtime, size, hash, schema, payload)
		if err != nil {
			s.logger.Warn("skipping stored file", "uri", uri, "err", err)
			continue
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, rows.Err()
}

func (s *Store) Delete(uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrStoreClosed
	}
	_, err := s.conn.Exec(`DELETE FROM files WHERE uri = ?`, uri)
	return err
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }
