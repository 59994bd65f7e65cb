package fsrt

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/cocursor/backend/internal/domain/fsbuild"
)

// FileStamp is the fingerprint this daemon's stamp store produces and
// consumes: a content hash plus the modification time observed when that
// hash was computed, mirroring the two-part stamp JPS's HashStampStorage
// uses to tell "touched but unchanged" apart from "actually different
// bytes" (spec.md §6, "Stamp is opaque").
type FileStamp struct {
	Hash  string
	MTime int64
}

// StampStore is the SQLite-backed fsbuild.StampsStorage this daemon ships.
type StampStore struct {
	db *sql.DB
}

// NewStampStore opens (creating if necessary) the stamps table on db.
func NewStampStore(db *sql.DB) (*StampStore, error) {
	const createTableSQL = `
	CREATE TABLE IF NOT EXISTS fsbuild_stamps (
		target_type TEXT NOT NULL,
		target_id   TEXT NOT NULL,
		file        TEXT NOT NULL,
		hash        TEXT NOT NULL,
		mtime       INTEGER NOT NULL,
		PRIMARY KEY (target_type, target_id, file)
	);`
	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create fsbuild_stamps table: %w", err)
	}

	const createIndexSQL = `
	CREATE INDEX IF NOT EXISTS idx_fsbuild_stamps_file ON fsbuild_stamps(file);`
	if _, err := db.Exec(createIndexSQL); err != nil {
		return nil, fmt.Errorf("failed to create fsbuild_stamps index: %w", err)
	}

	return &StampStore{db: db}, nil
}

// CurrentStamp hashes file's current content and pairs it with its current
// mtime. It never touches the stored table — callers compare the result
// against SaveStamp's last write (directly, or via IsDirty) to decide
// whether a file actually changed.
func (s *StampStore) CurrentStamp(file string) (fsbuild.Stamp, error) {
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}

	return &FileStamp{
		Hash:  hex.EncodeToString(h.Sum(nil)),
		MTime: info.ModTime().UnixMilli(),
	}, nil
}

// SaveStamp persists stamp (normally one CurrentStamp just produced) for
// (file, target).
func (s *StampStore) SaveStamp(file string, target fsbuild.BuildTarget, stamp fsbuild.Stamp) error {
	fs, ok := stamp.(*FileStamp)
	if !ok {
		return fmt.Errorf("fsbuild: stamp store given a foreign stamp type %T", stamp)
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO fsbuild_stamps (target_type, target_id, file, hash, mtime) VALUES (?, ?, ?, ?, ?)`,
		target.TargetType().TypeID(), target.ID(), file, fs.Hash, fs.MTime,
	)
	return err
}

// RemoveStamp deletes the stored stamp for (file, target), if any.
func (s *StampStore) RemoveStamp(file string, target fsbuild.BuildTarget) error {
	_, err := s.db.Exec(
		`DELETE FROM fsbuild_stamps WHERE target_type = ? AND target_id = ? AND file = ?`,
		target.TargetType().TypeID(), target.ID(), file,
	)
	return err
}

// IsDirty reports whether file's current content hash differs from the
// last stamp saved for target, or no stamp was ever saved. It never
// mutates the stamp table, so callers remain free to call it speculatively.
func (s *StampStore) IsDirty(file string, target fsbuild.BuildTarget) (bool, error) {
	var storedHash string
	err := s.db.QueryRow(
		`SELECT hash FROM fsbuild_stamps WHERE target_type = ? AND target_id = ? AND file = ?`,
		target.TargetType().TypeID(), target.ID(), file,
	).Scan(&storedHash)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}

	current, err := s.CurrentStamp(file)
	if err != nil {
		return false, err
	}
	return current.(*FileStamp).Hash != storedHash, nil
}
