package fsrt

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cocursor/backend/internal/domain/fsbuild"
)

const stateFileName = "fsbuild-state.bin"

// Persistence loads and saves an FSState to a single file under dataDir,
// prefixed with a format-version header so a later incompatible rewrite of
// the wire format fails loudly instead of silently misparsing old data.
type Persistence struct {
	path string
}

// NewPersistence returns a Persistence writing to dataDir/fsbuild-state.bin.
func NewPersistence(dataDir string) *Persistence {
	return &Persistence{path: filepath.Join(dataDir, stateFileName)}
}

// Save atomically replaces the persisted state file with state's current
// contents. It writes to a temp file in the same directory and renames it
// into place, so a crash mid-write never leaves a truncated file behind.
func (p *Persistence) Save(state *fsbuild.FSState, rootIndex fsbuild.RootIndex) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("fsbuild: failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), stateFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("fsbuild: failed to create temp state file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := bufio.NewWriter(tmp)
	var versionBuf [4]byte
	binary.BigEndian.PutUint32(versionBuf[:], uint32(fsbuild.Version))
	if _, err := w.Write(versionBuf[:]); err != nil {
		tmp.Close()
		return err
	}
	if err := state.Save(w, rootIndex); err != nil {
		tmp.Close()
		return fmt.Errorf("fsbuild: failed to serialize state: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, p.path)
}

// Load reads previously saved state into state. A missing file is treated
// as "nothing persisted yet" rather than an error: the very first run of a
// fresh daemon against a project it has never seen leaves state empty, and
// every target falls back to a full filesystem scan.
func (p *Persistence) Load(state *fsbuild.FSState, registry fsbuild.TargetTypeRegistry, rootIndex fsbuild.RootIndex) error {
	f, err := os.Open(p.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var versionBuf [4]byte
	if _, err := io.ReadFull(r, versionBuf[:]); err != nil {
		return fmt.Errorf("fsbuild: failed to read state header: %w", err)
	}
	version := binary.BigEndian.Uint32(versionBuf[:])
	if version != uint32(fsbuild.Version) {
		return fsbuild.ErrUnknownFormatVersion
	}

	return state.Load(r, registry, rootIndex)
}
