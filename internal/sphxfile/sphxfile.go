// Package sphxfile manages one index's on-disk file set: the new/cur/old
// lifecycle naming, the SPHX header written to the set's sph file, and the atomic
// rename-based rotation between lifecycles (spec.md §6, §3.12).
//
// Grounded on the teacher's bucketteer file-pair convention (a primary
// data file plus a small header/metadata file written alongside it), here
// widened to the full eleven-extension set a sphx index produces.
package sphxfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	bin "github.com/gagliardetto/binary"
	"github.com/google/uuid"

	"github.com/rpcpool/sphx-index/internal/indexmeta"
)

// Magic is the four-byte "SPHX" header marker the sph file begins with;
// the set's other files carry no header.
const Magic uint32 = 0x58485053

// FormatVersion is the version this package reads and writes. Readers
// must reject any higher version.
const FormatVersion uint32 = 1

// Lifecycle names the rotation stage a file set belongs to.
type Lifecycle string

const (
	LifecycleNew Lifecycle = "new"
	LifecycleCur Lifecycle = "cur"
	LifecycleOld Lifecycle = "old"
)

// Extensions is the full set of extensions one index version produces
// (spec.md §6), plus "spc": the dictionary's checkpoint sidecar. spec.md
// doesn't name a checkpoint file because it specifies the dictionary
// reader as loading checkpoints "supplied by the caller"; a standalone
// CLI has no such caller, so it needs them on disk to survive a restart.
var Extensions = []string{"sph", "spa", "spi", "spd", "spp", "spm", "spk", "sps", "spe", "mvp", "spc"}

// Set names every file belonging to one index, dir, and lifecycle.
type Set struct {
	Dir       string
	Name      string
	Lifecycle Lifecycle
}

// Path returns the full path for the given extension.
func (s Set) Path(ext string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s.%s.%s", string(s.Lifecycle), s.Name, ext))
}

// Rotate renames a write-in-progress "new" set to "cur", first demoting
// any existing "cur" set to "old". Each rename is applied one extension
// at a time and completed renames are not rolled back: a failure partway
// leaves some extensions renamed and others not.
func Rotate(dir, name string) error {
	newSet := Set{Dir: dir, Name: name, Lifecycle: LifecycleNew}
	curSet := Set{Dir: dir, Name: name, Lifecycle: LifecycleCur}
	oldSet := Set{Dir: dir, Name: name, Lifecycle: LifecycleOld}

	for _, ext := range Extensions {
		if _, err := os.Stat(curSet.Path(ext)); err == nil {
			if err := os.Rename(curSet.Path(ext), oldSet.Path(ext)); err != nil {
				return fmt.Errorf("sphxfile: demote %s: %w", ext, err)
			}
		}
	}
	for _, ext := range Extensions {
		if _, err := os.Stat(newSet.Path(ext)); err != nil {
			continue // not every index uses every extension
		}
		if err := os.Rename(newSet.Path(ext), curSet.Path(ext)); err != nil {
			return fmt.Errorf("sphxfile: promote %s: %w", ext, err)
		}
	}
	return nil
}

// RemoveOld deletes a previously rotated-out "old" set, the configurable
// unlink policy spec.md §7 leaves to the caller.
func RemoveOld(dir, name string) error {
	oldSet := Set{Dir: dir, Name: name, Lifecycle: LifecycleOld}
	for _, ext := range Extensions {
		if err := os.Remove(oldSet.Path(ext)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Header is the fixed-layout prefix of the sph file,
// followed by a variable-length metadata blob (corpus name, config
// fingerprint, anything worth recovering without re-deriving it from the
// index body).
type Header struct {
	Magic   uint32
	Version uint32
	BuildID uuid.UUID
	Meta    indexmeta.Meta
}

// NewHeader stamps a fresh header for a newly built index with a random
// build ID. Nothing in this module compares build IDs across files.
func NewHeader() Header {
	return Header{Magic: Magic, Version: FormatVersion, BuildID: uuid.New()}
}

// Bytes encodes h with gagliardetto/binary's Borsh encoder, the corpus's
// field-at-a-time fixed-layout codec, the same write-one-field-at-a-time
// shape bucketteer's createHeader uses.
func (h Header) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	w := bin.NewBorshEncoder(buf)
	if err := w.WriteUint32(h.Magic, binary.LittleEndian); err != nil {
		return nil, err
	}
	if err := w.WriteUint32(h.Version, binary.LittleEndian); err != nil {
		return nil, err
	}
	if _, err := w.Write(h.BuildID[:]); err != nil {
		return nil, err
	}
	metaBuf, err := h.Meta.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("sphxfile: marshal metadata: %w", err)
	}
	if _, err := w.Write(metaBuf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadHeader decodes and validates a Header, rejecting a higher format
// version or a magic that indicates the opposite endianness
// (spec.md §6's "a mis-endian file is rejected with a specific error").
func ReadHeader(buf []byte) (Header, error) {
	r := bin.NewBorshDecoder(buf)
	magic, err := r.ReadUint32(bin.LE)
	if err != nil {
		return Header{}, fmt.Errorf("sphxfile: read magic: %w", err)
	}
	if magic == swapUint32(Magic) {
		return Header{}, fmt.Errorf("sphxfile: file was written with the opposite byte order")
	}
	if magic != Magic {
		return Header{}, fmt.Errorf("sphxfile: bad magic 0x%x", magic)
	}
	version, err := r.ReadUint32(bin.LE)
	if err != nil {
		return Header{}, fmt.Errorf("sphxfile: read version: %w", err)
	}
	if version > FormatVersion {
		return Header{}, fmt.Errorf("sphxfile: unsupported format version %d (know up to %d)", version, FormatVersion)
	}
	var buildID uuid.UUID
	if _, err := r.Read(buildID[:]); err != nil {
		return Header{}, fmt.Errorf("sphxfile: read build id: %w", err)
	}
	var meta indexmeta.Meta
	if err := meta.UnmarshalWithDecoder(r); err != nil {
		return Header{}, fmt.Errorf("sphxfile: read metadata: %w", err)
	}
	return Header{Magic: magic, Version: version, BuildID: buildID, Meta: meta}, nil
}

func swapUint32(v uint32) uint32 {
	return (v>>24)&0xff | (v>>8)&0xff00 | (v<<8)&0xff0000 | (v << 24)
}
