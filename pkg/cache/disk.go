package cache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

const (
	// uint32ByteSize is the length prefix size of an on-disk entry.
	uint32ByteSize = 4

	entryExtension = ".lz4"
	tmpExtension   = ".tmp"

	dirPerm  = 0o755
	filePerm = 0o644

	// maxEntrySize bounds the decompressed size accepted from disk.
	maxEntrySize = 256 * 1024 * 1024
)

// ErrCorruptEntry reports an on-disk entry that cannot be decompressed.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// Disk persists entries as LZ4 blocks under a directory, sharded by the
// first key byte. Writes are atomic.
type Disk struct {
	dir string
}

// NewDisk creates a disk cache rooted at dir, creating it if needed.
func NewDisk(dir string) (*Disk, error) {
	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}

	return &Disk{dir: dir}, nil
}

// Dir returns the cache root.
func (d *Disk) Dir() string {
	return d.dir
}

// Get reads and decompresses the entry stored under key. A missing or
// unreadable entry is a miss.
func (d *Disk) Get(key Key) ([]byte, bool) {
	raw, err := os.ReadFile(d.path(key))
	if err != nil {
		return nil, false
	}

	data, err := decompress(raw)
	if err != nil {
		return nil, false
	}

	return data, true
}

// Put compresses data and writes it under key. Each write goes through
// its own temporary file, so concurrent writers of one key never share a
// path and the last rename wins.
func (d *Disk) Put(key Key, data []byte) error {
	finalPath := d.path(key)
	shard := filepath.Dir(finalPath)

	err := os.MkdirAll(shard, dirPerm)
	if err != nil {
		return fmt.Errorf("cache: create shard: %w", err)
	}

	tmp, err := os.CreateTemp(shard, filepath.Base(finalPath)+"-*"+tmpExtension)
	if err != nil {
		return fmt.Errorf("cache: create entry: %w", err)
	}

	tmpPath := tmp.Name()

	_, err = tmp.Write(compress(data))
	if err == nil {
		err = tmp.Chmod(filePerm)
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("cache: write entry: %w", err)
	}

	err = os.Rename(tmpPath, finalPath)
	if err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("cache: rename entry: %w", err)
	}

	return nil
}

// Clear removes every entry.
func (d *Disk) Clear() error {
	err := os.RemoveAll(d.dir)
	if err != nil {
		return fmt.Errorf("cache: clear %s: %w", d.dir, err)
	}

	return os.MkdirAll(d.dir, dirPerm)
}

func (d *Disk) path(key Key) string {
	name := key.String()

	return filepath.Join(d.dir, name[:2], name[2:]+entryExtension)
}

// compress frames data as a little-endian length followed by an LZ4 block.
// Incompressible data is stored raw with a zero-length block marker.
func compress(data []byte) []byte {
	out := make([]byte, uint32ByteSize+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint32(out, uint32(len(data))) //nolint:gosec // bounded by maxEntrySize on read.

	written, err := lz4.CompressBlock(data, out[uint32ByteSize:], nil)
	if err != nil || written == 0 {
		out = append(out[:uint32ByteSize], data...)
		binary.LittleEndian.PutUint32(out, 0)

		return out
	}

	return out[:uint32ByteSize+written]
}

func decompress(raw []byte) ([]byte, error) {
	if len(raw) < uint32ByteSize {
		return nil, ErrCorruptEntry
	}

	size := binary.LittleEndian.Uint32(raw)
	if size == 0 {
		return raw[uint32ByteSize:], nil
	}

	if size > maxEntrySize {
		return nil, fmt.Errorf("%w: declared size %d", ErrCorruptEntry, size)
	}

	data := make([]byte, size)

	read, err := lz4.UncompressBlock(raw[uint32ByteSize:], data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptEntry, err)
	}

	if read != int(size) {
		return nil, fmt.Errorf("%w: short block", ErrCorruptEntry)
	}

	return data, nil
}
