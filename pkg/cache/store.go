// Package cache stores encoded syntax trees keyed by file content, in memory
// and on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Key identifies a cached tree by the hash of its path and content.
type Key [sha256.Size]byte

// NewKey derives the key of a source file. The path takes part in the key
// because trees record it.
func NewKey(path string, content []byte) Key {
	hasher := sha256.New()
	hasher.Write([]byte(path))
	hasher.Write([]byte{0})
	hasher.Write(content)

	var key Key

	copy(key[:], hasher.Sum(nil))

	return key
}

// String returns the hex form of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Store is a byte cache keyed by Key.
type Store interface {
	Get(key Key) ([]byte, bool)
	Put(key Key, data []byte) error
}

// Tiered reads through an in-memory cache to an optional disk cache and
// promotes disk hits to memory.
type Tiered struct {
	Memory *Memory
	Disk   *Disk
}

// NewTiered builds a tiered store. A nil disk keeps everything in memory.
func NewTiered(memorySize int64, disk *Disk) *Tiered {
	return &Tiered{Memory: NewMemory(memorySize), Disk: disk}
}

// Get returns the entry stored under key from the first tier holding it.
func (t *Tiered) Get(key Key) ([]byte, bool) {
	if data, ok := t.Memory.Get(key); ok {
		return data, true
	}

	if t.Disk == nil {
		return nil, false
	}

	data, ok := t.Disk.Get(key)
	if !ok {
		return nil, false
	}

	_ = t.Memory.Put(key, data)

	return data, true
}

// Put writes the entry to every tier.
func (t *Tiered) Put(key Key, data []byte) error {
	err := t.Memory.Put(key, data)
	if err != nil {
		return err
	}

	if t.Disk == nil {
		return nil
	}

	return t.Disk.Put(key, data)
}

// Stats returns the memory tier statistics.
func (t *Tiered) Stats() Stats {
	return t.Memory.Stats()
}
