package cache_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/codemetrics/pkg/cache"
)

func makeKey(b byte) cache.Key {
	var key cache.Key

	key[0] = b

	return key
}

func TestNewKey(t *testing.T) {
	t.Parallel()

	first := cache.NewKey("a.py", []byte("x = 1"))

	assert.Equal(t, first, cache.NewKey("a.py", []byte("x = 1")))
	assert.NotEqual(t, first, cache.NewKey("b.py", []byte("x = 1")))
	assert.NotEqual(t, first, cache.NewKey("a.py", []byte("x = 2")))
	assert.NotEqual(t, cache.NewKey("ab", nil), cache.NewKey("a", []byte("b")))
	assert.Len(t, first.String(), 64)
}

func TestMemory_GetPut(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(1024)

	_, ok := c.Get(makeKey(1))
	assert.False(t, ok)

	require.NoError(t, c.Put(makeKey(1), []byte("hello world")))

	got, ok := c.Get(makeKey(1))
	require.True(t, ok)
	assert.Equal(t, []byte("hello world"), got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(11), stats.CurrentSize)
	assert.InDelta(t, 0.5, stats.HitRate(), 1e-9)
}

func TestMemory_PutCopies(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(1024)
	data := []byte("abc")

	require.NoError(t, c.Put(makeKey(1), data))

	data[0] = 'z'

	got, ok := c.Get(makeKey(1))
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemory_Eviction(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(100)

	for idx := range byte(5) {
		require.NoError(t, c.Put(makeKey(idx), bytes.Repeat([]byte{idx}, 30)))
	}

	stats := c.Stats()
	assert.LessOrEqual(t, stats.CurrentSize, int64(100))
	assert.Equal(t, 3, stats.Entries)

	_, ok := c.Get(makeKey(4))
	assert.True(t, ok, "most recent entry survives")
}

func TestMemory_OversizedIgnored(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(10)

	require.NoError(t, c.Put(makeKey(1), make([]byte, 11)))

	assert.Equal(t, 0, c.Stats().Entries)
}

func TestMemory_DefaultSizeAndClear(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(0)
	assert.Equal(t, int64(cache.DefaultMemorySize), c.Stats().MaxSize)

	require.NoError(t, c.Put(makeKey(1), []byte("x")))
	c.Clear()

	_, ok := c.Get(makeKey(1))
	assert.False(t, ok)
	assert.Equal(t, int64(0), c.Stats().CurrentSize)
}

func TestMemory_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory(4096)

	var wg sync.WaitGroup

	for worker := range byte(8) {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for idx := range byte(50) {
				key := makeKey(worker*50 + idx)
				_ = c.Put(key, []byte{idx})
				c.Get(key)
			}
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, c.Stats().CurrentSize, int64(4096))
}

func TestDisk_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	d, err := cache.NewDisk(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, d.Dir())

	key := cache.NewKey("mod.py", []byte("pass"))
	payload := []byte(strings.Repeat(`{"kind":"Pass"}`, 100))

	_, ok := d.Get(key)
	assert.False(t, ok)

	require.NoError(t, d.Put(key, payload))

	got, ok := d.Get(key)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	name := key.String()
	info, err := os.Stat(filepath.Join(dir, name[:2], name[2:]+".lz4"))
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(payload)), "repetitive payload is compressed")
}

func TestDisk_Incompressible(t *testing.T) {
	t.Parallel()

	d, err := cache.NewDisk(t.TempDir())
	require.NoError(t, err)

	payload := []byte{0x01, 0x7f, 0x33}

	require.NoError(t, d.Put(makeKey(9), payload))

	got, ok := d.Get(makeKey(9))
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestDisk_CorruptEntryIsMiss(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	d, err := cache.NewDisk(dir)
	require.NoError(t, err)

	key := makeKey(7)
	require.NoError(t, d.Put(key, bytes.Repeat([]byte("ab"), 64)))

	name := key.String()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name[:2], name[2:]+".lz4"), []byte{0xff, 0xff, 0xff, 0x7f, 1}, 0o600))

	_, ok := d.Get(key)
	assert.False(t, ok)
}

func TestDisk_ConcurrentPutsOfOneKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	d, err := cache.NewDisk(dir)
	require.NoError(t, err)

	key := cache.NewKey("mod.py", []byte("pass"))
	payload := bytes.Repeat([]byte("tree"), 256)

	var wg sync.WaitGroup

	errs := make([]error, 16)

	for idx := range errs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			errs[idx] = d.Put(key, payload)
		}()
	}

	wg.Wait()

	for _, putErr := range errs {
		require.NoError(t, putErr)
	}

	got, ok := d.Get(key)
	require.True(t, ok)
	assert.Equal(t, payload, got)

	name := key.String()
	entries, err := os.ReadDir(filepath.Join(dir, name[:2]))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestDisk_Clear(t *testing.T) {
	t.Parallel()

	d, err := cache.NewDisk(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, d.Put(makeKey(1), []byte("data")))
	require.NoError(t, d.Clear())

	_, ok := d.Get(makeKey(1))
	assert.False(t, ok)
}

func TestTiered_PromotesDiskHits(t *testing.T) {
	t.Parallel()

	disk, err := cache.NewDisk(t.TempDir())
	require.NoError(t, err)

	key := makeKey(3)
	require.NoError(t, disk.Put(key, []byte("tree")))

	store := cache.NewTiered(1024, disk)

	got, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("tree"), got)

	_, ok = store.Memory.Get(key)
	assert.True(t, ok)
}

func TestTiered_MemoryOnly(t *testing.T) {
	t.Parallel()

	var store cache.Store = cache.NewTiered(1024, nil)

	_, ok := store.Get(makeKey(1))
	assert.False(t, ok)

	require.NoError(t, store.Put(makeKey(1), []byte("x")))

	got, ok := store.Get(makeKey(1))
	require.True(t, ok)
	assert.Equal(t, []byte("x"), got)
}
