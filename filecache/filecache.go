/*
Package filecache implements the specification's on-disk LRU cache
(component C2): a persistent store of byte blobs under a directory, keyed
by 64-bit unsigned integers, with the same hit/miss contract as package
cache but backed by files instead of heap memory.

Grounded directly on the original implementation's FileCache (Cache.cpp):
the directory layout (subdir = hex(key&0xff), file = hex(key>>8)), the
writability probe against a reserved temp-file name, the startup directory
walk, and the lazy removal of index entries for externally deleted files
all follow that design, translated into Go's map+list idiom the way
package cache already does for the in-memory variant.

================================================================================
CONCURRENCY MODEL
================================================================================

Per the specification's upgradeable-read-lock design note: a
sync.RWMutex (mu) guards entry membership in the map and the size/insert
counters, while a separate sync.Mutex (orderMu) guards the LRU queue's
relative ordering. Find only needs mu.RLock to look the entry up; disk
I/O happens outside any lock; promoting the hit to the back of the LRU
queue takes only orderMu, never blocking concurrent readers against each
other the way a single exclusive lock would.
*/
package filecache

import (
	"container/list"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/Krishna8167/tempusutil/internal/xlog"
	"github.com/Krishna8167/tempusutil/xerrors"
)

const testFilePrefix = ".tempusutil-probe-"

// Cache is a thread-safe, persistent LRU cache of byte blobs rooted at a
// directory on disk. Zero value is not usable; construct with New.
type Cache struct {
	root     string
	capacity uint64
	log      zerolog.Logger

	mu      sync.RWMutex
	data    map[uint64]*list.Element
	size    uint64
	inserts uint64

	orderMu sync.Mutex
	order   *list.List

	hits   atomic.Uint64
	misses atomic.Uint64

	startTime time.Time
}

/*
New constructs a Cache rooted at dir with the given byte capacity.

Per the specification's §4.2 startup sequence:
 1. Create dir if it does not exist; error if it exists and is not a
    directory.
 2. Probe writability by writing and removing a uuid-suffixed probe file.
 3. Reject a capacity exceeding the filesystem's reported capacity.
 4. Walk the directory tree, registering every file under a valid subdir
    until the accumulated size would exceed capacity; further files are
    left on disk but untracked.

Any filesystem failure during construction is reported as IoError.
*/
func New(dir string, capacity uint64) (*Cache, error) {
	c := &Cache{
		root:      dir,
		capacity:  capacity,
		data:      make(map[uint64]*list.Element),
		order:     list.New(),
		log:       xlog.Component("filecache"),
		startTime: time.Now(),
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		if err := os.Mkdir(dir, 0o755); err != nil {
			return nil, xerrors.Trace("filecache: create directory", xerrors.ErrIO).
				AddParameter("directory", dir)
		}
	} else if err != nil {
		return nil, xerrors.Trace("filecache: stat directory", xerrors.ErrIO).
			AddParameter("directory", dir)
	} else if !info.IsDir() {
		return nil, xerrors.Trace("filecache: not a directory", xerrors.ErrIO).
			AddParameter("directory", dir)
	}

	if err := c.probeWritable(); err != nil {
		return nil, err
	}

	if fsCap, ok := filesystemCapacity(dir); ok && capacity > fsCap {
		return nil, xerrors.Trace("filecache: capacity exceeds filesystem capacity", xerrors.ErrIO).
			AddParameter("capacity", strconv.FormatUint(capacity, 10)).
			AddParameter("filesystem_capacity", strconv.FormatUint(fsCap, 10))
	}

	if err := c.loadExisting(); err != nil {
		return nil, err
	}

	c.log.Info().Str("root", dir).Uint64("capacity", capacity).Int("loaded", c.order.Len()).Msg("file cache ready")
	return c, nil
}

func (c *Cache) probeWritable() error {
	// A uuid-suffixed name, rather than a fixed "testfile", avoids a
	// collision if two processes probe the same directory concurrently.
	path := filepath.Join(c.root, testFilePrefix+uuid.NewString())
	if err := os.WriteFile(path, []byte("test"), 0o644); err != nil {
		return xerrors.Trace("filecache: directory not writable", xerrors.ErrIO).
			AddParameter("directory", c.root)
	}
	_ = os.Remove(path)
	return nil
}

func filesystemCapacity(dir string) (uint64, bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, false
	}
	return uint64(stat.Blocks) * uint64(stat.Bsize), true
}

// loadExisting walks the directory tree, registering every regular file
// under a subdirectory whose name pair decodes to a valid key, and stops
// at the first such file that would push the accumulated size past
// capacity.
func (c *Cache) loadExisting() error {
	return filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // tolerate unreadable entries, per the startup walk's lenience
		}
		if d.IsDir() || path == c.root {
			return nil
		}
		parent := filepath.Dir(path)
		if parent == c.root {
			return nil // top-level files are not ours; ignore
		}
		subDir := filepath.Base(parent)
		fileName := filepath.Base(path)
		key, ok := parseKey(subDir, fileName)
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		size := uint64(info.Size())
		if c.size+size > c.capacity {
			return filepath.SkipAll
		}
		elem := c.order.PushBack(&fileEntry{key: key, path: path, size: size})
		c.data[key] = elem
		c.size += size
		return nil
	})
}

/*
Find looks up key.

Absent, or present but the file no longer exists on disk, both count as
a miss (per §9's design note: a vanished file is a miss, the stale index
entry is removed lazily at the next write, not here). Otherwise the file
is read in full and the entry promoted to the back of the LRU queue.
*/
func (c *Cache) Find(key uint64) ([]byte, bool) {
	c.mu.RLock()
	elem, found := c.data[key]
	var e fileEntry
	if found {
		e = *elem.Value.(*fileEntry)
	}
	c.mu.RUnlock()

	if !found {
		c.misses.Add(1)
		return nil, false
	}

	data, err := os.ReadFile(e.path)
	if err != nil {
		c.misses.Add(1)
		return nil, false
	}

	c.orderMu.Lock()
	c.order.MoveToBack(elem)
	c.orderMu.Unlock()

	c.hits.Add(1)
	return data, true
}

/*
Insert writes value under key.

Per §4.2: an already-present, still-on-disk key is a no-op success. A
present-but-missing-file key drops the stale entry and proceeds as a new
insert. A value that alone exceeds capacity is refused unconditionally.
Otherwise, if there isn't enough free space, performCleanup controls
whether LRU entries are evicted to make room (refusing if the queue
empties first) or the insert simply fails.
*/
func (c *Cache) Insert(key uint64, value []byte, performCleanup bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueSize := uint64(len(value))

	if elem, found := c.data[key]; found {
		e := elem.Value.(*fileEntry)
		if _, err := os.Stat(e.path); err == nil {
			return true
		}
		c.removeEntryLocked(elem)
	}

	if valueSize > c.capacity {
		return false
	}

	if c.capacity-c.size < valueSize {
		if !performCleanup {
			return false
		}
		if !c.performCleanupLocked(valueSize) {
			return false
		}
	}

	subDir, fileName := pathFor(key)
	dir := filepath.Join(c.root, subDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.log.Warn().Err(err).Str("dir", dir).Msg("insert failed: cannot create subdirectory")
		return false
	}

	fullPath := filepath.Join(dir, fileName)
	if err := os.WriteFile(fullPath, value, 0o644); err != nil {
		c.log.Warn().Err(err).Str("path", fullPath).Msg("insert failed: cannot write file")
		return false
	}

	elem := c.order.PushBack(&fileEntry{key: key, path: fullPath, size: valueSize})
	c.data[key] = elem
	c.size += valueSize
	c.inserts++
	return true
}

// Clean evicts LRU entries until at least spaceNeeded bytes are free, or
// the queue empties, returning whether enough space was freed.
func (c *Cache) Clean(spaceNeeded uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.performCleanupLocked(spaceNeeded)
}

func (c *Cache) performCleanupLocked(spaceNeeded uint64) bool {
	for c.capacity-c.size < spaceNeeded {
		elem := c.order.Front()
		if elem == nil {
			return false
		}
		e := elem.Value.(*fileEntry)
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			c.log.Warn().Err(err).Str("path", e.path).Msg("cleanup: failed to remove file")
		}
		c.removeEntryLocked(elem)
	}
	return true
}

func (c *Cache) removeEntryLocked(elem *list.Element) {
	e := elem.Value.(*fileEntry)
	c.orderMu.Lock()
	c.order.Remove(elem)
	c.orderMu.Unlock()
	delete(c.data, e.key)
	c.size -= e.size
}

// GetContent returns the currently tracked keys, oldest (LRU) first.
func (c *Cache) GetContent() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	keys := make([]uint64, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*fileEntry).key)
	}
	return keys
}

// GetSize returns the current accounted byte size.
func (c *Cache) GetSize() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Statistics returns a snapshot of the running counters.
func (c *Cache) Statistics() Statistics {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Statistics{
		StartTime: c.startTime,
		Capacity:  c.capacity,
		Size:      c.size,
		Inserts:   c.inserts,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
	}
}

// pathFor computes the subdirectory/filename pair for key, per the
// specification's fixed directory layout: subdir = hex(key & 0xff),
// file = hex(key >> 8), both lowercase and unpadded.
func pathFor(key uint64) (subDir, fileName string) {
	return strconv.FormatUint(key&0xff, 16), strconv.FormatUint(key>>8, 16)
}

// parseKey inverts pathFor, rejecting anything that doesn't round-trip
// (e.g. uppercase or zero-padded hex, or a non-hex subdir/filename pair
// left by another process).
func parseKey(subDir, fileName string) (uint64, bool) {
	lo, err := strconv.ParseUint(subDir, 16, 16)
	if err != nil || lo > 0xff {
		return 0, false
	}
	hi, err := strconv.ParseUint(fileName, 16, 64)
	if err != nil {
		return 0, false
	}
	key := (hi << 8) | lo
	if s, f := pathFor(key); s != subDir || f != fileName {
		return 0, false
	}
	return key, true
}
