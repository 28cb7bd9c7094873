package ethdb

import (
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/rcrowley/go-metrics"
)

// Database is the minimal key-value store trie.Store is built on, matching
// the shape the teacher's backup.go already assumes of LDBDatabase.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	NewBatch() Batch
	Close()
}

// Batch accumulates writes for a single atomic commit (spec §4.1's "batched,
// all-or-nothing write" requirement on TrieUpdate.commit).
type Batch interface {
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	Write() error
	ValueSize() int
	Reset()
}

// LDBDatabase is a leveldb-backed Database, the same wrapper shape the
// teacher's ethdb/backup.go expects (db.LDB(), db.LDBSnapshot()).
type LDBDatabase struct {
	fn string
	db *leveldb.DB

	quitLock sync.Mutex

	getTimer    metrics.Timer
	putTimer    metrics.Timer
	missMeter   metrics.Meter
	readMeter   metrics.Meter
	writeMeter  metrics.Meter
}

// NewLDBDatabase opens (or creates) a leveldb store at file, with a
// configurable in-memory cache and open file handle budget.
func NewLDBDatabase(file string, cache int, handles int) (*LDBDatabase, error) {
	if cache < 16 {
		cache = 16
	}
	if handles < 16 {
		handles = 16
	}
	db, err := leveldb.OpenFile(file, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 nil,
	})
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &LDBDatabase{
		fn:         file,
		db:         db,
		getTimer:   metrics.NewRegisteredTimer("ethdb/get", nil),
		putTimer:   metrics.NewRegisteredTimer("ethdb/put", nil),
		missMeter:  metrics.NewRegisteredMeter("ethdb/miss", nil),
		readMeter:  metrics.NewRegisteredMeter("ethdb/read", nil),
		writeMeter: metrics.NewRegisteredMeter("ethdb/write", nil),
	}, nil
}

func (db *LDBDatabase) Put(key []byte, value []byte) error {
	defer db.putTimer.UpdateSince(time.Now())
	db.writeMeter.Mark(int64(len(value)))
	return db.db.Put(key, value, nil)
}

func (db *LDBDatabase) Has(key []byte) (bool, error) {
	return db.db.Has(key, nil)
}

func (db *LDBDatabase) Get(key []byte) ([]byte, error) {
	defer db.getTimer.UpdateSince(time.Now())
	dat, err := db.db.Get(key, nil)
	if err != nil {
		db.missMeter.Mark(1)
		return nil, err
	}
	db.readMeter.Mark(int64(len(dat)))
	return dat, nil
}

func (db *LDBDatabase) Delete(key []byte) error {
	return db.db.Delete(key, nil)
}

// LDB returns the underlying leveldb handle, used by backup.go's snapshot
// and compaction helpers.
func (db *LDBDatabase) LDB() *leveldb.DB { return db.db }

func (db *LDBDatabase) Close() {
	db.quitLock.Lock()
	defer db.quitLock.Unlock()
	db.db.Close()
}

func (db *LDBDatabase) NewBatch() Batch {
	return &ldbBatch{db: db.db, b: new(leveldb.Batch)}
}

type ldbBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
}

func (b *ldbBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.size += len(key) + len(value)
	return nil
}

func (b *ldbBatch) Delete(key []byte) error {
	b.b.Delete(key)
	b.size++
	return nil
}

func (b *ldbBatch) Write() error {
	return b.db.Write(b.b, nil)
}

func (b *ldbBatch) ValueSize() int { return b.size }

func (b *ldbBatch) Reset() { b.b.Reset() }
