// Package database is the only writer of the shop's JSON documents.
//
// DB wraps a Store and a Cache and exposes the product, sale, shift,
// customer, user and settings operations. Every read-modify-write starts
// from a fresh disk read, and every successful write refreshes the cache
// entry for the document it touched.
package database

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"smokedash/internal/auth"
	"smokedash/internal/models"

	"github.com/sirupsen/logrus"
)

// Document names inside the data directory.
const (
	docProducts  = "products.json"
	docSales     = "sales.json"
	docSettings  = "settings.json"
	docUsers     = "users.json"
	docShifts    = "shifts.json"
	docCustomers = "customers.json"
	docAudit     = "audit.json"
	docCounters  = "counters.json"
)

// Options configures Open. Zero values pick sensible defaults.
type Options struct {
	Dir       string
	CacheSize int
	Hasher    auth.Hasher
	Clock     func() time.Time
	Logger    logrus.FieldLogger
}

// DB - The shop's repository over the data directory
type DB struct {
	mu     sync.Mutex
	store  *Store
	cache  *Cache
	hasher auth.Hasher
	now    func() time.Time
	log    logrus.FieldLogger
}

// Open prepares the data directory and seeds any missing document.
func Open(opts Options) (*DB, error) {
	if opts.Dir == "" {
		opts.Dir = "data"
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		opts.Logger = l
	}
	if opts.Hasher == nil {
		opts.Hasher = auth.NewBcryptHasher(0)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	store, err := NewStore(opts.Dir, opts.Logger)
	if err != nil {
		return nil, err
	}

	db := &DB{
		store:  store,
		cache:  NewCache(opts.CacheSize),
		hasher: opts.Hasher,
		now:    opts.Clock,
		log:    opts.Logger,
	}
	if err := db.seed(); err != nil {
		return nil, err
	}
	db.log.WithField("dir", opts.Dir).Debug("data directory ready")
	return db, nil
}

// Dir is the data directory backing this DB.
func (db *DB) Dir() string {
	return db.store.Dir()
}

// seed writes defaults for documents that do not exist yet. A corrupt
// document exists and is therefore never overwritten here.
func (db *DB) seed() error {
	for _, name := range []string{docProducts, docSales, docShifts, docCustomers, docAudit} {
		if !db.store.Exists(name) {
			if err := db.store.Save(name, []any{}); err != nil {
				return err
			}
		}
	}
	if !db.store.Exists(docSettings) {
		if err := db.store.Save(docSettings, models.DefaultSettings()); err != nil {
			return err
		}
	}
	if !db.store.Exists(docUsers) {
		users, err := db.defaultUsers()
		if err != nil {
			return err
		}
		if err := db.store.Save(docUsers, users); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) defaultUsers() ([]models.User, error) {
	seed := []models.User{
		{Username: "admin", Role: models.RoleAdmin, FullName: "مدير النظام"},
		{Username: "cashier", Role: models.RoleCashier, FullName: "موظف مبيعات"},
	}
	for i := range seed {
		hash, err := db.hasher.Hash("123")
		if err != nil {
			return nil, err
		}
		seed[i].PasswordHash = hash
	}
	return seed, nil
}

// readDoc loads a document. With useCache the cached copy is preferred and
// a disk read populates the cache; without it the disk is always consulted
// and the cache is left alone.
func readDoc[T any](db *DB, name string, useCache bool) T {
	if useCache {
		if data, _, ok := db.cache.Get(name); ok {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v
			}
			db.cache.Invalidate(name)
		}
	}
	v := Load[T](db.store, name)
	if useCache {
		if data, err := json.Marshal(v); err == nil {
			db.cache.Set(name, data)
		}
	}
	return v
}

// writeDoc persists v and, only when the write succeeded, refreshes the cache.
func writeDoc[T any](db *DB, name string, v T) error {
	data, err := encodeDocument(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersistence, name, err)
	}
	if err := db.store.Write(name, data); err != nil {
		return err
	}
	db.cache.Set(name, data)
	return nil
}

// writeList is writeDoc for collections; a nil slice is stored as [].
func writeList[T any](db *DB, name string, list []T) error {
	if list == nil {
		list = []T{}
	}
	return writeDoc(db, name, list)
}

func (db *DB) timestamp() models.Timestamp {
	return models.NewTimestamp(db.now())
}
