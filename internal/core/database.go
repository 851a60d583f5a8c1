package core

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mvelez9/cadena/internal/datastructures"
)

// Database holds the keyed lists. A List is single-threaded by contract,
// so the database mutex is taken around every touch of one, iteration
// included; no list or iterator ever leaves this package.
type Database struct {
	mu            sync.Mutex
	lists         map[string]*datastructures.List
	expiry        map[string]int64
	defaultExpiry int64
}

// Create a new database instance
func NewDatabase() *Database {
	return &Database{
		lists:  make(map[string]*datastructures.List),
		expiry: make(map[string]int64),
	}
}

// SetDefaultExpiry makes every key created from now on expire ttlMs
// after creation. Zero disables the behavior.
func (db *Database) SetDefaultExpiry(ttlMs int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.defaultExpiry = ttlMs
}

// getOrCreate returns the list at key, creating it if needed.
// Callers hold db.mu.
func (db *Database) getOrCreate(key string) *datastructures.List {
	list, exists := db.lists[key]
	if !exists {
		list = datastructures.NewList()
		db.lists[key] = list
		if db.defaultExpiry > 0 {
			db.expiry[key] = time.Now().UnixMilli() + db.defaultExpiry
		}
	}
	return list
}

// RPush appends value to the list at key, creating the list if needed.
func (db *Database) RPush(key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.getOrCreate(key).Append(value)
	return nil
}

// LPush prepends value to the list at key, creating the list if needed.
func (db *Database) LPush(key, value string) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.getOrCreate(key).Prepend(value)
	return nil
}

// PopFirst removes and returns the head of the list at key. A missing
// key reads as an empty list.
func (db *Database) PopFirst(key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return "", false, nil
	}
	value, ok := list.PopFirst()
	return value, ok, nil
}

// PopLast removes and returns the tail of the list at key.
func (db *Database) PopLast(key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("key cannot be empty")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return "", false, nil
	}
	value, ok := list.PopLast()
	return value, ok, nil
}

// LRem removes the first occurrence of value from the list at key and
// reports whether anything was removed.
func (db *Database) LRem(key, value string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return false, nil
	}
	return list.Delete(value), nil
}

// First returns the head value of the list at key.
func (db *Database) First(key string) (string, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return "", false
	}
	return list.First()
}

// Last returns the tail value of the list at key.
func (db *Database) Last(key string) (string, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return "", false
	}
	return list.Last()
}

// LLen returns the element count of the list at key; 0 for a missing
// key.
func (db *Database) LLen(key string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return 0
	}
	return list.Len()
}

// Contains reports whether value is present in the list at key.
func (db *Database) Contains(key, value string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return false
	}
	return list.Contains(value)
}

// Range returns the values of the list at key, tail first when reverse
// is set. The walk runs under the database mutex, which is exactly the
// serialization the list's iterators ask of their caller.
func (db *Database) Range(key string, reverse bool) []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return nil
	}

	it := list.Iterate()
	if reverse {
		it = list.ReverseIterate()
	}
	values := make([]string, 0, list.Len())
	for value, ok := it.Next(); ok; value, ok = it.Next() {
		values = append(values, value)
	}
	return values
}

// Keys returns all live keys in sorted order.
func (db *Database) Keys() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	keys := make([]string, 0, len(db.lists))
	for key := range db.lists {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Del drops the list at key and reports whether it existed.
func (db *Database) Del(key string) bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	list, exists := db.lists[key]
	if !exists {
		return false
	}
	list.Clear()
	delete(db.lists, key)
	delete(db.expiry, key)
	return true
}

// Expire sets a time-to-live on an existing key and reports whether the
// key was found.
func (db *Database) Expire(key string, ttlMs int64) (bool, error) {
	if ttlMs <= 0 {
		return false, errors.New("ttl must be positive")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, exists := db.lists[key]; !exists {
		return false, nil
	}
	db.expiry[key] = time.Now().UnixMilli() + ttlMs
	return true, nil
}

// StartCleanup sweeps expired keys on the given interval.
func (db *Database) StartCleanup(interval time.Duration) {
	go func() {
		for {
			time.Sleep(interval)

			db.mu.Lock()
			now := time.Now().UnixMilli()
			for key, expiry := range db.expiry {
				if now > expiry {
					if list, exists := db.lists[key]; exists {
						list.Clear()
					}
					delete(db.lists, key)
					delete(db.expiry, key)
				}
			}
			db.mu.Unlock()
		}
	}()
}
