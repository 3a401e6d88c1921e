package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Call records one request received by a MemoryBackend
type Call struct {
	Op         string
	Collection string
	ID         string
	Fields     Row
}

// MemoryBackend is a Backend kept entirely in process memory. It assigns
// sequential ids, records every call, and can be told to fail an operation.
type MemoryBackend struct {
	mu     sync.Mutex
	rows   map[string][]Row
	seq    int
	calls  []Call
	failOn map[string]error

	// NewID overrides id assignment when set
	NewID func(collection string) string
}

// NewMemoryBackend creates an empty backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		rows:   map[string][]Row{},
		failOn: map[string]error{},
	}
}

// Seed stores rows as if they had already been inserted
func (b *MemoryBackend) Seed(collection string, rows ...Row) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range rows {
		b.rows[collection] = append(b.rows[collection], maps.Clone(r))
	}
}

// Fail makes every subsequent op on collection return err; a nil err clears it
func (b *MemoryBackend) Fail(op, collection string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := op + ":" + collection
	if err == nil {
		delete(b.failOn, key)
		return
	}
	b.failOn[key] = err
}

// Calls returns the requests received so far
func (b *MemoryBackend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

func (b *MemoryBackend) record(op, collection, id string, fields Row) error {
	b.calls = append(b.calls, Call{Op: op, Collection: collection, ID: id, Fields: maps.Clone(fields)})
	return b.failOn[op+":"+collection]
}

func (b *MemoryBackend) FetchAll(ctx context.Context, collection string) ([]Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(OpFetch, collection, "", nil); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(b.rows[collection]))
	for _, r := range b.rows[collection] {
		out = append(out, maps.Clone(r))
	}
	if collection == CollectionActivities {
		slices.SortStableFunc(out, func(x, y Row) int {
			return cmp.Compare(stringValue(x, "start_time"), stringValue(y, "start_time"))
		})
	}
	return out, nil
}

func (b *MemoryBackend) Insert(ctx context.Context, collection string, fields Row) (Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(OpInsert, collection, "", fields); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := maps.Clone(fields)
	if b.NewID != nil {
		row["id"] = b.NewID(collection)
	} else {
		b.seq++
		row["id"] = fmt.Sprintf("%s-%d", collection[:1], b.seq)
	}
	b.rows[collection] = append(b.rows[collection], row)
	return maps.Clone(row), nil
}

func (b *MemoryBackend) Patch(ctx context.Context, collection, id string, fields Row) (Row, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(OpPatch, collection, id, fields); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range b.rows[collection] {
		if stringValue(r, "id") == id {
			maps.Copy(r, fields)
			return maps.Clone(r), nil
		}
	}
	return nil, fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
}

func (b *MemoryBackend) Remove(ctx context.Context, collection, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record(OpRemove, collection, id, nil); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.rows[collection] = slices.DeleteFunc(b.rows[collection], func(r Row) bool {
		return stringValue(r, "id") == id
	})
	return nil
}
