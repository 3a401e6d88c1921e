package store

import (
	"context"
	"errors"
	"fmt"
)

// Collections understood by a Backend
const (
	CollectionMembers    = "members"
	CollectionActivities = "activities"
)

// Backend operation names, used in RemoteError and metrics labels
const (
	OpFetch  = "fetch"
	OpInsert = "insert"
	OpPatch  = "patch"
	OpRemove = "remove"
)

// Row is one record as exchanged with a Backend. Keys are snake_case column
// names. Values are string, bool, []string, or nil for an absent optional.
// Timestamps travel as ISO-8601 strings.
type Row map[string]any

// Backend is the remote persistence collaborator. FetchAll returns members in
// creation order and activities in start time order.
type Backend interface {
	FetchAll(ctx context.Context, collection string) ([]Row, error)
	Insert(ctx context.Context, collection string, fields Row) (Row, error)
	Patch(ctx context.Context, collection, id string, fields Row) (Row, error)
	Remove(ctx context.Context, collection, id string) error
}

var (
	// ErrNotFound means an id had no match in the snapshot or the backend
	ErrNotFound = errors.New("not found")
)

// RemoteError reports a failed Backend call. The backend's own error is kept
// opaque and reachable through Unwrap.
type RemoteError struct {
	Op         string
	Collection string
	Err        error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsRemoteFailure reports whether err came from the persistence backend
func IsRemoteFailure(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
