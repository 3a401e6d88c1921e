package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"familyplanner/internal/database"
	"familyplanner/internal/store"
)

// table describes how a store collection maps onto SQL
type table struct {
	name     string
	columns  []string // readable columns, id first
	writable map[string]bool
	lists    map[string]bool // JSON-encoded []string columns
	bools    map[string]bool
	orderBy  []string // seq breaks ties in insertion order
	touch    bool // maintains updated_at
}

var tables = map[string]table{
	store.CollectionMembers: {
		name:     "family_members",
		columns:  []string{"id", "name", "role", "avatar", "color", "created_at"},
		writable: set("name", "role", "avatar", "color"),
		orderBy:  []string{"seq"},
	},
	store.CollectionActivities: {
		name: "activities",
		columns: []string{
			"id", "title", "description", "category", "start_time", "end_time",
			"recurrence", "assigned_to", "assigned_children", "location", "notes",
			"priority", "completed", "created_by", "created_at", "updated_at",
		},
		writable: set(
			"title", "description", "category", "start_time", "end_time",
			"recurrence", "assigned_to", "assigned_children", "location", "notes",
			"priority", "completed", "created_by",
		),
		lists:   set("assigned_to", "assigned_children"),
		bools:   set("completed"),
		orderBy: []string{"start_time", "seq"},
		touch:   true,
	},
}

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// FamilyRepository stores one account's members and activities in SQL.
// Every statement is scoped by owner_id.
type FamilyRepository struct {
	db      *database.DB
	ownerID string
	newID   func() string
	now     func() time.Time
}

// NewFamilyRepository creates a repository for the account ownerID
func NewFamilyRepository(db *database.DB, ownerID string) *FamilyRepository {
	return &FamilyRepository{
		db:      db,
		ownerID: ownerID,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func lookup(collection string) (table, error) {
	t, ok := tables[collection]
	if !ok {
		return table{}, fmt.Errorf("unknown collection %q", collection)
	}
	return t, nil
}

// FetchAll returns every row of collection owned by the account
func (r *FamilyRepository) FetchAll(ctx context.Context, collection string) ([]store.Row, error) {
	t, err := lookup(collection)
	if err != nil {
		return nil, err
	}

	query, args, err := sq.Select(t.columns...).
		From(t.name).
		Where(sq.Eq{"owner_id": r.ownerID}).
		OrderBy(t.orderBy...).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []store.Row{}
	for rows.Next() {
		row, err := scanRow(t, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", t.name, err)
	}
	return out, nil
}

// Insert creates a row with a fresh id and returns it as stored
func (r *FamilyRepository) Insert(ctx context.Context, collection string, fields store.Row) (store.Row, error) {
	t, err := lookup(collection)
	if err != nil {
		return nil, err
	}
	values, err := columnValues(t, fields)
	if err != nil {
		return nil, err
	}

	now := store.FormatTimestamp(r.now())
	values["id"] = r.newID()
	values["owner_id"] = r.ownerID
	values["created_at"] = now
	if t.touch {
		values["updated_at"] = now
	}
	for col := range t.lists {
		if _, ok := values[col]; !ok {
			values[col] = "[]"
		}
	}

	query, args, err := sq.Insert(t.name).SetMap(values).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", t.name, err)
	}

	row := maps.Clone(fields)
	row["id"] = values["id"]
	row["created_at"] = now
	if t.touch {
		row["updated_at"] = now
	}
	return row, nil
}

// Patch updates the given columns of one row and returns the full row.
// A missing id yields store.ErrNotFound.
func (r *FamilyRepository) Patch(ctx context.Context, collection, id string, fields store.Row) (store.Row, error) {
	t, err := lookup(collection)
	if err != nil {
		return nil, err
	}
	values, err := columnValues(t, fields)
	if err != nil {
		return nil, err
	}
	if t.touch {
		values["updated_at"] = store.FormatTimestamp(r.now())
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if len(values) > 0 {
		query, args, err := sq.Update(t.name).
			SetMap(values).
			Where(sq.Eq{"id": id, "owner_id": r.ownerID}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", t.name, err)
		}
	}

	row, err := r.selectOne(ctx, tx, t, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return row, nil
}

// Remove deletes one row; removing a missing id succeeds
func (r *FamilyRepository) Remove(ctx context.Context, collection, id string) error {
	t, err := lookup(collection)
	if err != nil {
		return err
	}

	query, args, err := sq.Delete(t.name).
		Where(sq.Eq{"id": id, "owner_id": r.ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.name, err)
	}
	return nil
}

func (r *FamilyRepository) selectOne(ctx context.Context, q database.DBTX, t table, id string) (store.Row, error) {
	query, args, err := sq.Select(t.columns...).
		From(t.name).
		Where(sq.Eq{"id": id, "owner_id": r.ownerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", t.name, err)
		}
		return nil, fmt.Errorf("%s %s: %w", t.name, id, store.ErrNotFound)
	}
	return scanRow(t, rows)
}

// columnValues converts store fields to driver values, rejecting unknown columns
func columnValues(t table, fields store.Row) (map[string]interface{}, error) {
	values := make(map[string]interface{}, len(fields))
	for col, v := range fields {
		if !t.writable[col] {
			return nil, fmt.Errorf("unknown column %q for %s", col, t.name)
		}
		if t.lists[col] {
			encoded, err := encodeList(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", col, err)
			}
			values[col] = encoded
			continue
		}
		values[col] = v
	}
	return values, nil
}

func encodeList(v any) (string, error) {
	ids, ok := v.([]string)
	if !ok && v != nil {
		return "", fmt.Errorf("expected a list of ids, got %T", v)
	}
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// scanRow reads the current row into the store's value contract
func scanRow(t table, rows sqlx.ColScanner) (store.Row, error) {
	raw := map[string]interface{}{}
	if err := sqlx.MapScan(rows, raw); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", t.name, err)
	}

	row := make(store.Row, len(raw))
	for col, v := range raw {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		switch {
		case v == nil:
			row[col] = nil
		case t.lists[col]:
			ids, err := decodeList(v)
			if err != nil {
				return nil, fmt.Errorf("failed to decode %s.%s: %w", t.name, col, err)
			}
			row[col] = ids
		case t.bools[col]:
			row[col] = truthy(v)
		default:
			row[col] = text(v)
		}
	}
	return row, nil
}

func decodeList(v any) ([]string, error) {
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected %T", v)
	}
	ids := []string{}
	if s == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// truthy normalizes the boolean forms drivers return
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case string:
		parsed, err := strconv.ParseBool(b)
		return err == nil && parsed
	}
	return false
}

func text(v any) any {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return store.FormatTimestamp(s)
	}
	return fmt.Sprint(v)
}

var _ store.Backend = (*FamilyRepository)(nil)
