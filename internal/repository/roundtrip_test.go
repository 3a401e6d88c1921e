package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyplanner/internal/config"
	"familyplanner/internal/database"
	"familyplanner/internal/identity"
	"familyplanner/internal/models"
	"familyplanner/internal/store"
)

func openSQLite(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.InitializeWithConfig(&config.Config{
		DatabaseType: "sqlite-pure",
		DatabasePath: filepath.Join(t.TempDir(), "family.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background(), filepath.Join("..", "..", "migrations")))
	return db
}

func TestStoreRoundTripSQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	repo := NewFamilyRepository(db, "owner-1")
	s := store.New(repo, nil)
	require.NoError(t, s.LoadAll(ctx))
	assert.Empty(t, s.Members())

	parent, err := s.CreateMember(ctx, models.Member{Name: "Alex", Role: models.RoleParent, Color: "hsl(210 60% 50%)"})
	require.NoError(t, err)
	child, err := s.CreateMember(ctx, models.Member{Name: "Sam", Role: models.RoleChild, Color: "hsl(340 70% 60%)"})
	require.NoError(t, err)

	start := time.Date(2024, 3, 10, 16, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	location := "Pool"
	created, err := s.CreateActivity(ctx, models.Activity{
		Title:            "Swim",
		Category:         models.CategorySports,
		StartTime:        start,
		EndTime:          &end,
		AssignedTo:       []string{parent.ID},
		AssignedChildren: []string{child.ID},
		Location:         &location,
		CreatedBy:        parent.ID,
	})
	require.NoError(t, err)

	toggled, err := s.ToggleCompletion(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, toggled)
	assert.True(t, toggled.Completed)

	updated, err := s.UpdateActivity(ctx, created.ID, models.ActivityPatch{ClearEndTime: true})
	require.NoError(t, err)
	assert.Nil(t, updated.EndTime)

	// A fresh store sees exactly what was persisted
	reloaded := store.New(repo, nil)
	require.NoError(t, reloaded.LoadAll(ctx))

	members := reloaded.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "Alex", members[0].Name)
	assert.Equal(t, models.RoleChild, members[1].Role)
	assert.Nil(t, members[0].Avatar)

	activities := reloaded.Activities()
	require.Len(t, activities, 1)
	got := activities[0]
	assert.True(t, got.StartTime.Equal(start))
	assert.Nil(t, got.EndTime)
	assert.True(t, got.Completed)
	assert.Equal(t, []string{parent.ID}, got.AssignedTo)
	assert.Equal(t, []string{child.ID}, got.AssignedChildren)
	assert.Equal(t, "Pool", *got.Location)
	assert.Equal(t, models.RecurrenceOnce, got.Recurrence)
	assert.Equal(t, models.PriorityMedium, got.Priority)

	require.NoError(t, reloaded.DeleteActivity(ctx, created.ID))
	require.NoError(t, reloaded.DeleteActivity(ctx, created.ID), "deleting twice succeeds")
	assert.Empty(t, reloaded.Activities())

	_, err = reloaded.UpdateMember(ctx, "missing", models.MemberPatch{Name: &location})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMembersReloadInCreationOrder(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	// every row gets the same created_at, so only insertion order can decide
	frozen := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	repo := NewFamilyRepository(db, "owner-1")
	repo.now = func() time.Time { return frozen }

	s := store.New(repo, nil)
	var want []string
	for i := 0; i < 12; i++ {
		m, err := s.CreateMember(ctx, models.Member{Name: fmt.Sprintf("M%02d", i), Role: models.RoleChild, Color: "blue"})
		require.NoError(t, err)
		want = append(want, m.ID)
	}

	reloaded := store.New(repo, nil)
	require.NoError(t, reloaded.LoadAll(ctx))
	var got []string
	for _, m := range reloaded.Members() {
		got = append(got, m.ID)
	}
	assert.Equal(t, want, got)
}

func TestActivitiesWithSameStartKeepCreationOrder(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	repo := NewFamilyRepository(db, "owner-1")
	start := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	var want []string
	for _, title := range []string{"Zoo", "Art", "Maths", "Band"} {
		row, err := repo.Insert(ctx, store.CollectionActivities, store.Row{
			"title":       title,
			"start_time":  store.FormatTimestamp(start),
			"assigned_to": []string{"p1"},
		})
		require.NoError(t, err)
		want = append(want, row["title"].(string))
	}

	rows, err := repo.FetchAll(ctx, store.CollectionActivities)
	require.NoError(t, err)
	var got []string
	for _, row := range rows {
		got = append(got, row["title"].(string))
	}
	assert.Equal(t, want, got)
}

func TestOwnersAreIsolated(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	mine := NewFamilyRepository(db, "owner-1")
	_, err := mine.Insert(ctx, store.CollectionMembers, store.Row{"name": "Alex", "role": "parent", "color": "blue"})
	require.NoError(t, err)

	theirs := NewFamilyRepository(db, "owner-2")
	rows, err := theirs.FetchAll(ctx, store.CollectionMembers)
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = mine.FetchAll(ctx, store.CollectionMembers)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	_, err = theirs.Patch(ctx, store.CollectionMembers, rows[0]["id"].(string), store.Row{"name": "Mallory"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSettingsDriveResolver(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	prefs := NewSettingsRepository(db, "owner-1")
	members := []models.Member{
		{ID: "p1", Name: "Alex", Role: models.RoleParent},
		{ID: "c1", Name: "Sam", Role: models.RoleChild},
	}

	first := identity.NewResolver(prefs)
	require.NoError(t, first.Reconcile(ctx, members))
	require.NoError(t, first.SetActive(ctx, members[1]))

	value, ok, err := prefs.Get(ctx, identity.PreferenceKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "c1", value)

	second := identity.NewResolver(prefs)
	require.NoError(t, second.Reconcile(ctx, members))
	active := second.Active()
	require.NotNil(t, active)
	assert.Equal(t, "c1", active.ID)

	require.NoError(t, second.Forget(ctx))
	_, ok, err = prefs.Get(ctx, identity.PreferenceKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
