package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyplanner/internal/identity"
	"familyplanner/internal/models"
	"familyplanner/internal/permissions"
	"familyplanner/internal/store"
	"familyplanner/internal/validation"
)

var (
	parent = &models.Member{ID: "p1", Name: "Alex", Role: models.RoleParent}
	child  = &models.Member{ID: "c1", Name: "Sam", Role: models.RoleChild}
	other  = &models.Member{ID: "c2", Name: "Robin", Role: models.RoleChild}
)

type fixture struct {
	backend  *store.MemoryBackend
	store    *store.Store
	resolver *identity.Resolver
	coord    *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := store.NewMemoryBackend()
	backend.Seed(store.CollectionMembers,
		store.Row{"id": "p1", "name": "Alex", "role": "parent", "color": ParentColor},
		store.Row{"id": "c1", "name": "Sam", "role": "child", "color": ChildColor},
		store.Row{"id": "c2", "name": "Robin", "role": "child", "color": ChildColor},
	)
	backend.Seed(store.CollectionActivities,
		store.Row{
			"id": "a1", "title": "Homework", "category": "school",
			"start_time": "2024-03-10T15:00:00.000Z", "assigned_to": []string{"p1"},
			"assigned_children": []string{"c1"}, "completed": false,
		},
		store.Row{
			"id": "a2", "title": "Groceries", "category": "home",
			"start_time": "2024-03-10T17:00:00.000Z", "assigned_to": []string{"p1"},
			"assigned_children": []string{}, "completed": false,
		},
	)

	s := store.New(backend, nil)
	require.NoError(t, s.LoadAll(context.Background()))
	resolver := identity.NewResolver(identity.NewMapPreferences())
	return &fixture{backend: backend, store: s, resolver: resolver, coord: NewCoordinator(s, resolver)}
}

func (f *fixture) callCount() int {
	return len(f.backend.Calls())
}

func validForm() ActivityForm {
	form := NewActivityForm(time.Date(2024, time.March, 12, 0, 0, 0, 0, time.UTC))
	form.Title = "Swimming"
	form.Category = models.CategorySports
	form.StartTime = "16:30"
	form.EndTime = "17:15"
	form.AssignedTo = []string{"p1"}
	form.AssignedChildren = []string{"c1"}
	return form
}

func TestRequestToggle(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		identity *models.Member
		wantErr  error
		wantCall bool
	}{
		{name: "parent toggles anything", id: "a2", identity: parent, wantCall: true},
		{name: "child toggles own task", id: "a1", identity: child, wantCall: true},
		{name: "child denied on other task", id: "a2", identity: child, wantErr: ErrPermissionDenied},
		{name: "unassigned child denied", id: "a1", identity: other, wantErr: ErrPermissionDenied},
		{name: "no identity denied", id: "a1", identity: nil, wantErr: ErrPermissionDenied},
		{name: "unknown activity is a no-op", id: "missing", identity: child},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.callCount()

			updated, err := f.coord.RequestToggle(context.Background(), tt.id, tt.identity, permissions.Derive(tt.identity))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before, f.callCount(), "denied requests never reach the backend")
				return
			}
			require.NoError(t, err)
			if !tt.wantCall {
				assert.Nil(t, updated)
				assert.Equal(t, before, f.callCount())
				return
			}
			require.NotNil(t, updated)
			assert.True(t, updated.Completed)
		})
	}
}

func TestRequestCreate(t *testing.T) {
	f := newFixture(t)
	f.backend.NewID = func(string) string { return "a99" }

	created, err := f.coord.RequestCreate(context.Background(), validForm(), parent, permissions.Derive(parent))
	require.NoError(t, err)
	assert.Equal(t, "a99", created.ID)
	assert.Equal(t, "p1", created.CreatedBy)
	assert.Equal(t, time.Date(2024, time.March, 12, 16, 30, 0, 0, time.UTC), created.StartTime)
	require.NotNil(t, created.EndTime)
	assert.Equal(t, time.Date(2024, time.March, 12, 17, 15, 0, 0, time.UTC), *created.EndTime)
	assert.Len(t, f.store.Activities(), 3)
}

func TestRequestCreateUsesFormLocation(t *testing.T) {
	f := newFixture(t)
	loc := time.FixedZone("NZDT", 13*3600)
	form := validForm()
	form.Date = time.Date(2024, time.March, 12, 0, 0, 0, 0, loc)
	form.EndTime = ""

	created, err := f.coord.RequestCreate(context.Background(), form, parent, permissions.Derive(parent))
	require.NoError(t, err)
	assert.True(t, created.StartTime.Equal(time.Date(2024, time.March, 12, 3, 30, 0, 0, time.UTC)))
	assert.Nil(t, created.EndTime, "an empty end time is omitted")
}

func TestRequestCreateDenied(t *testing.T) {
	f := newFixture(t)
	before := f.callCount()

	_, err := f.coord.RequestCreate(context.Background(), validForm(), child, permissions.Derive(child))
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.coord.RequestCreate(context.Background(), validForm(), nil, permissions.Derive(parent))
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, before, f.callCount())
}

func TestRequestCreateValidation(t *testing.T) {
	f := newFixture(t)
	before := f.callCount()
	form := validForm()
	form.Title = ""
	form.StartTime = "25:00"
	form.AssignedTo = nil

	_, err := f.coord.RequestCreate(context.Background(), form, parent, permissions.Derive(parent))
	require.Error(t, err)
	assert.True(t, validation.IsValidationError(err))

	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	fields := []string{}
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"title", "startTime", "assignedTo"}, fields)
	assert.Equal(t, before, f.callCount())
}

func TestRequestCreateRemoteFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.Fail(store.OpInsert, store.CollectionActivities, errors.New("503"))

	_, err := f.coord.RequestCreate(context.Background(), validForm(), parent, permissions.Derive(parent))
	require.Error(t, err)
	assert.True(t, store.IsRemoteFailure(err))
	assert.Len(t, f.store.Activities(), 2)
}

func TestRequestEdit(t *testing.T) {
	f := newFixture(t)
	a, ok := f.store.Activity("a1")
	require.True(t, ok)

	form := FormFromActivity(a, time.UTC)
	form.Title = "Maths homework"
	form.Notes = "Chapter 4"

	updated, err := f.coord.RequestEdit(context.Background(), "a1", form, parent, permissions.Derive(parent))
	require.NoError(t, err)
	assert.Equal(t, "Maths homework", updated.Title)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, "Chapter 4", *updated.Notes)
	assert.Equal(t, a.StartTime, updated.StartTime)
	assert.Equal(t, []string{"c1"}, updated.AssignedChildren)
}

func TestRequestEditDenied(t *testing.T) {
	f := newFixture(t)
	a, _ := f.store.Activity("a1")
	before := f.callCount()

	_, err := f.coord.RequestEdit(context.Background(), "a1", FormFromActivity(a, time.UTC), child, permissions.Derive(child))
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, before, f.callCount())
}

func TestRequestEditMissingActivity(t *testing.T) {
	f := newFixture(t)
	_, err := f.coord.RequestEdit(context.Background(), "gone", validForm(), parent, permissions.Derive(parent))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRequestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.coord.RequestDelete(ctx, "a1", permissions.Derive(child)), ErrPermissionDenied)
	require.NoError(t, f.coord.RequestDelete(ctx, "a1", permissions.Derive(parent)))
	require.NoError(t, f.coord.RequestDelete(ctx, "a1", permissions.Derive(parent)))
	assert.Len(t, f.store.Activities(), 1)
}

func TestFormFromActivity(t *testing.T) {
	end := time.Date(2024, time.March, 10, 16, 45, 0, 0, time.UTC)
	a := models.Activity{
		Title:      "Dentist",
		Category:   models.CategoryHealth,
		StartTime:  time.Date(2024, time.March, 10, 15, 5, 0, 0, time.UTC),
		EndTime:    &end,
		Recurrence: models.RecurrenceOnce,
		AssignedTo: []string{"p1"},
		Location:   models.StringPtr("Main St"),
		Priority:   models.PriorityHigh,
	}

	form := FormFromActivity(a, time.UTC)
	assert.Equal(t, "15:05", form.StartTime)
	assert.Equal(t, "16:45", form.EndTime)
	assert.Equal(t, "Main St", form.Location)
	assert.Equal(t, "", form.Description)
	assert.NoError(t, form.Validate())

	start, gotEnd, err := form.Times()
	require.NoError(t, err)
	assert.Equal(t, a.StartTime, start)
	assert.Equal(t, end, *gotEnd)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "denied", err: ErrPermissionDenied, want: "You don't have permission to do that."},
		{name: "validation", err: validation.Errors{{Field: "title", Message: "title is required"}}, want: "title is required"},
		{name: "not found", err: store.ErrNotFound, want: "That item no longer exists."},
		{name: "remote", err: &store.RemoteError{Op: store.OpPatch, Collection: store.CollectionActivities, Err: errors.New("x")}, want: "Something went wrong saving your change. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
}
