package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familyplanner/internal/models"
	"familyplanner/internal/permissions"
	"familyplanner/internal/store"
)

type countingPrefs struct {
	*MapPreferences
	sets   int
	getErr error
	setErr error
}

func newCountingPrefs() *countingPrefs {
	return &countingPrefs{MapPreferences: NewMapPreferences()}
}

func (p *countingPrefs) Get(ctx context.Context, key string) (string, bool, error) {
	if p.getErr != nil {
		return "", false, p.getErr
	}
	return p.MapPreferences.Get(ctx, key)
}

func (p *countingPrefs) Set(ctx context.Context, key, value string) error {
	p.sets++
	if p.setErr != nil {
		return p.setErr
	}
	return p.MapPreferences.Set(ctx, key, value)
}

func persisted(t *testing.T, p Preferences) string {
	t.Helper()
	v, _, err := p.Get(context.Background(), PreferenceKey)
	require.NoError(t, err)
	return v
}

var family = []models.Member{
	{ID: "c1", Name: "Sam", Role: models.RoleChild},
	{ID: "p1", Name: "Alex", Role: models.RoleParent},
	{ID: "p2", Name: "Jordan", Role: models.RoleParent},
}

func TestSingleParentResolvesWithFullPermissions(t *testing.T) {
	r := NewResolver(NewMapPreferences())
	require.NoError(t, r.Reconcile(context.Background(), []models.Member{{ID: "p1", Role: models.RoleParent}}))

	require.Equal(t, Resolved, r.State())
	assert.Equal(t, "p1", r.Active().ID)
	assert.True(t, r.Permissions().CreateActivity)
}

func TestDefaultIsFirstParentAndPersisted(t *testing.T) {
	prefs := newCountingPrefs()
	r := NewResolver(prefs)

	require.NoError(t, r.Reconcile(context.Background(), family))
	assert.Equal(t, "p1", r.Active().ID)
	assert.Equal(t, "p1", persisted(t, prefs))
	assert.Equal(t, 1, prefs.sets)
}

func TestDefaultFallsBackToFirstMember(t *testing.T) {
	r := NewResolver(NewMapPreferences())
	kids := []models.Member{{ID: "c1", Role: models.RoleChild}, {ID: "c2", Role: models.RoleChild}}

	require.NoError(t, r.Reconcile(context.Background(), kids))
	assert.Equal(t, "c1", r.Active().ID)
	assert.False(t, r.Permissions().CreateActivity)
}

func TestRestoresPersistedMember(t *testing.T) {
	prefs := newCountingPrefs()
	require.NoError(t, prefs.MapPreferences.Set(context.Background(), PreferenceKey, "c1"))
	r := NewResolver(prefs)

	require.NoError(t, r.Reconcile(context.Background(), family))
	assert.Equal(t, "c1", r.Active().ID)
	assert.Zero(t, prefs.sets, "restoring must not rewrite the preference")
}

func TestStalePersistedIDAppliesDefault(t *testing.T) {
	prefs := newCountingPrefs()
	require.NoError(t, prefs.MapPreferences.Set(context.Background(), PreferenceKey, "gone"))
	r := NewResolver(prefs)

	require.NoError(t, r.Reconcile(context.Background(), family))
	assert.Equal(t, "p1", r.Active().ID)
	assert.Equal(t, "p1", persisted(t, prefs))
}

func TestUnreadablePreferenceAppliesDefault(t *testing.T) {
	prefs := newCountingPrefs()
	prefs.getErr = errors.New("disk gone")
	r := NewResolver(prefs)

	require.NoError(t, r.Reconcile(context.Background(), family))
	assert.Equal(t, "p1", r.Active().ID)
}

func TestRefreshKeepsSelectionWithoutPersisting(t *testing.T) {
	prefs := newCountingPrefs()
	r := NewResolver(prefs)
	ctx := context.Background()
	require.NoError(t, r.SetActive(ctx, family[0]))
	sets := prefs.sets

	renamed := []models.Member{
		{ID: "c1", Name: "Samantha", Role: models.RoleChild, Avatar: models.StringPtr("🦊")},
		family[1],
	}
	require.NoError(t, r.Reconcile(ctx, renamed))

	active := r.Active()
	assert.Equal(t, "c1", active.ID)
	assert.Equal(t, "Samantha", active.Name)
	assert.Equal(t, "🦊", *active.Avatar)
	assert.Equal(t, sets, prefs.sets)
}

func TestDeletedActiveMemberReappliesDefault(t *testing.T) {
	prefs := newCountingPrefs()
	r := NewResolver(prefs)
	ctx := context.Background()
	require.NoError(t, r.SetActive(ctx, family[2]))

	require.NoError(t, r.Reconcile(ctx, family[:2]))
	assert.Equal(t, "p1", r.Active().ID)
	assert.Equal(t, "p1", persisted(t, prefs))
}

func TestEmptyListChangesNothing(t *testing.T) {
	r := NewResolver(NewMapPreferences())
	ctx := context.Background()

	require.NoError(t, r.Reconcile(ctx, nil))
	assert.Equal(t, Unresolved, r.State())
	assert.Equal(t, permissions.Set{}, r.Permissions())

	require.NoError(t, r.Reconcile(ctx, []models.Member{family[1]}))
	require.Equal(t, Resolved, r.State())
	require.NoError(t, r.Reconcile(ctx, []models.Member{}))
	assert.Equal(t, Resolved, r.State(), "a resolved identity is never dropped")
	require.NotNil(t, r.Active())
	assert.Equal(t, family[1].ID, r.Active().ID)
	assert.Equal(t, permissions.Derive(&family[1]), r.Permissions())
}

func TestSetActivePersistFailure(t *testing.T) {
	prefs := newCountingPrefs()
	prefs.setErr = errors.New("read-only")
	r := NewResolver(prefs)

	err := r.SetActive(context.Background(), family[0])
	assert.Error(t, err)
	assert.Equal(t, "c1", r.Active().ID, "the in-memory selection still changes")
}

func TestForget(t *testing.T) {
	prefs := NewMapPreferences()
	r := NewResolver(prefs)
	ctx := context.Background()
	require.NoError(t, r.SetActive(ctx, family[1]))

	require.NoError(t, r.Forget(ctx))
	assert.Equal(t, Resolved, r.State())
	assert.Equal(t, family[1].ID, r.Active().ID)
	_, ok, _ := prefs.Get(ctx, PreferenceKey)
	assert.False(t, ok)
}

func TestResetAppliesDefault(t *testing.T) {
	prefs := NewMapPreferences()
	r := NewResolver(prefs)
	ctx := context.Background()
	require.NoError(t, r.SetActive(ctx, family[2]))

	require.NoError(t, r.Reset(ctx, family))
	assert.Equal(t, Resolved, r.State())
	assert.Equal(t, "p1", r.Active().ID)
	assert.Equal(t, "p1", persisted(t, prefs))

	require.NoError(t, r.Reset(ctx, nil))
	assert.Equal(t, Resolved, r.State())
	assert.Equal(t, "p1", r.Active().ID)
	_, ok, _ := prefs.Get(ctx, PreferenceKey)
	assert.False(t, ok)
}

func TestActiveReturnsCopy(t *testing.T) {
	r := NewResolver(NewMapPreferences())
	require.NoError(t, r.SetActive(context.Background(), family[1]))

	r.Active().Name = "changed"
	assert.Equal(t, "Alex", r.Active().Name)
}

func TestWatchFollowsStore(t *testing.T) {
	backend := store.NewMemoryBackend()
	backend.Seed(store.CollectionMembers,
		store.Row{"id": "c1", "name": "Sam", "role": "child"},
		store.Row{"id": "p1", "name": "Alex", "role": "parent"},
	)
	s := store.New(backend, nil)
	r := NewResolver(NewMapPreferences())
	ctx := context.Background()
	r.Watch(ctx, s)

	require.NoError(t, s.LoadAll(ctx))
	assert.Equal(t, "p1", r.Active().ID)

	name := "Alexandra"
	_, err := s.UpdateMember(ctx, "p1", models.MemberPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alexandra", r.Active().Name)

	require.NoError(t, s.DeleteMember(ctx, "p1"))
	assert.Equal(t, "c1", r.Active().ID)
}
