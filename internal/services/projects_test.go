package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"beiboot-backend/internal/auth"
	"beiboot-backend/internal/models"
	"beiboot-backend/internal/testutil/fakes"
)

var (
	alice = &auth.Principal{ID: "alice-id", Username: "alice"}
	bob   = &auth.Principal{ID: "bob-id", Username: "bob"}
)

func newProjectFixture() (*ProjectService, *fakes.Store, *fakes.Index) {
	store := fakes.NewStore()
	index := fakes.NewIndex()
	return NewProjectService(store, index, zap.NewNop()), store, index
}

func TestCreateProject(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newProjectFixture()

	id, err := svc.CreateProject(ctx, alice, "  Holidays ", true)
	require.NoError(t, err)

	p := store.Projects[id]
	assert.Equal(t, "Holidays", p.Name)
	assert.Equal(t, alice.ID, p.OwnerID)
	assert.True(t, p.Public)
	assert.Equal(t, models.User{ID: alice.ID, Username: "alice"}, store.Users[alice.ID])
}

func TestCreateProjectRequiresName(t *testing.T) {
	svc, store, _ := newProjectFixture()

	_, err := svc.CreateProject(context.Background(), alice, "   ", false)
	require.Error(t, err)
	assert.Equal(t, KindBadRequest, KindOf(err))
	assert.Empty(t, store.Projects)
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newProjectFixture()

	mine, err := svc.ListOwnedProjects(ctx, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, mine)
	assert.Empty(t, mine)

	first, _ := svc.CreateProject(ctx, alice, "first", false)
	second, _ := svc.CreateProject(ctx, alice, "second", true)
	_, _ = svc.CreateProject(ctx, bob, "bobs", true)

	mine, err = svc.ListOwnedProjects(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second, mine[0].ID, "newest first")
	assert.Equal(t, first, mine[1].ID)

	public, err := svc.ListPublicProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, public, 2)
	for _, p := range public {
		assert.True(t, p.Public)
	}
}

func TestGetProjectVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newProjectFixture()

	private, _ := svc.CreateProject(ctx, alice, "private", false)
	public, _ := svc.CreateProject(ctx, alice, "public", true)

	_, err := svc.GetProject(ctx, alice.ID, private)
	assert.NoError(t, err)

	_, err = svc.GetProject(ctx, bob.ID, private)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, err = svc.GetProject(ctx, "", private)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, err = svc.GetProject(ctx, "", public)
	assert.NoError(t, err)

	_, err = svc.GetProject(ctx, alice.ID, 9999)
	assert.Equal(t, KindUnauthorized, KindOf(err), "missing looks like forbidden")
}

func TestGetProjectStoreFailure(t *testing.T) {
	svc, store, _ := newProjectFixture()
	store.FailGetProject = true

	_, err := svc.GetProject(context.Background(), alice.ID, 1)
	assert.Equal(t, KindUpstream, KindOf(err))
}

func TestUpdateProject(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newProjectFixture()
	id, _ := svc.CreateProject(ctx, alice, "old", false)

	err := svc.UpdateProject(ctx, alice.ID, 9999, "x", false)
	assert.Equal(t, KindNotFound, KindOf(err))

	err = svc.UpdateProject(ctx, bob.ID, id, "stolen", true)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, "old", store.Projects[id].Name)

	require.NoError(t, svc.UpdateProject(ctx, alice.ID, id, "new", true))
	assert.Equal(t, "new", store.Projects[id].Name)
	assert.True(t, store.Projects[id].Public)

	require.NoError(t, svc.UpdateProject(ctx, alice.ID, id, "", true))
	assert.Equal(t, "new", store.Projects[id].Name, "blank name keeps current")
}

func TestUpdateProjectSyncsIndexVisibility(t *testing.T) {
	ctx := context.Background()
	svc, _, index := newProjectFixture()
	id, _ := svc.CreateProject(ctx, alice, "album", false)
	index.Docs[1] = models.ImageDocument{ID: 1, ProjectID: id, OwnerID: alice.ID}
	index.Docs[2] = models.ImageDocument{ID: 2, ProjectID: id + 100, OwnerID: alice.ID}

	require.NoError(t, svc.UpdateProject(ctx, alice.ID, id, "album", true))
	assert.True(t, index.Docs[1].ProjectPublic)
	assert.False(t, index.Docs[2].ProjectPublic)

	index.Fail = true
	assert.NoError(t, svc.UpdateProject(ctx, alice.ID, id, "album", false), "index failure is not fatal")
}
