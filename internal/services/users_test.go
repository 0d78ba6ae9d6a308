package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beiboot-backend/internal/models"
	"beiboot-backend/internal/testutil/fakes"
)

func TestMe(t *testing.T) {
	ctx := context.Background()
	store := fakes.NewStore()
	svc := NewUserService(store)

	u, err := svc.Me(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: alice.ID, Username: "alice"}, u)
	assert.Empty(t, store.Users, "no row is created")

	store.Users[alice.ID] = models.User{ID: alice.ID, Username: "stored-name"}
	u, err = svc.Me(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "stored-name", u.Username)
}

func TestSearchImages(t *testing.T) {
	ctx := context.Background()
	index := fakes.NewIndex()
	svc := NewSearchService(index)
	index.Docs[1] = models.ImageDocument{ID: 1, OwnerID: alice.ID, ProjectPublic: false}
	index.Docs[2] = models.ImageDocument{ID: 2, OwnerID: bob.ID, ProjectPublic: true}
	index.Docs[3] = models.ImageDocument{ID: 3, OwnerID: bob.ID, ProjectPublic: false}

	docs, err := svc.SearchImages(ctx, alice.ID, "cat", 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, int64(1), docs[0].ID)
	assert.Equal(t, int64(2), docs[1].ID)
	assert.Equal(t, DefaultSearchLimit, index.LastLimit)
	assert.Equal(t, "cat", index.LastQuery)

	docs, err = svc.SearchImages(ctx, "", "", 500)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, int64(2), docs[0].ID)
	assert.Equal(t, MaxSearchLimit, index.LastLimit)

	index.Fail = true
	_, err = svc.SearchImages(ctx, alice.ID, "x", 10)
	assert.Equal(t, KindUpstream, KindOf(err))
}

func TestCompensatorRunsInReverseAndCollectsErrors(t *testing.T) {
	var order []string
	c := &compensator{}
	c.add("first", func(context.Context) error { order = append(order, "first"); return nil })
	c.add("second", func(context.Context) error { order = append(order, "second"); return fakes.ErrInjected })
	c.add("third", func(context.Context) error { order = append(order, "third"); return fakes.ErrInjected })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.rollback(ctx)

	assert.Equal(t, []string{"third", "second", "first"}, order)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")
	assert.Contains(t, err.Error(), "third")
	assert.NoError(t, c.rollback(ctx), "steps run once")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUpstream, KindOf(fakes.ErrInjected))
	assert.Equal(t, KindNotFound, KindOf(NotFound("x")))
	assert.ErrorIs(t, Upstream("wrapped", fakes.ErrInjected), fakes.ErrInjected)
	assert.Equal(t, "upstream failure", PublicMessage(fakes.ErrInjected))
}
