package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every UserStore implementation must share.
// newStore must return an empty store whose ids start at 1.
func runStoreContract(t *testing.T, newStore func(t *testing.T) UserStore) {
	ctx := context.Background()

	t.Run("CreateAssignsSequentialIDs", func(t *testing.T) {
		store := newStore(t)

		first, err := store.Create(ctx, &CreateUserRequest{Email: "a@x.com", Name: "Ann"})
		require.NoError(t, err)
		second, err := store.Create(ctx, &CreateUserRequest{Email: "b@x.com", Name: "Bob"})
		require.NoError(t, err)

		assert.Equal(t, "1", first.ID)
		assert.Equal(t, "2", second.ID)
		assert.Equal(t, "a@x.com", first.Email)
		assert.Equal(t, "Ann", first.Name)
		assert.False(t, first.CreatedAt.IsZero())
		assert.WithinDuration(t, time.Now(), first.CreatedAt, time.Minute)
	})

	t.Run("CreateDoesNotEnforceUniqueness", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Create(ctx, &CreateUserRequest{Email: "dup@x.com", Name: "One"})
		require.NoError(t, err)
		_, err = store.Create(ctx, &CreateUserRequest{Email: "dup@x.com", Name: "Two"})
		require.NoError(t, err)

		all, err := store.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)

		found, err := store.FindByEmail(ctx, "dup@x.com")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "One", found.Name)
	})

	t.Run("FindByIDRoundTrip", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(ctx, &CreateUserRequest{Email: "a@x.com", Name: "Ann"})
		require.NoError(t, err)

		found, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, created.ID, found.ID)
		assert.Equal(t, created.Email, found.Email)
		assert.Equal(t, created.Name, found.Name)
		assert.True(t, created.CreatedAt.Equal(found.CreatedAt))
	})

	t.Run("MissingRecordsAreAbsentNotErrors", func(t *testing.T) {
		store := newStore(t)

		byID, err := store.FindByID(ctx, "999")
		require.NoError(t, err)
		assert.Nil(t, byID)

		byEmail, err := store.FindByEmail(ctx, "nobody@x.com")
		require.NoError(t, err)
		assert.Nil(t, byEmail)

		name := "Ghost"
		updated, err := store.Update(ctx, "999", &UserUpdate{Name: &name})
		require.NoError(t, err)
		assert.Nil(t, updated)

		deleted, err := store.Delete(ctx, "999")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("UpdateKeepsWriteOnceFields", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(ctx, &CreateUserRequest{Email: "a@x.com", Name: "Ann"})
		require.NoError(t, err)

		otherID := "42"
		otherTime := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
		name := "Annie"
		email := "annie@x.com"
		updated, err := store.Update(ctx, created.ID, &UserUpdate{
			ID:        &otherID,
			Email:     &email,
			Name:      &name,
			CreatedAt: &otherTime,
		})
		require.NoError(t, err)
		require.NotNil(t, updated)

		assert.Equal(t, created.ID, updated.ID)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.Equal(t, "Annie", updated.Name)
		assert.Equal(t, "annie@x.com", updated.Email)

		stored, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "Annie", stored.Name)
		assert.True(t, created.CreatedAt.Equal(stored.CreatedAt))

		ghost, err := store.FindByID(ctx, otherID)
		require.NoError(t, err)
		assert.Nil(t, ghost)
	})

	t.Run("UpdateWithEmptyPatchIsNoop", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(ctx, &CreateUserRequest{Email: "a@x.com", Name: "Ann"})
		require.NoError(t, err)

		updated, err := store.Update(ctx, created.ID, &UserUpdate{})
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, created.Name, updated.Name)
		assert.Equal(t, created.Email, updated.Email)
	})

	t.Run("DeleteReportsRemoval", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(ctx, &CreateUserRequest{Email: "a@x.com", Name: "Ann"})
		require.NoError(t, err)

		deleted, err := store.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = store.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		found, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("IDsAreNotReusedAfterDelete", func(t *testing.T) {
		store := newStore(t)

		first, err := store.Create(ctx, &CreateUserRequest{Email: "a@x.com", Name: "Ann"})
		require.NoError(t, err)
		_, err = store.Delete(ctx, first.ID)
		require.NoError(t, err)

		second, err := store.Create(ctx, &CreateUserRequest{Email: "b@x.com", Name: "Bob"})
		require.NoError(t, err)
		assert.Equal(t, "2", second.ID)
	})

	t.Run("FindAllReturnsEveryUser", func(t *testing.T) {
		store := newStore(t)

		empty, err := store.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, empty)

		for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
			_, err := store.Create(ctx, &CreateUserRequest{Email: email, Name: email})
			require.NoError(t, err)
		}

		all, err := store.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)

		emails := make([]string, 0, len(all))
		for _, u := range all {
			emails = append(emails, u.Email)
		}
		assert.ElementsMatch(t, []string{"a@x.com", "b@x.com", "c@x.com"}, emails)
	})

	t.Run("ReturnedValuesAreCopies", func(t *testing.T) {
		store := newStore(t)

		created, err := store.Create(ctx, &CreateUserRequest{Email: "a@x.com", Name: "Ann"})
		require.NoError(t, err)
		created.Name = "Mallory"
		created.Email = "mallory@x.com"

		found, err := store.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Ann", found.Name)
		found.Name = "Eve"

		all, err := store.FindAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "Ann", all[0].Name)
		all[0].Name = "Trent"

		again, err := store.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, again)
		assert.Equal(t, "Ann", again.Name)
	})

	t.Run("ResetRestartsIDs", func(t *testing.T) {
		store := newStore(t)
		resetter, ok := store.(Resetter)
		require.True(t, ok, "store %T does not support Reset", store)

		for _, email := range []string{"a@x.com", "b@x.com"} {
			_, err := store.Create(ctx, &CreateUserRequest{Email: email, Name: email})
			require.NoError(t, err)
		}

		require.NoError(t, resetter.Reset(ctx))

		all, err := store.FindAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		created, err := store.Create(ctx, &CreateUserRequest{Email: "c@x.com", Name: "Cy"})
		require.NoError(t, err)
		assert.Equal(t, "1", created.ID)
	})
}
