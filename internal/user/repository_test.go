package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airalert/airalert/internal/kvstore"
	"github.com/airalert/airalert/internal/user"
)

func repositories() map[string]func() user.Repository {
	return map[string]func() user.Repository{
		"memory": func() user.Repository { return user.NewInMemoryRepository() },
		"store":  func() user.Repository { return user.NewStoreRepository(kvstore.NewMemoryStore()) },
	}
}

func newUser(id, email, region string) *user.User {
	return &user.User{
		ID:                   id,
		Name:                 "User " + id,
		Email:                email,
		Region:               region,
		NotificationsEnabled: true,
		UserType:             user.TypePatient,
		Age:                  40,
		Gender:               "female",
		PasswordHash:         "hash-" + id,
		CreatedAt:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRepository_CreateAndGet(t *testing.T) {
	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := factory()
			ctx := context.Background()

			require.NoError(t, repo.Create(ctx, newUser("u1", "Ada@Example.com", "Europe")))

			got, err := repo.Get(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "Ada@Example.com", got.Email)
			assert.Equal(t, "hash-u1", got.PasswordHash)
			assert.Equal(t, 40, got.Age)

			byEmail, err := repo.GetByEmail(ctx, "  ada@example.COM ")
			require.NoError(t, err)
			assert.Equal(t, "u1", byEmail.ID)

			_, err = repo.Get(ctx, "missing")
			assert.ErrorIs(t, err, user.ErrUserNotFound)
			_, err = repo.GetByEmail(ctx, "nobody@example.com")
			assert.ErrorIs(t, err, user.ErrUserNotFound)
		})
	}
}

func TestRepository_DuplicateEmail(t *testing.T) {
	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := factory()
			ctx := context.Background()

			require.NoError(t, repo.Create(ctx, newUser("u1", "a@example.com", "Europe")))
			err := repo.Create(ctx, newUser("u2", "A@example.com", "Asia"))
			assert.ErrorIs(t, err, user.ErrEmailTaken)

			require.NoError(t, repo.Create(ctx, newUser("u3", "c@example.com", "Asia")))
			u3, err := repo.Get(ctx, "u3")
			require.NoError(t, err)
			u3.Email = "a@example.com"
			assert.ErrorIs(t, repo.Update(ctx, u3), user.ErrEmailTaken)
		})
	}
}

func TestRepository_UpdateMovesIndexes(t *testing.T) {
	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := factory()
			ctx := context.Background()

			require.NoError(t, repo.Create(ctx, newUser("u1", "a@example.com", "Europe")))
			require.NoError(t, repo.Create(ctx, newUser("u2", "b@example.com", "Europe")))

			u1, err := repo.Get(ctx, "u1")
			require.NoError(t, err)
			u1.Email = "new@example.com"
			u1.Region = "Asia"
			require.NoError(t, repo.Update(ctx, u1))

			_, err = repo.GetByEmail(ctx, "a@example.com")
			assert.ErrorIs(t, err, user.ErrUserNotFound)
			got, err := repo.GetByEmail(ctx, "new@example.com")
			require.NoError(t, err)
			assert.Equal(t, "u1", got.ID)

			europe, err := repo.ListByRegion(ctx, "Europe")
			require.NoError(t, err)
			require.Len(t, europe, 1)
			assert.Equal(t, "u2", europe[0].ID)

			asia, err := repo.ListByRegion(ctx, "Asia")
			require.NoError(t, err)
			require.Len(t, asia, 1)
			assert.Equal(t, "u1", asia[0].ID)

			assert.ErrorIs(t, repo.Update(ctx, newUser("ghost", "g@example.com", "Asia")), user.ErrUserNotFound)
		})
	}
}

func TestRepository_Delete(t *testing.T) {
	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := factory()
			ctx := context.Background()

			require.NoError(t, repo.Create(ctx, newUser("u1", "a@example.com", "Europe")))
			require.NoError(t, repo.Delete(ctx, "u1"))
			require.NoError(t, repo.Delete(ctx, "u1"))

			_, err := repo.Get(ctx, "u1")
			assert.ErrorIs(t, err, user.ErrUserNotFound)

			users, err := repo.ListByRegion(ctx, "Europe")
			require.NoError(t, err)
			assert.Empty(t, users)

			// the email is free again
			require.NoError(t, repo.Create(ctx, newUser("u2", "a@example.com", "Europe")))
		})
	}
}

var errWriteFailed = errors.New("write failed")

// failingRecordStore rejects writes of one key while failKey is set.
type failingRecordStore struct {
	*kvstore.MemoryStore
	failKey string
}

func (s *failingRecordStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if key == s.failKey {
		return errWriteFailed
	}
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

func TestStoreRepository_FailedEmailChangeKeepsLogin(t *testing.T) {
	ctx := context.Background()
	store := &failingRecordStore{MemoryStore: kvstore.NewMemoryStore()}
	repo := user.NewStoreRepository(store)
	require.NoError(t, repo.Create(ctx, newUser("u1", "a@example.com", "Europe")))

	u1, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	u1.Email = "new@example.com"

	store.failKey = "user:u1"
	assert.ErrorIs(t, repo.Update(ctx, u1), errWriteFailed)

	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
	_, err = repo.GetByEmail(ctx, "new@example.com")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	store.failKey = ""
	require.NoError(t, repo.Update(ctx, u1))
	got, err = repo.GetByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestStoreRepository_FailedCreateReleasesEmail(t *testing.T) {
	ctx := context.Background()
	store := &failingRecordStore{MemoryStore: kvstore.NewMemoryStore(), failKey: "user:u1"}
	repo := user.NewStoreRepository(store)

	assert.ErrorIs(t, repo.Create(ctx, newUser("u1", "a@example.com", "Europe")), errWriteFailed)

	store.failKey = ""
	require.NoError(t, repo.Create(ctx, newUser("u2", "a@example.com", "Europe")))
	got, err := repo.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.ID)
}
