package user

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/airalert/airalert/internal/kvstore"
)

// StoreRepository persists users in a kvstore.Store.
//
// Keys:
//
//	user:{id}               user record including the password hash
//	user:email:{email}      {"id": ...} index for login
//	region:{region}:users   sorted user IDs for the worker sweep
//
// Index updates are serialised per process only.
type StoreRepository struct {
	store kvstore.Store
	mu    sync.Mutex
}

// NewStoreRepository creates a repository backed by store.
func NewStoreRepository(store kvstore.Store) *StoreRepository {
	return &StoreRepository{store: store}
}

// record is the stored form of a User. The embedded User hides the hash
// from JSON, so it is carried in its own field.
type record struct {
	User
	PasswordHash string `json:"password_hash"`
}

type emailIndex struct {
	ID string `json:"id"`
}

func userKey(id string) string       { return "user:" + id }
func emailKey(email string) string   { return "user:email:" + NormalizeEmail(email) }
func regionKey(region string) string { return "region:" + region + ":users" }

// Get retrieves a user by ID.
func (r *StoreRepository) Get(ctx context.Context, id string) (*User, error) {
	var rec record
	if err := r.store.Get(ctx, userKey(id), &rec); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}
	u := rec.User
	u.PasswordHash = rec.PasswordHash
	return &u, nil
}

// GetByEmail retrieves a user by email.
func (r *StoreRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var idx emailIndex
	if err := r.store.Get(ctx, emailKey(email), &idx); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading email index: %w", err)
	}
	return r.Get(ctx, idx.ID)
}

// Create creates a new user.
func (r *StoreRepository) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.claimEmail(ctx, u.Email, u.ID); err != nil {
		return err
	}
	if err := r.put(ctx, u); err != nil {
		return r.releaseEmail(ctx, u.Email, err)
	}
	return r.addToRegion(ctx, u.Region, u.ID)
}

// Update replaces an existing user, moving its email and region index
// entries when they change.
func (r *StoreRepository) Update(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, u.ID)
	if err != nil {
		return err
	}

	// The old address stays indexed until the record holds the new one.
	emailChanged := NormalizeEmail(existing.Email) != NormalizeEmail(u.Email)
	if emailChanged {
		if err := r.claimEmail(ctx, u.Email, u.ID); err != nil {
			return err
		}
	}
	if err := r.put(ctx, u); err != nil {
		if emailChanged {
			return r.releaseEmail(ctx, u.Email, err)
		}
		return err
	}
	if emailChanged {
		if err := r.store.Delete(ctx, emailKey(existing.Email)); err != nil {
			return err
		}
	}

	if existing.Region != u.Region {
		if err := r.removeFromRegion(ctx, existing.Region, u.ID); err != nil {
			return err
		}
		return r.addToRegion(ctx, u.Region, u.ID)
	}
	return nil
}

// Delete deletes a user and its index entries.
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.Get(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := r.store.Delete(ctx, emailKey(existing.Email)); err != nil {
		return err
	}
	if err := r.removeFromRegion(ctx, existing.Region, id); err != nil {
		return err
	}
	return r.store.Delete(ctx, userKey(id))
}

// ListByRegion returns the users registered in region.
func (r *StoreRepository) ListByRegion(ctx context.Context, region string) ([]*User, error) {
	ids, err := r.regionIDs(ctx, region)
	if err != nil {
		return nil, err
	}

	users := make([]*User, 0, len(ids))
	for _, id := range ids {
		u, err := r.Get(ctx, id)
		if errors.Is(err, ErrUserNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *StoreRepository) put(ctx context.Context, u *User) error {
	rec := record{User: *u, PasswordHash: u.PasswordHash}
	if err := r.store.Set(ctx, userKey(u.ID), rec, 0); err != nil {
		return fmt.Errorf("storing user: %w", err)
	}
	return nil
}

func (r *StoreRepository) claimEmail(ctx context.Context, email, id string) error {
	var idx emailIndex
	err := r.store.Get(ctx, emailKey(email), &idx)
	switch {
	case err == nil:
		return ErrEmailTaken
	case !errors.Is(err, kvstore.ErrNotFound):
		return fmt.Errorf("checking email: %w", err)
	}
	return r.store.Set(ctx, emailKey(email), emailIndex{ID: id}, 0)
}

// releaseEmail drops a claim whose record could not be written and
// returns cause.
func (r *StoreRepository) releaseEmail(ctx context.Context, email string, cause error) error {
	if err := r.store.Delete(ctx, emailKey(email)); err != nil {
		return errors.Join(cause, fmt.Errorf("releasing email: %w", err))
	}
	return cause
}

func (r *StoreRepository) regionIDs(ctx context.Context, region string) ([]string, error) {
	var ids []string
	if err := r.store.Get(ctx, regionKey(region), &ids); err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading region index: %w", err)
	}
	return ids, nil
}

func (r *StoreRepository) addToRegion(ctx context.Context, region, id string) error {
	ids, err := r.regionIDs(ctx, region)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return nil
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return r.store.Set(ctx, regionKey(region), ids, 0)
}

func (r *StoreRepository) removeFromRegion(ctx context.Context, region, id string) error {
	ids, err := r.regionIDs(ctx, region)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(ids, id)
	if i == len(ids) || ids[i] != id {
		return nil
	}
	ids = append(ids[:i], ids[i+1:]...)
	if len(ids) == 0 {
		return r.store.Delete(ctx, regionKey(region))
	}
	return r.store.Set(ctx, regionKey(region), ids, 0)
}

var _ Repository = (*StoreRepository)(nil)
