// Fireline - Fire Incident Dispatch and Realtime Notifications
// Copyright 2026 Fireline contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/firelinehq/fireline

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/firelinehq/fireline/internal/models"
)

// UserRepo persists dispatch users. A secondary username index backs login
// lookups; usernames are unique case-insensitively.
type UserRepo struct {
	s *Store
}

// userRecord is the storage encoding of a user. The API model hides the
// bcrypt hash with json:"-", so the record carries it in its own field;
// without this the hash would be dropped on every write.
type userRecord struct {
	models.User
	PasswordHash string `json:"password_hash"`
}

func encodeUser(user *models.User) ([]byte, error) {
	return json.Marshal(userRecord{User: *user, PasswordHash: user.PasswordHash})
}

func (rec userRecord) toUser() *models.User {
	user := rec.User
	user.PasswordHash = rec.PasswordHash
	return &user
}

func usernameKey(username string) string {
	return userByNameKeyPrefix + strings.ToLower(username)
}

// Create stores a new user. Returns ErrConflict when the username is taken.
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	data, err := encodeUser(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	err = r.s.db.Update(func(txn *badger.Txn) error {
		nameKey := []byte(usernameKey(user.Username))
		if _, err := txn.Get(nameKey); err == nil {
			return ErrConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := txn.Set([]byte(userKeyPrefix+user.ID.String()), data); err != nil {
			return err
		}
		return txn.Set(nameKey, []byte(user.ID.String()))
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var rec userRecord
	if err := r.s.get("users", userKeyPrefix+id.String(), &rec); err != nil {
		return nil, err
	}
	return rec.toUser(), nil
}

// GetByUsername retrieves a user by username (case-insensitive).
// The index stores the raw user ID, not a JSON document.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var id string
	err := r.s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(usernameKey(username)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get username index: %w", err)
	}

	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("corrupt username index for %q: %w", username, err)
	}
	return r.Get(ctx, userID)
}

// Update replaces an existing user, maintaining the username index when the
// username changed.
func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	existing, err := r.Get(ctx, user.ID)
	if err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	data, err := encodeUser(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	err = r.s.db.Update(func(txn *badger.Txn) error {
		if !strings.EqualFold(existing.Username, user.Username) {
			newNameKey := []byte(usernameKey(user.Username))
			if _, err := txn.Get(newNameKey); err == nil {
				return ErrConflict
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := txn.Delete([]byte(usernameKey(existing.Username))); err != nil {
				return err
			}
			if err := txn.Set(newNameKey, []byte(user.ID.String())); err != nil {
				return err
			}
		}
		return txn.Set([]byte(userKeyPrefix+user.ID.String()), data)
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// Delete removes a user and its username index entry.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	err = r.s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(userKeyPrefix + id.String())); err != nil {
			return err
		}
		return txn.Delete([]byte(usernameKey(user.Username)))
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// List returns all users sorted by username.
func (r *UserRepo) List(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.s.list("users", userKeyPrefix, func(val []byte) error {
		var rec userRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return err
		}
		users = append(users, rec.toUser())
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})
	return users, nil
}

// Count returns the number of stored users. Used at startup to decide
// whether to seed the initial admin account.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.s.list("users", userKeyPrefix, func(val []byte) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
