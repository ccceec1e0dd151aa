package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/karasuda/kakeibo/internal/common"
	"github.com/karasuda/kakeibo/internal/model"
	"github.com/karasuda/kakeibo/internal/service"
)

// CreateUser creates a new user. Emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNilParameter)
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	if err := s.validateStruct(user); err != nil {
		return nil, err
	}

	taken, err := s.users().anyMatch(ctx, func(u *model.User) bool {
		return strings.EqualFold(u.Email, user.Email)
	})
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: email %q is already registered", common.ErrDuplicateEntry, user.Email)
	}

	created, err := s.users().insert(ctx, user)
	if err != nil {
		return nil, err
	}

	slog.Info("created user", "name", created.Name, "id", created.ID)
	return created, nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id int) (*model.User, error) {
	user, err := s.users().findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %d", common.ErrNotFound, id)
	}
	return user, nil
}

// GetUserByEmail returns a user by email, case-insensitively, or nil when no
// such user exists.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := validateString(email, "email"); err != nil {
		return nil, err
	}
	matches, err := s.users().findWhere(ctx, func(u *model.User) bool {
		return strings.EqualFold(u.Email, email)
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	user := matches[0]
	return &user, nil
}

// ListUsers returns all users in collection order.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users().findWhere(ctx, func(*model.User) bool { return true })
}

// UpdateUser applies a partial update to a user. An email change keeps the
// uniqueness invariant.
func (s *Store) UpdateUser(ctx context.Context, id int, patch service.UserPatch) (*model.User, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	if patch.Email != nil {
		taken, err := s.users().anyMatch(ctx, func(u *model.User) bool {
			return u.ID != id && strings.EqualFold(u.Email, *patch.Email)
		})
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: email %q is already registered", common.ErrDuplicateEntry, *patch.Email)
		}
	}

	updated, err := s.users().update(ctx, id, func(u *model.User) error {
		if patch.Name != nil {
			u.Name = *patch.Name
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.Department != nil {
			u.Department = *patch.Department
		}
		if patch.Role != nil {
			u.Role = *patch.Role
		}
		if patch.Phone != nil {
			u.Phone = *patch.Phone
		}
		if patch.Avatar != nil {
			u.Avatar = *patch.Avatar
		}
		return s.validateStruct(u)
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: user %d", common.ErrNotFound, id)
	}
	return updated, nil
}

// DeactivateUser marks a user inactive. Transaction history is untouched.
func (s *Store) DeactivateUser(ctx context.Context, id int) error {
	return s.setUserStatus(ctx, id, model.UserStatusInactive)
}

// ReactivateUser marks a user active again.
func (s *Store) ReactivateUser(ctx context.Context, id int) error {
	return s.setUserStatus(ctx, id, model.UserStatusActive)
}

func (s *Store) setUserStatus(ctx context.Context, id int, status model.UserStatus) error {
	updated, err := s.users().update(ctx, id, func(u *model.User) error {
		u.Status = status
		return nil
	})
	if err != nil {
		return err
	}
	if updated == nil {
		return fmt.Errorf("%w: user %d", common.ErrNotFound, id)
	}
	slog.Debug("changed user status", "id", id, "status", status)
	return nil
}

// DeleteUser permanently removes a user. It is rejected while any expense or
// income still references the user; deactivation is the alternative that
// preserves history.
func (s *Store) DeleteUser(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	user, err := s.users().findByID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("%w: user %d", common.ErrNotFound, id)
	}

	inUse, err := s.userInUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return fmt.Errorf("%w: user %q has transactions; deactivate instead", common.ErrIntegrityGuard, user.Name)
	}

	if err := s.users().remove(ctx, id); err != nil {
		return err
	}
	slog.Info("deleted user", "id", id, "name", user.Name)
	return nil
}

// userInUse reports whether any expense or income references the user.
func (s *Store) userInUse(ctx context.Context, id int) (bool, error) {
	used, err := s.expenses().anyMatch(ctx, func(e *model.Expense) bool { return e.UserID == id })
	if err != nil || used {
		return used, err
	}
	return s.income().anyMatch(ctx, func(in *model.Income) bool { return in.UserID == id })
}
