// Package identity is the user directory: registration, credentials, lookup,
// rating aggregation and the admin user operations.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonathan/jobni/internal/apperr"
	"github.com/jonathan/jobni/internal/config"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/types"
	"github.com/sirupsen/logrus"
)

// TokenType is the token_type returned with every access token.
const TokenType = "bearer"

// badCredentials is the message for every login failure, so callers cannot
// probe which emails are registered.
const badCredentials = "incorrect email or password"

// TokenIssuer issues access tokens for a user id.
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID) (string, error)
}

// Directory provides business logic for user accounts.
type Directory struct {
	store     db.Store
	passwords *config.PasswordConfig
	tokens    TokenIssuer
	log       logrus.FieldLogger
}

// NewDirectory creates a Directory with the given dependencies.
func NewDirectory(store db.Store, passwords *config.PasswordConfig, tokens TokenIssuer, log logrus.FieldLogger) *Directory {
	return &Directory{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		log:       log,
	}
}

// Register creates a user with password authentication and returns an access
// token for it. The role defaults to job_seeker.
func (d *Directory) Register(ctx context.Context, req *types.CreateUserRequest) (*types.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid("", err.Error())
	}
	role := req.Role
	if role == "" {
		role = types.RoleJobSeeker
	}

	u := &db.User{
		Email:       strings.TrimSpace(req.Email),
		Name:        strings.TrimSpace(req.Name),
		Phone:       req.Phone,
		Role:        role,
		CompanyName: req.CompanyName,
		Skills:      db.StringArray(req.Skills),
	}
	if err := d.create(ctx, u, req.Password); err != nil {
		return nil, err
	}
	d.log.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role}).Info("user registered")

	return d.issue(u)
}

// Login authenticates a user by email and password. Unknown emails and
// wrong passwords fail with the same error.
func (d *Directory) Login(ctx context.Context, req *types.LoginRequest) (*types.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, apperr.Invalid("", err.Error())
	}

	u, err := d.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if u == nil || !u.PasswordSet || !d.passwords.VerifyPassword(req.Password, u.PasswordHash) {
		return nil, apperr.Unauthenticated(badCredentials)
	}

	return d.issue(u)
}

// Me returns the caller's own profile.
func (d *Directory) Me(ctx context.Context, caller types.Caller) (*types.User, error) {
	u, err := d.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// UpdatePassword replaces the caller's password after checking the current one.
func (d *Directory) UpdatePassword(ctx context.Context, caller types.Caller, req *types.UpdatePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return apperr.Invalid("", err.Error())
	}

	u, err := d.FindByID(ctx, caller.ID)
	if err != nil {
		return err
	}
	if !d.passwords.VerifyPassword(req.CurrentPassword, u.PasswordHash) {
		return apperr.Invalid("current_password", "current password is incorrect")
	}

	hash, err := d.passwords.HashPassword(req.NewPassword)
	if err != nil {
		return apperr.Invalid("new_password", err.Error())
	}
	if err := d.store.UpdatePassword(ctx, u.ID, hash); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return apperr.NotFound("user", u.ID)
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	d.log.WithField("user_id", u.ID).Info("password updated")
	return nil
}

// FindByID returns the user or a NotFound error.
func (d *Directory) FindByID(ctx context.Context, id uuid.UUID) (*db.User, error) {
	u, err := d.store.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user", id)
	}
	return u, nil
}

// FindByEmail returns the user or a NotFound error.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	u, err := d.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	if u == nil {
		return nil, &apperr.NotFoundError{Entity: "user", ID: email}
	}
	return u, nil
}

// RecomputeRating sets the user's rating to the mean of the ratings they
// have received and total_ratings to their count. The aggregate is derived
// from a full scan at call time, so concurrent calls converge.
func (d *Directory) RecomputeRating(ctx context.Context, ratedID uuid.UUID) (*db.User, error) {
	u, err := d.store.RecomputeUserRating(ctx, ratedID)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute rating: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user", ratedID)
	}
	return u, nil
}

// ListUsers returns every user, newest first. Admin only.
func (d *Directory) ListUsers(ctx context.Context, caller types.Caller) ([]*types.User, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("admin access required")
	}
	users, err := d.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*types.User, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// DeleteUser removes a user record. Admin only. Records that reference the
// user are kept.
func (d *Directory) DeleteUser(ctx context.Context, caller types.Caller, id uuid.UUID) error {
	if !caller.IsAdmin() {
		return apperr.Forbidden("admin access required")
	}
	deleted, err := d.store.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !deleted {
		return apperr.NotFound("user", id)
	}
	d.log.WithFields(logrus.Fields{"user_id": id, "by": caller.ID}).Info("user deleted")
	return nil
}

// EnsureAdmin creates an admin account unless the email is already taken.
// It reports whether a user was created.
func (d *Directory) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	existing, err := d.store.GetUserByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to get user by email: %w", err)
	}
	if existing != nil {
		return false, nil
	}

	u := &db.User{Email: strings.TrimSpace(email), Name: name, Role: types.RoleAdmin}
	if err := d.create(ctx, u, password); err != nil {
		if apperr.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	d.log.WithField("user_id", u.ID).Info("admin created")
	return true, nil
}

// CreateUser stores a user with the given password without issuing a token.
// It is used by the seed command.
func (d *Directory) CreateUser(ctx context.Context, u *db.User, password string) error {
	if !u.Role.Valid() {
		return apperr.Invalid("role", fmt.Sprintf("unknown role %q", u.Role))
	}
	return d.create(ctx, u, password)
}

func (d *Directory) create(ctx context.Context, u *db.User, password string) error {
	hash, err := d.passwords.HashPassword(password)
	if err != nil {
		return apperr.Invalid("password", err.Error())
	}
	u.PasswordHash = hash
	u.PasswordSet = true

	// The unique index on email is authoritative; there is no pre-check.
	if err := d.store.CreateUser(ctx, u); err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("user", "email already registered")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (d *Directory) issue(u *db.User) (*types.LoginResponse, error) {
	token, err := d.tokens.GenerateToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &types.LoginResponse{
		AccessToken: token,
		TokenType:   TokenType,
		User:        u.Public(),
	}, nil
}
