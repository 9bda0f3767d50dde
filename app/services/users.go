package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/models"
	"github.com/shashiranjanraj/stockbook/app/repositories"
	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/auth"
	"github.com/shashiranjanraj/stockbook/pkg/logger"
	"github.com/shashiranjanraj/stockbook/pkg/middleware"
	"github.com/shashiranjanraj/stockbook/pkg/pagination"
)

type SignupInput struct {
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	Firstname string  `json:"firstname" validate:"max=100"`
	Lastname  *string `json:"lastname" validate:"omitempty,max=100"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is the token pair handed out by Login.
type Session struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Status       string `json:"status"`
}

// Users handles accounts and token issuance. It also resolves identities
// for middleware.Guard.
type Users struct {
	db     *gorm.DB
	tokens *auth.Tokens
}

func NewUsers(db *gorm.DB, tokens *auth.Tokens) *Users {
	return &Users{db: db, tokens: tokens}
}

var _ middleware.IdentityLoader = (*Users)(nil)

func (s *Users) repo() *repositories.UserRepository {
	return repositories.NewUserRepository(s.db)
}

// Signup creates a regular user.
func (s *Users) Signup(ctx context.Context, in SignupInput) (uint, error) {
	if err := check(in); err != nil {
		return 0, err
	}
	return s.create(ctx, in, false)
}

func (s *Users) create(ctx context.Context, in SignupInput, admin bool) (uint, error) {
	users := s.repo()
	taken, err := users.UsernameExists(ctx, in.Username)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, apperror.Conflict("Username already exists.")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return 0, err
	}
	user := models.User{
		Username:  in.Username,
		Password:  hash,
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Admin:     admin,
	}
	if err := users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, apperror.Conflict("Username already exists.")
		}
		return 0, err
	}
	return user.ID, nil
}

// Login checks the credentials and issues an access and refresh token. The
// refresh token is stored on the user, replacing any earlier one.
func (s *Users) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := check(in); err != nil {
		return Session{}, err
	}
	users := s.repo()

	user, err := users.FindByUsername(ctx, in.Username)
	if errors.Is(err, apperror.ErrNotFound) {
		return Session{}, apperror.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return Session{}, err
	}
	if !auth.CheckPassword(user.Password, in.Password) {
		return Session{}, apperror.Unauthorized("Invalid credentials")
	}

	access, err := s.tokens.Access(user.ID, user.Username)
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.tokens.Refresh(user.ID, user.Username)
	if err != nil {
		return Session{}, err
	}
	if err := users.SetRefreshToken(ctx, user.ID, &refresh); err != nil {
		return Session{}, err
	}

	logger.WithCtx(ctx).Info("user logged in", "user_id", user.ID)
	return Session{Token: access, RefreshToken: refresh, Status: "Logged in"}, nil
}

// Refresh exchanges a refresh token for a new access token. The token must
// verify and match the copy stored at login.
func (s *Users) Refresh(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", apperror.Validation("Refresh token required")
	}
	claims, err := s.tokens.VerifyRefresh(raw)
	if err != nil {
		return "", apperror.Unauthorized("Invalid or expired refresh token")
	}

	user, err := s.repo().FindByID(ctx, claims.ID)
	if errors.Is(err, apperror.ErrNotFound) {
		return "", apperror.Unauthorized("Invalid refresh token")
	}
	if err != nil {
		return "", err
	}
	if user.RefreshToken == nil || *user.RefreshToken != raw {
		return "", apperror.Unauthorized("Invalid refresh token")
	}
	return s.tokens.Access(user.ID, user.Username)
}

// Logout forgets the stored refresh token of userID.
func (s *Users) Logout(ctx context.Context, userID uint) error {
	return s.repo().SetRefreshToken(ctx, userID, nil)
}

func (s *Users) Me(ctx context.Context, userID uint) (models.User, error) {
	return s.repo().FindByID(ctx, userID)
}

func (s *Users) List(ctx context.Context, p pagination.Params) (pagination.Page[models.User], error) {
	return s.repo().List(ctx, p)
}

// LoadIdentity implements middleware.IdentityLoader.
func (s *Users) LoadIdentity(ctx context.Context, userID uint) (middleware.Identity, error) {
	user, err := s.repo().FindByID(ctx, userID)
	if err != nil {
		return middleware.Identity{}, err
	}
	return middleware.Identity{ID: user.ID, Username: user.Username, Admin: user.Admin}, nil
}

// EnsureAdmin creates username as an admin, or promotes it when it already
// exists. It reports whether a new user was created.
func (s *Users) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	users := s.repo()
	user, err := users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if user.Admin {
			return false, nil
		}
		return false, users.SetAdmin(ctx, user.ID, true)
	case !errors.Is(err, apperror.ErrNotFound):
		return false, err
	}

	in := SignupInput{Username: username, Password: password, Firstname: username}
	if err := check(in); err != nil {
		return false, err
	}
	_, err = s.create(ctx, in, true)
	return err == nil, err
}
