package service

import (
	"context"
	"errors"
	"fmt"

	"chatd/internal/domain"
	"chatd/internal/security"
)

// AuthService handles signup and login.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenService
	hash   *security.PasswordHasher
}

func NewAuthService(users domain.UserRepository, tokens *security.TokenService, hash *security.PasswordHasher) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		hash:   hash,
	}
}

type SignupInput struct {
	FullName        string
	Username        string
	Password        string
	ConfirmPassword string
	Gender          string
}

type LoginInput struct {
	Username string
	Password string
}

// AuthResult carries the authenticated user and the session token the
// handler attaches as a cookie.
type AuthResult struct {
	User  *domain.User
	Token string
}

func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if in.Password != in.ConfirmPassword {
		return nil, domain.NewError(domain.ErrInvalidInput, "Passwords don't match")
	}
	if in.Gender != "male" && in.Gender != "female" {
		return nil, domain.NewError(domain.ErrInvalidInput, "Gender must be male or female")
	}

	existing, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if existing != nil {
		return nil, domain.NewError(domain.ErrConflict, "Username already exists")
	}

	hashed, err := s.hash.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:       in.Username,
		FullName:       in.FullName,
		Gender:         in.Gender,
		ProfilePic:     avatarURL(in.Gender, in.Username),
		HashedPassword: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race against a concurrent signup for the same username
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.NewError(domain.ErrConflict, "Username already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies the credentials and issues a session token. The error is
// identical for an unknown username and a wrong password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, domain.NewError(domain.ErrUnauthorized, "Invalid username or password")
	}
	if err := s.hash.Verify(in.Password, user.HashedPassword); err != nil {
		return nil, domain.NewError(domain.ErrUnauthorized, "Invalid username or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// avatarURL builds the default gendered profile picture for a new user.
func avatarURL(gender, username string) string {
	kind := "boy"
	if gender == "female" {
		kind = "girl"
	}
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%s?username=%s", kind, username)
}
