package user

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	Password  string
	Role      string
}

// UpdateRequest holds optional profile updates; empty fields are left alone.
type UpdateRequest struct {
	UserID    string
	FirstName string
	LastName  string
	Email     string
	Mobile    string
	Password  string
	Role      string
}

// Service implements registration, login, and profile management.
type Service struct {
	users  Repository
	tokens TokenIssuer
}

// NewService creates a user Service.
func NewService(users Repository, tokens TokenIssuer) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
	}
}

// Register creates an account with a bcrypt-hashed password and returns the
// user together with a signed auth token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, string, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return nil, "", errors.Wrap(err, "check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}

	role := req.Role
	if role == "" {
		role = "User"
	}
	u := &User{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Mobile,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", errors.Wrap(err, "create user")
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", errors.Wrap(err, "issue token")
	}
	return u, token, nil
}

// Login checks credentials and returns the user with a signed auth token.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "lookup user")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", errors.Wrap(err, "issue token")
	}
	return u, token, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// GetByEmail returns a user by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.users.GetByEmail(ctx, email)
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// Update applies non-empty fields of req; a supplied password is re-hashed.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*User, error) {
	u, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		u.FirstName = req.FirstName
	}
	if req.LastName != "" {
		u.LastName = req.LastName
	}
	if req.Email != "" {
		u.Email = req.Email
	}
	if req.Mobile != "" {
		u.Phone = req.Mobile
	}
	if req.Role != "" {
		u.Role = req.Role
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(err, "hash password")
		}
		u.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	return u, nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// ResetPassword replaces the password of the account registered to email.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	u.PasswordHash = string(hash)
	return s.users.Update(ctx, u)
}
