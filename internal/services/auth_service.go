package services

import (
	"context"
	"errors"
	"strings"

	"makhana/internal/domain"
	"makhana/internal/repos"
	"makhana/internal/validate"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCreds      = errors.New("invalid username/email or password")
	ErrBadAdminCreds = errors.New("invalid credentials")
)

type AuthService struct {
	Users  *repos.UserRepo
	Admins *repos.AdminRepo
}

func NewAuthService(users *repos.UserRepo, admins *repos.AdminRepo) *AuthService {
	return &AuthService{Users: users, Admins: admins}
}

type SignupInput struct {
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
	FullName        string `json:"fullName" form:"fullName"`
	Phone           string `json:"phone" form:"phone"`
	Address         string `json:"address" form:"address"`
}

// Signup checks the form in a fixed order (presence, confirmation, length,
// email shape, uniqueness) and stores a bcrypt hash.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, invalid("Username, email, and password are required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, invalid("Passwords do not match")
	}
	if !validate.Password(in.Password) {
		return nil, invalid("Password must be at least 6 characters long")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, invalid("Invalid email format")
	}

	exists, err := s.Users.Exists(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &Problem{Msg: "Username or email already exists", Kind: domain.ErrDuplicate}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Username: username,
		Email:    email,
		Hash:     string(hash),
		FullName: strings.TrimSpace(in.FullName),
		Phone:    strings.TrimSpace(in.Phone),
		Address:  strings.TrimSpace(in.Address),
	}
	id, err := s.Users.Create(ctx, u)
	if errors.Is(err, domain.ErrDuplicate) {
		// lost a race with a concurrent signup
		return nil, &Problem{Msg: "Username or email already exists", Kind: domain.ErrDuplicate}
	}
	if err != nil {
		return nil, err
	}
	u.ID = id
	return u, nil
}

// Login accepts either the username or the email as login.
func (s *AuthService) Login(ctx context.Context, login, password string) (*domain.User, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, invalid("Username/Email and password are required")
	}
	u, err := s.Users.ByLogin(ctx, strings.TrimSpace(login))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrBadCreds
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	return u, nil
}

func (s *AuthService) AdminLogin(ctx context.Context, email, password string) (*domain.Admin, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, invalid("Email and password are required")
	}
	a, err := s.Admins.ByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrBadAdminCreds
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(password)) != nil {
		return nil, ErrBadAdminCreds
	}
	return a, nil
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, notFound("User not found")
	}
	return u, err
}

type ProfileInput struct {
	FullName string `json:"full_name" form:"full_name"`
	Phone    string `json:"phone" form:"phone"`
	Address  string `json:"address" form:"address"`
	Email    string `json:"email" form:"email"`
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in ProfileInput) (*domain.User, error) {
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, invalid("Valid email is required")
	}
	taken, err := s.Users.EmailTaken(ctx, email, userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &Problem{Msg: "Email already in use", Kind: domain.ErrDuplicate}
	}
	err = s.Users.UpdateProfile(ctx, userID, strings.TrimSpace(in.FullName), strings.TrimSpace(in.Phone), strings.TrimSpace(in.Address), email)
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		return nil, &Problem{Msg: "Email already in use", Kind: domain.ErrDuplicate}
	case errors.Is(err, domain.ErrNotFound):
		return nil, notFound("User not found")
	case err != nil:
		return nil, err
	}
	return s.Users.ByID(ctx, userID)
}

// EnsureAdmin creates or refreshes an admin account; used for bootstrap and the CLI.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, password string) (int64, error) {
	email, ok := validate.Email(email)
	if !ok {
		return 0, invalid("Valid email is required")
	}
	if !validate.Password(password) {
		return 0, invalid("Password must be at least 6 characters long")
	}
	if strings.TrimSpace(name) == "" {
		name = "Admin"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}
	return s.Admins.Upsert(ctx, strings.TrimSpace(name), email, string(hash))
}
