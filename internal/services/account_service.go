package services

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/models"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// MinPasswordLength is the shortest password the login page accepts.
const MinPasswordLength = 6

// RegisteredMessage is shown after a successful sign-up, when the page switches to login mode.
const RegisteredMessage = "Account created! Check your email to confirm, or sign in now."

// IAccountService signs users in and out.
type IAccountService interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Register(ctx context.Context, email, password, confirmPassword string) (*models.Session, error)
	Logout(ctx context.Context, accessToken string) error
	// CurrentUser returns nil without error when the token does not identify a user.
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

type accountService struct {
	auth backend.Auth
}

// NewAccountService creates an AccountService over the backend's auth.
func NewAccountService(auth backend.Auth) IAccountService {
	return &accountService{auth: auth}
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return invalid("Email and password are required.")
	}
	return nil
}

func validatePasswordLength(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalid("Password must be at least 6 characters.")
	}
	return nil
}

func (s *accountService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if err := validatePasswordLength(password); err != nil {
		return nil, err
	}

	session, err := s.auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		utils.Logger.WithError(err).WithField("email", email).Info("Sign-in rejected")
		return nil, &FormError{Message: backend.Message(err), Err: err}
	}
	return session, nil
}

func (s *accountService) Register(ctx context.Context, email, password, confirmPassword string) (*models.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if password != confirmPassword {
		return nil, invalid("Passwords do not match.")
	}
	if err := validatePasswordLength(password); err != nil {
		return nil, err
	}

	session, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		utils.Logger.WithError(err).WithField("email", email).Info("Sign-up rejected")
		return nil, &FormError{Message: backend.Message(err), Err: err}
	}
	utils.Logger.WithField("email", email).Info("Account created")
	return session, nil
}

func (s *accountService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return s.auth.SignOut(ctx, accessToken)
}

func (s *accountService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, nil
	}
	user, err := s.auth.CurrentUser(ctx, accessToken)
	if errors.Is(err, backend.ErrNoUser) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
