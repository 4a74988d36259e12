package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/db"
	"github.com/Akxssh/property-salahe/internal/models"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// Messages mirror what the hosted auth service reports, so pages behave the same on both backends.
const (
	msgInvalidCredentials = "Invalid login credentials"
	msgAlreadyRegistered  = "User already registered"
)

// Revoker stores signed-out token ids.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// LocalAuth implements backend.Auth with users in MongoDB, bcrypt password hashes and
// HS256 session tokens. Signed-out tokens are kept in a Revoker until they expire.
type LocalAuth struct {
	users   *mongo.Collection
	revoked Revoker
	secret  string
	ttl     time.Duration
	now     func() time.Time
}

// NewLocalAuth creates a LocalAuth storing users in database.
func NewLocalAuth(database *mongo.Database, revoked Revoker, secret string, ttl time.Duration) *LocalAuth {
	return &LocalAuth{
		users:   database.Collection(db.UsersCollection),
		revoked: revoked,
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ backend.Auth = (*LocalAuth)(nil)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *LocalAuth) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var creds models.Credentials
	err := a.users.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&creds)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			CheckPasswordHash(password, string(unknownUserHash))
			return nil, &backend.APIError{StatusCode: http.StatusBadRequest, Message: msgInvalidCredentials}
		}
		return nil, fmt.Errorf("error finding user by email: %w", err)
	}
	if !CheckPasswordHash(password, creds.PasswordHash) {
		return nil, &backend.APIError{StatusCode: http.StatusBadRequest, Message: msgInvalidCredentials}
	}
	return a.issue(models.User{ID: creds.ID, Email: creds.Email})
}

// SignUp registers the user and signs them in straight away; there is no confirmation email.
func (a *LocalAuth) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	creds := models.Credentials{
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    a.now().UTC(),
	}

	// the unique email index turns a second registration into a duplicate key error,
	// so only retry while the collision is on _id
	operation := func() error {
		creds.ID = utils.NewRowID()
		_, insertErr := a.users.InsertOne(ctx, creds)
		return insertErr
	}
	err = db.WithRetries(operation, db.DefaultMaxRetries, isIDCollision)
	if err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return nil, &backend.APIError{StatusCode: http.StatusUnprocessableEntity, Message: msgAlreadyRegistered}
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	utils.Logger.WithField("user_id", creds.ID).Info("Registered new user")
	return a.issue(models.User{ID: creds.ID, Email: creds.Email})
}

func (a *LocalAuth) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	claims, err := ValidateJWT(accessToken, a.secret)
	if err != nil {
		// an invalid or expired token is already signed out
		return nil
	}
	return a.revoked.Revoke(ctx, claims.ID, claims.remaining())
}

func (a *LocalAuth) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, backend.ErrNoUser
	}
	claims, err := ValidateJWT(accessToken, a.secret)
	if err != nil {
		return nil, backend.ErrNoUser
	}
	revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, backend.ErrNoUser
	}
	return &models.User{ID: claims.UserID, Email: claims.Email}, nil
}

func (a *LocalAuth) issue(user models.User) (*models.Session, error) {
	token, _, err := GenerateJWT(user.ID, user.Email, a.secret, a.ttl)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		AccessToken: token,
		ExpiresIn:   int(a.ttl / time.Second),
		User:        user,
	}, nil
}

func isIDCollision(err error) bool {
	var we mongo.WriteException
	if !errors.As(err, &we) {
		return false
	}
	for _, e := range we.WriteErrors {
		if e.Code == 11000 && strings.Contains(e.Message, "_id_") {
			return true
		}
	}
	return false
}
