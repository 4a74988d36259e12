// Package backend is the boundary to the managed data service: table rows, password
// auth and object storage. Page controllers depend only on the interfaces here.
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Akxssh/property-salahe/internal/models"
)

// ErrNoUser is returned by CurrentUser when the token does not identify a signed-in user.
var ErrNoUser = errors.New("no signed-in user")

// APIError is a failure reported by the backend itself. Message is shown to users verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.StatusCode, e.Message)
}

// Message extracts the user-facing text of err: the backend's own message for an
// APIError, the error string otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// ListOptions orders a full-table read.
type ListOptions struct {
	OrderBy   string
	Ascending bool
}

// NewestFirst is the ordering every page uses: created_at descending.
var NewestFirst = ListOptions{OrderBy: "created_at"}

// Rows reads and appends table rows.
type Rows interface {
	// List decodes every row of table into dest, which must point to a slice.
	List(ctx context.Context, table string, opts ListOptions, dest any) error
	Insert(ctx context.Context, table string, row any) error
}

// Auth is email/password authentication.
type Auth interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	// SignUp may return a session without an access token when the backend requires
	// email confirmation before the first sign-in.
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	CurrentUser(ctx context.Context, accessToken string) (*models.User, error)
}

// Objects stores files in public buckets.
type Objects interface {
	// Upload stores body under name in bucket and returns the object's path within the bucket.
	Upload(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) (string, error)
	PublicURL(bucket, path string) string
}

// Client bundles the three backend capabilities.
type Client struct {
	Rows
	Auth
	Objects
}

type accessTokenKey struct{}

// WithAccessToken attaches the caller's access token so row and object requests run as that user.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the token attached by WithAccessToken, if any.
func AccessToken(ctx context.Context) string {
	tok, _ := ctx.Value(accessTokenKey{}).(string)
	return tok
}
