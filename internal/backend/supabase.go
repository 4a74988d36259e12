package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Akxssh/property-salahe/internal/models"
)

// Supabase implements Rows, Auth and Objects against a hosted Supabase project:
// PostgREST under /rest/v1, GoTrue under /auth/v1 and Storage under /storage/v1.
type Supabase struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewSupabase creates a client for the project at baseURL (e.g. "https://xyz.supabase.co").
func NewSupabase(baseURL, anonKey string) *Supabase {
	return &Supabase{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewSupabaseClient returns a Client whose three capabilities are all served by Supabase.
func NewSupabaseClient(baseURL, anonKey string) Client {
	sb := NewSupabase(baseURL, anonKey)
	return Client{Rows: sb, Auth: sb, Objects: sb}
}

// --- Rows ---

func (c *Supabase) List(ctx context.Context, table string, opts ListOptions, dest any) error {
	q := url.Values{}
	q.Set("select", "*")
	if opts.OrderBy != "" {
		dir := "desc"
		if opts.Ascending {
			dir = "asc"
		}
		q.Set("order", opts.OrderBy+"."+dir)
	}
	path := "/rest/v1/" + url.PathEscape(table) + "?" + q.Encode()
	return c.doJSON(ctx, http.MethodGet, path, AccessToken(ctx), nil, dest, nil)
}

func (c *Supabase) Insert(ctx context.Context, table string, row any) error {
	headers := map[string]string{"Prefer": "return=minimal"}
	return c.doJSON(ctx, http.MethodPost, "/rest/v1/"+url.PathEscape(table), AccessToken(ctx), row, nil, headers)
}

// --- Auth ---

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Supabase) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	var session models.Session
	err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", credentials{email, password}, &session, nil)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Supabase) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	// With email confirmation on, GoTrue answers with the bare user object instead of a session.
	var resp struct {
		models.Session
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/signup", "", credentials{email, password}, &resp, nil); err != nil {
		return nil, err
	}
	session := resp.Session
	if session.User.ID == "" {
		session.User = models.User{ID: resp.ID, Email: resp.Email}
	}
	return &session, nil
}

func (c *Supabase) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil, nil)
}

func (c *Supabase) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, ErrNoUser
	}
	var user models.User
	err := c.doJSON(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden) {
			return nil, ErrNoUser
		}
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrNoUser
	}
	return &user, nil
}

// --- Objects ---

func (c *Supabase) Upload(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) (string, error) {
	path := "/storage/v1/object/" + url.PathEscape(bucket) + "/" + escapeObjectPath(name)
	req, err := c.newRequest(ctx, http.MethodPost, path, AccessToken(ctx), body)
	if err != nil {
		return "", err
	}
	if size >= 0 {
		req.ContentLength = size
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	if err := c.do(req, nil); err != nil {
		return "", err
	}
	return name, nil
}

func (c *Supabase) PublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapeObjectPath(path)
}

func escapeObjectPath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// --- transport ---

func (c *Supabase) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)
	return req, nil
}

func (c *Supabase) doJSON(ctx context.Context, method, path, token string, body any, result any, headers map[string]string) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, token, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.do(req, result)
}

func (c *Supabase) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

// errorMessage picks the human-readable field out of a PostgREST, GoTrue or Storage error body.
func errorMessage(body []byte) string {
	var e struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		ErrorDescription string `json:"error_description"`
		Error            any    `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		switch {
		case e.Message != "":
			return e.Message
		case e.Msg != "":
			return e.Msg
		case e.ErrorDescription != "":
			return e.ErrorDescription
		}
		if s, ok := e.Error.(string); ok && s != "" {
			return s
		}
	}
	return strings.TrimSpace(string(body))
}
