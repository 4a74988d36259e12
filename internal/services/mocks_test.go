package services

import (
	"context"
	"encoding/json"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/models"
)

// MockRows is a mock of backend.Rows. List copies the "rows" argument into dest.
type MockRows struct {
	mock.Mock
}

func (m *MockRows) List(ctx context.Context, table string, opts backend.ListOptions, dest any) error {
	args := m.Called(ctx, table, opts)
	if rows := args.Get(0); rows != nil {
		data, _ := json.Marshal(rows)
		_ = json.Unmarshal(data, dest)
	}
	return args.Error(1)
}

func (m *MockRows) Insert(ctx context.Context, table string, row any) error {
	args := m.Called(ctx, table, row)
	return args.Error(0)
}

// MockAuth is a mock of backend.Auth.
type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockAuth) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockAuth) SignOut(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *MockAuth) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockObjects is a mock of backend.Objects.
type MockObjects struct {
	mock.Mock
}

func (m *MockObjects) Upload(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, bucket, name, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjects) PublicURL(bucket, path string) string {
	return m.Called(bucket, path).String(0)
}
