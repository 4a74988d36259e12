package handlers_test

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/Akxssh/property-salahe/internal/models"
	"github.com/Akxssh/property-salahe/internal/services"
)

// --- Mock Services ---

// MockPropertyService implements services.IPropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) ListAll(ctx context.Context) ([]models.Property, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}

// Create records the image body so tests can assert on it.
func (m *MockPropertyService) Create(ctx context.Context, form services.UploadForm, image *services.ImageFile) (*models.Property, error) {
	var imageArg interface{}
	if image != nil {
		body, _ := io.ReadAll(image.Body)
		imageArg = UploadedImage{Name: image.Name, ContentType: image.ContentType, Body: string(body)}
	}
	args := m.Called(ctx, form, imageArg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

// UploadedImage is what MockPropertyService.Create saw of an image.
type UploadedImage struct {
	Name        string
	ContentType string
	Body        string
}

// MockAccountService implements services.IAccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockAccountService) Register(ctx context.Context, email, password, confirmPassword string) (*models.Session, error) {
	args := m.Called(ctx, email, password, confirmPassword)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockAccountService) Logout(ctx context.Context, accessToken string) error {
	return m.Called(ctx, accessToken).Error(0)
}

func (m *MockAccountService) CurrentUser(ctx context.Context, accessToken string) (*models.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
