package tasks_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Akxssh/property-salahe/internal/config"
	"github.com/Akxssh/property-salahe/internal/tasks"
)

// --- Mocks ---

type MockObjectAPI struct {
	mock.Mock
}

func (m *MockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func (m *MockObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.GetObjectOutput), args.Error(1)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

// --- Helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AwsS3Bucket:       "assets",
		ImageMaxDimension: 16,
		ImageMaxSizeMB:    1,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func object(data []byte) *s3.GetObjectOutput {
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}
}

func normalizeTask(t *testing.T, key string) *asynq.Task {
	t.Helper()
	task, err := tasks.NewImageNormalizeTask(key)
	require.NoError(t, err)
	return task
}

// --- Tests ---

func TestNewImageNormalizeTask(t *testing.T) {
	task := normalizeTask(t, "property-images/1-a.png")
	assert.Equal(t, tasks.TypeImageNormalize, task.Type())
	assert.JSONEq(t, `{"s3_key":"property-images/1-a.png"}`, string(task.Payload()))
}

func TestHandleImageNormalizeTask_ResizesLargeImage(t *testing.T) {
	api := new(MockObjectAPI)
	p := tasks.NewTaskProcessor(testConfig(), api)

	api.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Bucket == "assets" && *in.Key == "property-images/1-a.png"
	})).Return(object(pngBytes(t, 64, 32)), nil)

	var stored []byte
	api.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Key == "property-images/1-a.png" && *in.ContentType == "image/jpeg"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		stored, _ = io.ReadAll(in.Body)
	}).Return(&s3.PutObjectOutput{}, nil)

	err := p.HandleImageNormalizeTask(context.Background(), normalizeTask(t, "property-images/1-a.png"))
	require.NoError(t, err)
	api.AssertExpectations(t)

	img, err := jpeg.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())
}

func TestHandleImageNormalizeTask_SmallImageUntouched(t *testing.T) {
	api := new(MockObjectAPI)
	p := tasks.NewTaskProcessor(testConfig(), api)
	api.On("GetObject", mock.Anything, mock.Anything).Return(object(pngBytes(t, 8, 8)), nil)

	err := p.HandleImageNormalizeTask(context.Background(), normalizeTask(t, "k.png"))
	require.NoError(t, err)
	api.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestHandleImageNormalizeTask_SkipRetry(t *testing.T) {
	tests := []struct {
		name  string
		task  *asynq.Task
		setup func(api *MockObjectAPI)
	}{
		{
			name:  "malformed payload",
			task:  asynq.NewTask(tasks.TypeImageNormalize, []byte("{")),
			setup: func(*MockObjectAPI) {},
		},
		{
			name:  "empty key",
			task:  asynq.NewTask(tasks.TypeImageNormalize, []byte(`{}`)),
			setup: func(*MockObjectAPI) {},
		},
		{
			name: "missing object",
			task: asynq.NewTask(tasks.TypeImageNormalize, []byte(`{"s3_key":"gone.png"}`)),
			setup: func(api *MockObjectAPI) {
				api.On("GetObject", mock.Anything, mock.Anything).Return(nil, &types.NoSuchKey{})
			},
		},
		{
			name: "not an image",
			task: asynq.NewTask(tasks.TypeImageNormalize, []byte(`{"s3_key":"notes.txt"}`)),
			setup: func(api *MockObjectAPI) {
				api.On("GetObject", mock.Anything, mock.Anything).Return(object([]byte("plain text")), nil)
			},
		},
		{
			name: "too large",
			task: asynq.NewTask(tasks.TypeImageNormalize, []byte(`{"s3_key":"huge.png"}`)),
			setup: func(api *MockObjectAPI) {
				api.On("GetObject", mock.Anything, mock.Anything).Return(object(make([]byte, 1024*1024+1)), nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockObjectAPI)
			tt.setup(api)
			p := tasks.NewTaskProcessor(testConfig(), api)

			err := p.HandleImageNormalizeTask(context.Background(), tt.task)
			require.Error(t, err)
			assert.True(t, errors.Is(err, asynq.SkipRetry))
			api.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleImageNormalizeTask_TransientErrorRetries(t *testing.T) {
	api := new(MockObjectAPI)
	p := tasks.NewTaskProcessor(testConfig(), api)
	api.On("GetObject", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	err := p.HandleImageNormalizeTask(context.Background(), normalizeTask(t, "k.png"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestImageUploadHook(t *testing.T) {
	enq := new(MockEnqueuer)
	enq.On("EnqueueContext", mock.Anything, mock.MatchedBy(func(task *asynq.Task) bool {
		return task.Type() == tasks.TypeImageNormalize && string(task.Payload()) == `{"s3_key":"property-images/1-a.png"}`
	})).Return(&asynq.TaskInfo{ID: "t1"}, nil).Once()
	enq.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, errors.New("redis down")).Once()

	hook := tasks.ImageUploadHook(enq)
	hook(context.Background(), "property-images/1-a.png")
	// A failed enqueue is logged, not propagated.
	hook(context.Background(), "property-images/2-b.png")

	enq.AssertNumberOfCalls(t, "EnqueueContext", 2)
}
