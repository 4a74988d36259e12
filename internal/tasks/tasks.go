package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Akxssh/property-salahe/internal/config"
	"github.com/Akxssh/property-salahe/internal/storage"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// TaskType defines the type of a background task.
const (
	TypeImageNormalize = "image:normalize"
)

// QueueImages is the queue image tasks are enqueued on.
const QueueImages = "images"

// ImageTaskPayload names the uploaded object to normalise.
type ImageTaskPayload struct {
	S3Key string `json:"s3_key"`
}

// --- Task Client (Enqueuing tasks) ---

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisOpt(rdb))
}

// NewImageNormalizeTask builds the task for one stored image.
func NewImageNormalizeTask(key string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{S3Key: key})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageNormalize, payload, asynq.Queue(QueueImages), asynq.MaxRetry(5)), nil
}

// Enqueuer is the part of asynq.Client used to schedule tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ImageUploadHook enqueues a normalisation task for every stored image. Enqueue
// failures are logged; the upload itself has already succeeded.
func ImageUploadHook(client Enqueuer) storage.UploadHook {
	return func(ctx context.Context, key string) {
		task, err := NewImageNormalizeTask(key)
		if err != nil {
			utils.Logger.WithError(err).Error("Could not build image task")
			return
		}
		info, err := client.EnqueueContext(ctx, task)
		if err != nil {
			utils.Logger.WithError(err).WithField("key", key).Warn("Could not enqueue image task")
			return
		}
		utils.Logger.WithFields(logrus.Fields{"key": key, "task_id": info.ID}).Debug("Enqueued image task")
	}
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	cfg      *config.Config
	s3Client storage.ObjectAPI
}

func NewTaskProcessor(cfg *config.Config, s3Client storage.ObjectAPI) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, s3Client: s3Client}
}

// SetupServer configures an Asynq server for the image queue. The caller runs it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Queues: map[string]int{
				QueueImages: 5,
				"default":   1,
			},
			Logger: utils.Logger,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				utils.Logger.WithError(err).WithFields(logrus.Fields{
					"task_type": task.Type(),
					"payload":   string(task.Payload()),
				}).Error("Task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageNormalize, processor.HandleImageNormalizeTask)
	utils.Logger.Info("Registered image processing task handlers.")

	return srv, mux
}

// HandleImageNormalizeTask shrinks an uploaded image to the configured maximum
// dimension, re-encoding it as JPEG in place. Images already within bounds are left alone.
func (p *TaskProcessor) HandleImageNormalizeTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.S3Key == "" {
		return fmt.Errorf("image task payload has no key: %w", asynq.SkipRetry)
	}

	log := utils.Logger.WithField("key", payload.S3Key)
	log.Debug("Processing image task")

	// 1. Download image from S3
	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Warn("S3 object not found")
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	imgData, err := io.ReadAll(io.LimitReader(getObjectOutput.Body, maxSizeBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(imgData)) > maxSizeBytes {
		log.Warnf("Image exceeds max size of %d bytes", maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.WithError(err).Warn("Could not decode image")
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}

	// 2. Check dimensions
	maxDim := uint(p.cfg.ImageMaxDimension)
	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	if uint(width) <= maxDim && uint(height) <= maxDim {
		log.WithField("format", format).Debugf("Image %dx%d within bounds", width, height)
		return nil
	}

	// 3. Resize
	resizedImg := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to re-encode resized image: %w", err)
	}

	// 4. Upload processed image (overwrite original)
	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.cfg.AwsS3Bucket),
		Key:           aws.String(payload.S3Key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	log.Infof("Resized image from %dx%d to %dx%d", width, height, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())
	return nil
}
