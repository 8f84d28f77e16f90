package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/utils"
)

// ErrArtifactNotFound reports a Get against a path with no stored object.
var ErrArtifactNotFound = errors.New("artifact not found")

// FormStorage persists rendered PDF artifacts. Save builds a fresh timestamped
// path on every call, even for the same (student, year), so regeneration never
// overwrites an artifact that an existing download audit row still points at.
type FormStorage interface {
	Save(ctx context.Context, pdf []byte, studentID uuid.UUID, taxYear int) (string, int64, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
}

type gcsFormStorage struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
	pathPrefix    string
	now           func() time.Time
}

func NewGCSFormStorage(log *logger.Logger) (FormStorage, error) {
	serviceLog := log.With("service", "FormStorage")

	bucket := utils.GetEnv("FORMS_GCS_BUCKET_NAME", "", nil)
	if bucket == "" {
		return nil, fmt.Errorf("missing env var FORMS_GCS_BUCKET_NAME")
	}
	prefix := utils.GetEnv("FORMS_STORAGE_PREFIX", "tax_forms/1098t", nil)
	saPath := utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "", nil)
	emulatorHost := strings.TrimRight(strings.TrimSpace(utils.GetEnv("STORAGE_EMULATOR_HOST", "", nil)), "/")

	ctx := context.Background()
	var stClient *storage.Client
	var err error
	switch {
	case emulatorHost != "":
		stClient, err = storage.NewClient(ctx,
			option.WithoutAuthentication(),
			option.WithEndpoint(emulatorHost+"/storage/v1/"),
		)
	case saPath != "":
		stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
	default:
		stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog.Info("Form storage initialized", "bucket", bucket, "prefix", prefix, "emulator_host", emulatorHost)

	return &gcsFormStorage{
		log:           serviceLog,
		storageClient: stClient,
		bucketName:    bucket,
		pathPrefix:    strings.TrimRight(prefix, "/"),
		now:           time.Now,
	}, nil
}

// ArtifactPath builds the conventional storage path for one saved form.
func ArtifactPath(prefix string, studentID uuid.UUID, taxYear int, ts time.Time) string {
	return fmt.Sprintf(
		"%s/%d/student_%s_1098t_%d_%s.pdf",
		prefix, taxYear, studentID, taxYear, ts.Format("20060102_150405"),
	)
}

func (s *gcsFormStorage) Save(ctx context.Context, pdf []byte, studentID uuid.UUID, taxYear int) (string, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	path := ArtifactPath(s.pathPrefix, studentID, taxYear, s.now())
	w := s.storageClient.Bucket(s.bucketName).Object(path).NewWriter(ctx)
	w.ContentType = "application/pdf"
	if _, err := w.Write(pdf); err != nil {
		_ = w.Close()
		return "", 0, fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return "", 0, fmt.Errorf("close artifact writer for %s: %w", path, err)
	}
	return path, int64(len(pdf)), nil
}

func (s *gcsFormStorage) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := s.storageClient.Bucket(s.bucketName).Object(path).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("open artifact %s: %w", path, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return data, nil
}

// Delete is idempotent: a missing object is a no-op.
func (s *gcsFormStorage) Delete(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.storageClient.Bucket(s.bucketName).Object(path).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete artifact %s: %w", path, err)
	}
	return nil
}

func (s *gcsFormStorage) Exists(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.storageClient.Bucket(s.bucketName).Object(path).Attrs(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat artifact %s: %w", path, err)
	}
	return true, nil
}
