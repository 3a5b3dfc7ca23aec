package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"linkbatch/internal/archive"
	"linkbatch/internal/batch"
	"linkbatch/internal/loader"
	"linkbatch/internal/model"
	"linkbatch/internal/storage"
	"linkbatch/internal/template"
)

var (
	ErrFileRequired     = errors.New("input file is required")
	ErrUnknownPlatform  = errors.New("unknown platform")
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 500")
	ErrNoLinks          = errors.New("no links found")
)

// Batch size bounds accepted for a run.
const (
	MinBatchSize = 1
	MaxBatchSize = 500
)

// RunInput carries everything one processing run needs. Column, when set,
// bypasses auto-detection and selects the link column explicitly.
type RunInput struct {
	Reader    io.Reader
	Filename  string
	Platform  model.Platform
	BatchSize int
	Column    string
}

// RunService defines the use cases of the batch processor.
type RunService interface {
	// Run executes the full pipeline: parse the input table, split the
	// link column into batches, fill one template copy per batch, and
	// bundle the documents into a zip archive. All-or-nothing: any stage
	// failure aborts the run and no archive is produced.
	Run(ctx context.Context, in RunInput) (*model.RunResult, error)

	// Inspect parses the input table and reports its columns and the
	// auto-detected link column, driving manual column selection.
	Inspect(ctx context.Context, r io.Reader, filename string) (*model.Inspection, error)
}

type runService struct {
	templates        *template.Registry
	store            storage.Storage
	presignExpiry    time.Duration
	defaultBatchSize int
	metrics          *Metrics
	log              *zap.Logger
	tracer           trace.Tracer
	now              func() time.Time
}

// Option configures optional collaborators of the run service.
type Option func(*runService)

// WithStorage enables publishing finished archives to object storage and
// returning presigned download URLs alongside the archive bytes.
func WithStorage(st storage.Storage, presignExpiry time.Duration) Option {
	return func(s *runService) {
		s.store = st
		s.presignExpiry = presignExpiry
	}
}

// WithMetrics attaches prometheus run metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *runService) { s.metrics = m }
}

// WithDefaultBatchSize overrides the batch size used when a run does not
// specify one.
func WithDefaultBatchSize(n int) Option {
	return func(s *runService) { s.defaultBatchSize = n }
}

// WithClock overrides the timestamp source used for archive names.
func WithClock(now func() time.Time) Option {
	return func(s *runService) { s.now = now }
}

// NewRunService constructs a RunService over the given template registry.
func NewRunService(templates *template.Registry, log *zap.Logger, opts ...Option) RunService {
	s := &runService{
		templates:        templates,
		defaultBatchSize: 100,
		log:              log,
		tracer:           otel.Tracer("linkbatch/service"),
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *runService) Run(ctx context.Context, in RunInput) (result *model.RunResult, err error) {
	started := s.now()

	ctx, span := s.tracer.Start(ctx, "run",
		trace.WithAttributes(attribute.String("platform", string(in.Platform))))
	defer span.End()

	defer func() {
		status := "success"
		links, batches := 0, 0
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.Error("run failed",
				zap.String("platform", string(in.Platform)),
				zap.String("filename", in.Filename),
				zap.Error(err))
		} else {
			links = result.Stats.TotalLinks
			batches = result.Stats.NumBatches
			s.log.Info("run completed",
				zap.String("platform", string(in.Platform)),
				zap.String("archive", result.ArchiveName),
				zap.Int("links", links),
				zap.Int("batches", batches))
		}
		s.metrics.observeRun(string(in.Platform), status, links, batches, s.now().Sub(started).Seconds())
	}()

	if in.Reader == nil {
		return nil, ErrFileRequired
	}
	if _, ok := model.ParsePlatform(string(in.Platform)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, in.Platform)
	}

	size := in.BatchSize
	if size == 0 {
		size = s.defaultBatchSize
	}
	if size < MinBatchSize || size > MaxBatchSize {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidBatchSize, size)
	}

	// Template resolution happens before any parsing work so a missing
	// template aborts the run up front.
	tmpl, sheet, err := s.templates.Resolve(in.Platform)
	if err != nil {
		return nil, err
	}

	links, column, err := s.loadLinks(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, fmt.Errorf("%w in column %q", ErrNoLinks, column)
	}

	spans := batch.Split(len(links), size)
	files, err := s.fillBatches(ctx, in.Platform, tmpl, sheet, links, spans)
	if err != nil {
		return nil, err
	}

	_, archSpan := s.tracer.Start(ctx, "archive")
	data, err := archive.Build(files)
	archSpan.End()
	if err != nil {
		return nil, fmt.Errorf("build archive: %w", err)
	}

	result = &model.RunResult{
		ArchiveName: archive.Name(in.Platform, s.now()),
		Archive:     data,
		Stats: model.RunStats{
			TotalLinks: len(links),
			BatchSize:  size,
			NumBatches: len(spans),
			Column:     column,
		},
	}

	if s.store != nil {
		url, err := s.publish(ctx, result.ArchiveName, data)
		if err != nil {
			return nil, err
		}
		result.DownloadURL = url
	}
	return result, nil
}

// loadLinks parses the input table and extracts the ordered link column.
func (s *runService) loadLinks(ctx context.Context, in RunInput) ([]string, string, error) {
	_, span := s.tracer.Start(ctx, "load")
	defer span.End()

	tbl, err := loader.Load(in.Reader, in.Filename)
	if err != nil {
		return nil, "", err
	}

	column := in.Column
	if column == "" {
		if column, err = tbl.DetectLinkColumn(); err != nil {
			return nil, "", err
		}
	}

	links, err := tbl.Links(column)
	if err != nil {
		return nil, "", err
	}
	return links, column, nil
}

// fillBatches generates one document per span, each from a fresh copy of
// the pristine template. A single failure aborts the whole run.
func (s *runService) fillBatches(ctx context.Context, platform model.Platform, tmpl []byte, sheet string, links []string, spans []batch.Span) ([]model.GeneratedFile, error) {
	_, span := s.tracer.Start(ctx, "fill",
		trace.WithAttributes(attribute.Int("batches", len(spans))))
	defer span.End()

	files := make([]model.GeneratedFile, 0, len(spans))
	for _, sp := range spans {
		data, err := template.Fill(tmpl, sheet, links[sp.Start:sp.End])
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", sp.Index, err)
		}
		files = append(files, model.GeneratedFile{
			Name: archive.DocumentName(platform, sp.Index, sp.First(), sp.Last()),
			Data: data,
		})
	}
	return files, nil
}

// publish uploads the archive to object storage and returns a presigned
// download URL. A presign failure removes the uploaded object so no
// orphaned archive is left behind.
func (s *runService) publish(ctx context.Context, name string, data []byte) (string, error) {
	ctx, span := s.tracer.Start(ctx, "publish")
	defer span.End()

	key := path.Join("archives", uuid.NewString(), name)
	_, err := s.store.Put(ctx, key, bytes.NewReader(data), storage.PutObjectOptions{
		Size:        int64(len(data)),
		ContentType: "application/zip",
	})
	if err != nil {
		return "", fmt.Errorf("publish archive: %w", err)
	}

	url, err := s.store.PresignGet(ctx, key, s.presignExpiry)
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return "", fmt.Errorf("presign failed: %v; cleanup delete failed: %v", err, delErr)
		}
		return "", fmt.Errorf("presign archive: %w", err)
	}
	return url, nil
}

func (s *runService) Inspect(ctx context.Context, r io.Reader, filename string) (*model.Inspection, error) {
	_, span := s.tracer.Start(ctx, "inspect")
	defer span.End()

	if r == nil {
		return nil, ErrFileRequired
	}
	tbl, err := loader.Load(r, filename)
	if err != nil {
		return nil, err
	}

	columns, detected, linkCount := tbl.Inspect()
	return &model.Inspection{
		Columns:        columns,
		DetectedColumn: detected,
		RowCount:       len(tbl.Rows),
		LinkCount:      linkCount,
	}, nil
}
