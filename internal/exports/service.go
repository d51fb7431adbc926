package exports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"agency_crm_backend/internal/adapters/storage"
	"agency_crm_backend/internal/events"
	"agency_crm_backend/internal/leads/domain"
	"agency_crm_backend/platform/apperr"
)

const csvContentType = "text/csv; charset=utf-8"

// RosterReader loads the stored roster.
type RosterReader interface {
	ListAll(ctx context.Context) ([]domain.Lead, error)
}

// ObjectStore is the part of object storage the archive needs.
type ObjectStore interface {
	EnsureBucketExists(ctx context.Context, bucket string) error
	PutObject(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error
	ListObjects(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error)
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*storage.PresignedURL, error)
}

// Options configures a Service.
type Options struct {
	FilePrefix string
	Location   *time.Location
	Bucket     string
}

// ArchiveResult describes a stored backup.
type ArchiveResult struct {
	ObjectKey string `json:"objectKey"`
	Rows      int    `json:"rows"`
	Bytes     int64  `json:"bytes"`
}

// Service renders roster backups and archives them in object storage.
type Service struct {
	roster RosterReader
	store  ObjectStore
	bus    events.Bus
	opts   Options
	now    func() time.Time
}

// NewService creates a Service. store may be nil, which disables archiving.
func NewService(roster RosterReader, store ObjectStore, bus events.Bus, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{roster: roster, store: store, bus: bus, opts: opts, now: time.Now}
}

// SetClock overrides the time source used for filenames.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Location returns the calendar location used for dates.
func (s *Service) Location() *time.Location { return s.opts.Location }

// WriteBackup writes the filtered roster as backup CSV to w and returns the
// suggested filename and row count.
func (s *Service) WriteBackup(ctx context.Context, w io.Writer, predicate Predicate) (string, int, error) {
	leads, err := s.roster.ListAll(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("load roster: %w", err)
	}

	columns := BackupColumns(s.opts.Location)
	rows, err := Export(leads, predicate, columns)
	if err != nil {
		return "", 0, err
	}
	if err := WriteCSV(w, columns, rows); err != nil {
		return "", 0, err
	}
	return Filename(s.opts.FilePrefix, s.now(), s.opts.Location), len(rows), nil
}

// Archive stores a full-roster backup under its dated filename. Running it
// twice on the same day overwrites that day's object.
func (s *Service) Archive(ctx context.Context) (ArchiveResult, error) {
	if s.store == nil {
		return ArchiveResult{}, apperr.Unavailable("object storage is not configured").WithOp("exports.Archive")
	}

	var buf bytes.Buffer
	key, rows, err := s.WriteBackup(ctx, &buf, All)
	if err != nil {
		return ArchiveResult{}, err
	}

	size := int64(buf.Len())
	if err := s.store.EnsureBucketExists(ctx, s.opts.Bucket); err != nil {
		return ArchiveResult{}, fmt.Errorf("ensure backup bucket: %w", err)
	}
	if err := s.store.PutObject(ctx, s.opts.Bucket, key, csvContentType, &buf, size); err != nil {
		return ArchiveResult{}, fmt.Errorf("store backup: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadBackupArchived{
			BaseEvent: events.NewBaseEvent(s.now()),
			ObjectKey: key,
			Rows:      rows,
		})
	}
	return ArchiveResult{ObjectKey: key, Rows: rows, Bytes: size}, nil
}

// ListArchives returns stored backups, newest first.
func (s *Service) ListArchives(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.store == nil {
		return nil, apperr.Unavailable("object storage is not configured").WithOp("exports.ListArchives")
	}
	return s.store.ListObjects(ctx, s.opts.Bucket, s.archivePrefix())
}

// ArchiveDownloadURL presigns a download of a stored backup.
func (s *Service) ArchiveDownloadURL(ctx context.Context, key string) (*storage.PresignedURL, error) {
	if s.store == nil {
		return nil, apperr.Unavailable("object storage is not configured").WithOp("exports.ArchiveDownloadURL")
	}
	if key == "" || !strings.HasPrefix(key, s.archivePrefix()) {
		return nil, apperr.Validation("unknown archive key")
	}
	return s.store.GenerateDownloadURL(ctx, s.opts.Bucket, key)
}

func (s *Service) archivePrefix() string {
	prefix := strings.TrimSpace(s.opts.FilePrefix)
	if prefix == "" {
		prefix = "leads_backup"
	}
	return prefix + "_"
}
