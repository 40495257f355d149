package media

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"audioarchive/logger"
	"audioarchive/model"
	"audioarchive/storage"
)

// ObjectStore is the slice of the object store the pipelines need.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// MetadataStore is the slice of the metadata repository the pipelines need.
type MetadataStore interface {
	Create(ctx context.Context, f *model.AudioFile) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.AudioFile, error)
	UpdateTitle(ctx context.Context, id int64, title string) error
	Update(ctx context.Context, id int64, title, fileURL string, duration int) error
	Delete(ctx context.Context, id int64) error
}

// DurationProber extracts an audio blob's duration in whole seconds.
type DurationProber interface {
	Extract(ctx context.Context, r io.Reader) (int, error)
}

// Pipeline orchestrates the duration extractor, object store and
// metadata store for upload, replace and delete. Steps run
// sequentially; nothing is retried automatically.
type Pipeline struct {
	store ObjectStore
	meta  MetadataStore
	probe DurationProber
}

// NewPipeline wires a Pipeline.
func NewPipeline(store ObjectStore, meta MetadataStore, probe DurationProber) *Pipeline {
	return &Pipeline{store: store, meta: meta, probe: probe}
}

// UploadInput describes a new candidate file.
type UploadInput struct {
	File        io.ReadSeeker
	Size        int64
	Filename    string
	ContentType string
	Title       string
	UserID      int64
}

// ReplaceInput describes an edit of an existing record. File is nil for
// a title-only edit.
type ReplaceInput struct {
	ID          int64
	UserID      int64
	Title       string
	File        io.ReadSeeker
	Size        int64
	Filename    string
	ContentType string
}

// Upload creates one asset and one record. If the metadata insert fails
// after the asset was stored, the asset is left in place: an orphan the
// operator can list, not a rollback.
func (p *Pipeline) Upload(ctx context.Context, in UploadInput) (*model.AudioFile, error) {
	if in.UserID == 0 {
		return nil, ErrNoIdentity
	}
	if !strings.HasPrefix(in.ContentType, "audio/") {
		return nil, ErrNotAudio
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		// Fall back to the file name without its extension.
		title = strings.TrimSuffix(filepath.Base(in.Filename), filepath.Ext(in.Filename))
	}
	if title == "" {
		return nil, ErrEmptyTitle
	}

	duration, err := p.probe.Extract(ctx, in.File)
	if err != nil {
		return nil, err
	}
	if _, err := in.File.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Err: err}
	}

	key := storage.ObjectKeyForFilename(in.Filename)
	if err := p.store.Put(ctx, key, in.File, in.Size, in.ContentType); err != nil {
		return nil, &StorageWriteError{Key: key, Err: err}
	}

	fileURL := p.store.PublicURL(key)

	rec := &model.AudioFile{
		Title:      title,
		FileURL:    fileURL,
		Duration:   duration,
		UploadedBy: in.UserID,
	}
	id, err := p.meta.Create(ctx, rec)
	if err != nil {
		// The uploaded object is not removed; the minio --orphans
		// command lists such leftovers.
		logger.Warn("metadata insert failed after upload, asset orphaned",
			logger.String("key", key),
			logger.ErrorField(err))
		return nil, &MetadataWriteError{Err: err}
	}
	rec.ID = id

	logger.Info("audio file uploaded",
		logger.Int64("id", id),
		logger.String("key", key),
		logger.Int("duration", duration),
		logger.Int64("userId", in.UserID))
	return rec, nil
}

// Replace renames a record and/or swaps its asset. The new asset is
// always stored and resolvable before the old one is removed, so the
// record never points at a deleted object; the old asset's removal is
// best-effort.
func (p *Pipeline) Replace(ctx context.Context, in ReplaceInput) (*model.AudioFile, error) {
	rec, err := p.meta.GetByID(ctx, in.ID)
	if err != nil {
		return nil, &MetadataReadError{Err: err}
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	if rec.UploadedBy != in.UserID {
		return nil, ErrNotOwner
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	// Case A: no new asset. Touch only the title; zero storage
	// operations even when the title is unchanged.
	if in.File == nil {
		if err := p.meta.UpdateTitle(ctx, in.ID, title); err != nil {
			return nil, &MetadataWriteError{Err: err}
		}
		rec.Title = title
		return rec, nil
	}

	// Case B: new asset supplied.
	if !strings.HasPrefix(in.ContentType, "audio/") {
		return nil, ErrNotAudio
	}

	duration, err := p.probe.Extract(ctx, in.File)
	if err != nil {
		return nil, err
	}
	if _, err := in.File.Seek(0, io.SeekStart); err != nil {
		return nil, &DecodeError{Err: err}
	}

	newKey := storage.ObjectKeyForFilename(in.Filename)
	if err := p.store.Put(ctx, newKey, in.File, in.Size, in.ContentType); err != nil {
		return nil, &StorageWriteError{Key: newKey, Err: err}
	}
	newURL := p.store.PublicURL(newKey)

	// Remove the superseded asset only now that the new one is durable.
	// A failure here is an accepted storage leak, never a user-facing
	// error: losing the fresh upload would be worse.
	if oldKey, kerr := storage.KeyFromURL(rec.FileURL); kerr != nil {
		logger.Warn("could not derive old asset key, skipping delete",
			logger.Int64("id", in.ID),
			logger.String("fileUrl", rec.FileURL),
			logger.ErrorField(kerr))
	} else if derr := p.store.Remove(ctx, oldKey); derr != nil {
		logger.Warn("failed to delete superseded asset, leaving orphan",
			logger.Int64("id", in.ID),
			logger.String("key", oldKey),
			logger.ErrorField(derr))
	}

	if err := p.meta.Update(ctx, in.ID, title, newURL, duration); err != nil {
		return nil, &MetadataWriteError{Err: err}
	}

	rec.Title = title
	rec.FileURL = newURL
	rec.Duration = duration

	logger.Info("audio file replaced",
		logger.Int64("id", in.ID),
		logger.String("key", newKey),
		logger.Int("duration", duration))
	return rec, nil
}

// Delete removes a record's asset and then the record itself. If the
// asset cannot be removed the flow aborts and the metadata stays
// intact, so a surviving record never points at nothing.
func (p *Pipeline) Delete(ctx context.Context, id, userID int64) error {
	rec, err := p.meta.GetByID(ctx, id)
	if err != nil {
		return &MetadataReadError{Err: err}
	}
	if rec == nil {
		return ErrNotFound
	}
	if rec.UploadedBy != userID {
		return ErrNotOwner
	}

	key, err := storage.KeyFromURL(rec.FileURL)
	if err != nil {
		return &StorageDeleteError{Key: rec.FileURL, Err: err}
	}
	if err := p.store.Remove(ctx, key); err != nil {
		return &StorageDeleteError{Key: key, Err: err}
	}

	if err := p.meta.Delete(ctx, id); err != nil {
		// The asset is already gone; the record now points at nothing.
		// An accepted residue of this ordering, not silently repaired.
		logger.Error("metadata delete failed after asset removal",
			logger.Int64("id", id),
			logger.String("key", key),
			logger.ErrorField(err))
		return &MetadataWriteError{Err: err}
	}

	logger.Info("audio file deleted",
		logger.Int64("id", id),
		logger.String("key", key),
		logger.Int64("userId", userID))
	return nil
}
