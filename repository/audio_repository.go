package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"audioarchive/db"
	"audioarchive/model"
)

// AudioFileRepository defines the interface for audio file metadata
// operations.
type AudioFileRepository interface {
	Create(ctx context.Context, f *model.AudioFile) (int64, error)
	GetByID(ctx context.Context, id int64) (*model.AudioFile, error)
	ListPage(ctx context.Context, offset, limit int) ([]*model.AudioFile, int64, error)
	UpdateTitle(ctx context.Context, id int64, title string) error
	Update(ctx context.Context, id int64, title, fileURL string, duration int) error
	Delete(ctx context.Context, id int64) error
}

// mysqlAudioFileRepository implements AudioFileRepository for MySQL.
type mysqlAudioFileRepository struct {
	DB *sql.DB
}

// NewMySQLAudioFileRepository creates a new instance of mysqlAudioFileRepository.
func NewMySQLAudioFileRepository() AudioFileRepository {
	return &mysqlAudioFileRepository{DB: db.DB}
}

// Create inserts a new audio file record and returns its id.
func (r *mysqlAudioFileRepository) Create(ctx context.Context, f *model.AudioFile) (int64, error) {
	query := `INSERT INTO audio_files (title, file_url, duration, uploaded_by, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for Create: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.ExecContext(ctx, f.Title, f.FileURL, f.Duration, f.UploadedBy, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute Create: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for Create: %w", err)
	}
	return id, nil
}

// GetByID retrieves an audio file by its ID. Returns (nil, nil) when no
// record exists.
func (r *mysqlAudioFileRepository) GetByID(ctx context.Context, id int64) (*model.AudioFile, error) {
	query := `SELECT id, title, file_url, duration, uploaded_by, created_at, updated_at
	           FROM audio_files WHERE id = ?`
	row := r.DB.QueryRowContext(ctx, query, id)

	f := &model.AudioFile{}
	err := row.Scan(&f.ID, &f.Title, &f.FileURL, &f.Duration, &f.UploadedBy, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, fmt.Errorf("failed to scan audio file by ID %d: %w", id, err)
	}
	return f, nil
}

// ListPage retrieves one page of records ordered by creation time
// descending, plus the total matching count from the same query via a
// window COUNT.
func (r *mysqlAudioFileRepository) ListPage(ctx context.Context, offset, limit int) ([]*model.AudioFile, int64, error) {
	query := `SELECT id, title, file_url, duration, uploaded_by, created_at, updated_at, COUNT(*) OVER() AS total
	           FROM audio_files ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query audio files page: %w", err)
	}
	defer rows.Close()

	var total int64
	files := make([]*model.AudioFile, 0)
	for rows.Next() {
		f := &model.AudioFile{}
		err := rows.Scan(&f.ID, &f.Title, &f.FileURL, &f.Duration, &f.UploadedBy, &f.CreatedAt, &f.UpdatedAt, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan audio file in ListPage: %w", err)
		}
		files = append(files, f)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during rows iteration in ListPage: %w", err)
	}

	// A page past the end has no rows to carry the window count.
	if len(files) == 0 {
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM audio_files").Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("failed to count audio files: %w", err)
		}
	}

	return files, total, nil
}

// UpdateTitle updates only the title of a record.
func (r *mysqlAudioFileRepository) UpdateTitle(ctx context.Context, id int64, title string) error {
	query := `UPDATE audio_files SET title = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.DB.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateTitle: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, title, time.Now(), id); err != nil {
		return fmt.Errorf("failed to execute UpdateTitle for ID %d: %w", id, err)
	}
	return nil
}

// Update writes title, file_url and duration in a single statement.
// file_url and duration always change together.
func (r *mysqlAudioFileRepository) Update(ctx context.Context, id int64, title, fileURL string, duration int) error {
	query := `UPDATE audio_files SET title = ?, file_url = ?, duration = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.DB.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Update: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, title, fileURL, duration, time.Now(), id); err != nil {
		return fmt.Errorf("failed to execute Update for ID %d: %w", id, err)
	}
	return nil
}

// Delete removes a record.
func (r *mysqlAudioFileRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM audio_files WHERE id = ?`
	stmt, err := r.DB.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Delete: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, id); err != nil {
		return fmt.Errorf("failed to execute Delete for ID %d: %w", id, err)
	}
	return nil
}
