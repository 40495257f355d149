package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"audioarchive/model"
	"audioarchive/storage"
)

// fakeObjectStore keeps uploaded objects in memory and records the
// order of storage calls.
type fakeObjectStore struct {
	objects map[string][]byte
	putErr  error
	delErr  error
	puts    []string
	removes []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.puts = append(s.puts, key)
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeObjectStore) Remove(ctx context.Context, key string) error {
	s.removes = append(s.removes, key)
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeObjectStore) PublicURL(key string) string {
	return "http://store.test/audio/" + key
}

// fakeMetadataStore is an in-memory MetadataStore.
type fakeMetadataStore struct {
	records   map[int64]*model.AudioFile
	nextID    int64
	createErr error
	getErr    error
	updateErr error
	deleteErr error

	titleUpdates int
	fullUpdates  int
	deletes      int
}

func newFakeMetadataStore() *fakeMetadataStore {
	return &fakeMetadataStore{records: make(map[int64]*model.AudioFile), nextID: 1}
}

func (m *fakeMetadataStore) Create(ctx context.Context, f *model.AudioFile) (int64, error) {
	if m.createErr != nil {
		return 0, m.createErr
	}
	id := m.nextID
	m.nextID++
	cp := *f
	cp.ID = id
	m.records[id] = &cp
	return id, nil
}

func (m *fakeMetadataStore) GetByID(ctx context.Context, id int64) (*model.AudioFile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (m *fakeMetadataStore) UpdateTitle(ctx context.Context, id int64, title string) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.titleUpdates++
	m.records[id].Title = title
	return nil
}

func (m *fakeMetadataStore) Update(ctx context.Context, id int64, title, fileURL string, duration int) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.fullUpdates++
	rec := m.records[id]
	rec.Title = title
	rec.FileURL = fileURL
	rec.Duration = duration
	return nil
}

func (m *fakeMetadataStore) Delete(ctx context.Context, id int64) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes++
	delete(m.records, id)
	return nil
}

// fakeProber returns a fixed duration without touching ffprobe.
type fakeProber struct {
	duration int
	err      error
	calls    int
}

func (p *fakeProber) Extract(ctx context.Context, r io.Reader) (int, error) {
	p.calls++
	if p.err != nil {
		return 0, p.err
	}
	return p.duration, nil
}

func newTestPipeline(store *fakeObjectStore, meta *fakeMetadataStore, probe *fakeProber) *Pipeline {
	return NewPipeline(store, meta, probe)
}

func uploadInput(filename, title string) UploadInput {
	return UploadInput{
		File:        bytes.NewReader([]byte("fake audio bytes")),
		Size:        16,
		Filename:    filename,
		ContentType: "audio/mpeg",
		Title:       title,
		UserID:      7,
	}
}

func TestUploadFillsTitleFromFilename(t *testing.T) {
	store := newFakeObjectStore()
	meta := newFakeMetadataStore()
	probe := &fakeProber{duration: 125}
	p := newTestPipeline(store, meta, probe)

	rec, err := p.Upload(context.Background(), uploadInput("song.mp3", "   "))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Title != "song" {
		t.Errorf("title = %q, want %q", rec.Title, "song")
	}
	if rec.Duration != 125 {
		t.Errorf("duration = %d, want 125", rec.Duration)
	}
	if rec.UploadedBy != 7 {
		t.Errorf("uploadedBy = %d, want 7", rec.UploadedBy)
	}
	if rec.FileURL != "http://store.test/audio/song.mp3" {
		t.Errorf("fileUrl = %q", rec.FileURL)
	}
	if _, ok := store.objects["song.mp3"]; !ok {
		t.Error("object was not stored under song.mp3")
	}
	if _, ok := meta.records[rec.ID]; !ok {
		t.Error("metadata record was not created")
	}
}

func TestUploadKeepsExplicitTitle(t *testing.T) {
	store := newFakeObjectStore()
	meta := newFakeMetadataStore()
	p := newTestPipeline(store, meta, &fakeProber{duration: 30})

	rec, err := p.Upload(context.Background(), uploadInput("track01.wav", "  Morning Session  "))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if rec.Title != "Morning Session" {
		t.Errorf("title = %q, want trimmed explicit title", rec.Title)
	}
}

func TestUploadRejectsNonAudio(t *testing.T) {
	p := newTestPipeline(newFakeObjectStore(), newFakeMetadataStore(), &fakeProber{duration: 10})

	in := uploadInput("notes.pdf", "Notes")
	in.ContentType = "application/pdf"
	if _, err := p.Upload(context.Background(), in); !errors.Is(err, ErrNotAudio) {
		t.Fatalf("err = %v, want ErrNotAudio", err)
	}
}

func TestUploadRequiresIdentity(t *testing.T) {
	p := newTestPipeline(newFakeObjectStore(), newFakeMetadataStore(), &fakeProber{duration: 10})

	in := uploadInput("song.mp3", "Song")
	in.UserID = 0
	if _, err := p.Upload(context.Background(), in); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("err = %v, want ErrNoIdentity", err)
	}
}

func TestUploadProbeFailureSkipsStorage(t *testing.T) {
	store := newFakeObjectStore()
	probeErr := &DecodeError{Err: errors.New("unreadable")}
	p := newTestPipeline(store, newFakeMetadataStore(), &fakeProber{err: probeErr})

	_, err := p.Upload(context.Background(), uploadInput("bad.mp3", "Bad"))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DecodeError", err)
	}
	if len(store.puts) != 0 {
		t.Errorf("storage Put was called %d times for an undecodable file", len(store.puts))
	}
}

func TestUploadStorageFailureSkipsMetadata(t *testing.T) {
	store := newFakeObjectStore()
	store.putErr = storage.ErrObjectExists
	meta := newFakeMetadataStore()
	p := newTestPipeline(store, meta, &fakeProber{duration: 10})

	_, err := p.Upload(context.Background(), uploadInput("song.mp3", "Song"))
	var we *StorageWriteError
	if !errors.As(err, &we) {
		t.Fatalf("err = %v, want StorageWriteError", err)
	}
	if !errors.Is(err, storage.ErrObjectExists) {
		t.Errorf("err chain does not include ErrObjectExists: %v", err)
	}
	if len(meta.records) != 0 {
		t.Error("metadata record was created despite the storage failure")
	}
}

func TestUploadMetadataFailureLeavesOrphan(t *testing.T) {
	store := newFakeObjectStore()
	meta := newFakeMetadataStore()
	meta.createErr = errors.New("insert failed")
	p := newTestPipeline(store, meta, &fakeProber{duration: 10})

	_, err := p.Upload(context.Background(), uploadInput("song.mp3", "Song"))
	var me *MetadataWriteError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MetadataWriteError", err)
	}
	// No rollback: the stored object stays behind as an orphan.
	if _, ok := store.objects["song.mp3"]; !ok {
		t.Error("uploaded object was removed after the metadata failure")
	}
	if len(store.removes) != 0 {
		t.Errorf("storage Remove was called %d times", len(store.removes))
	}
}

func seedRecord(meta *fakeMetadataStore, owner int64) int64 {
	id, _ := meta.Create(context.Background(), &model.AudioFile{
		Title:      "Original",
		FileURL:    "http://store.test/audio/original.mp3",
		Duration:   60,
		UploadedBy: owner,
	})
	return id
}

func TestReplaceTitleOnlyTouchesNoStorage(t *testing.T) {
	store := newFakeObjectStore()
	meta := newFakeMetadataStore()
	id := seedRecord(meta, 7)
	p := newTestPipeline(store, meta, &fakeProber{duration: 10})

	rec, err := p.Replace(context.Background(), ReplaceInput{ID: id, UserID: 7, Title: "Renamed"})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if rec.Title != "Renamed" {
		t.Errorf("title = %q, want %q", rec.Title, "Renamed")
	}
	if rec.FileURL != "http://store.test/audio/original.mp3" {
		t.Errorf("fileUrl changed on a title-only edit: %q", rec.FileURL)
	}
	if len(store.puts) != 0 || len(store.removes) != 0 {
		t.Errorf("storage touched on a title-only edit: puts=%d removes=%d", len(store.puts), len(store.removes))
	}
	if meta.titleUpdates != 1 || meta.fullUpdates != 0 {
		t.Errorf("titleUpdates=%d fullUpdates=%d, want 1/0", meta.titleUpdates, meta.fullUpdates)
	}
}

func TestReplaceWithFileSwapsAsset(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["original.mp3"] = []byte("old")
	meta := newFakeMetadataStore()
	id := seedRecord(meta, 7)
	p := newTestPipeline(store, meta, &fakeProber{duration: 200})

	rec, err := p.Replace(context.Background(), ReplaceInput{
		ID:          id,
		UserID:      7,
		Title:       "Renamed",
		File:        bytes.NewReader([]byte("new audio")),
		Size:        9,
		Filename:    "new.mp3",
		ContentType: "audio/mpeg",
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if rec.FileURL != "http://store.test/audio/new.mp3" {
		t.Errorf("fileUrl = %q", rec.FileURL)
	}
	if rec.Duration != 200 {
		t.Errorf("duration = %d, want 200", rec.Duration)
	}
	if _, ok := store.objects["original.mp3"]; ok {
		t.Error("superseded asset was not removed")
	}
	if got := meta.records[id].FileURL; got != rec.FileURL {
		t.Errorf("stored fileUrl = %q, want %q", got, rec.FileURL)
	}
	if meta.fullUpdates != 1 {
		t.Errorf("fullUpdates = %d, want 1", meta.fullUpdates)
	}
}

func TestReplaceOldDeleteFailureIsNotFatal(t *testing.T) {
	store := newFakeObjectStore()
	store.delErr = errors.New("remove failed")
	meta := newFakeMetadataStore()
	id := seedRecord(meta, 7)
	p := newTestPipeline(store, meta, &fakeProber{duration: 200})

	rec, err := p.Replace(context.Background(), ReplaceInput{
		ID:          id,
		UserID:      7,
		Title:       "Renamed",
		File:        bytes.NewReader([]byte("new audio")),
		Size:        9,
		Filename:    "new.mp3",
		ContentType: "audio/mpeg",
	})
	if err != nil {
		t.Fatalf("Replace returned an error for a best-effort delete failure: %v", err)
	}
	// The record must already point at the new, durable asset.
	if rec.FileURL != "http://store.test/audio/new.mp3" {
		t.Errorf("fileUrl = %q", rec.FileURL)
	}
	if meta.fullUpdates != 1 {
		t.Errorf("fullUpdates = %d, want 1", meta.fullUpdates)
	}
}

func TestReplaceRejectsNonOwner(t *testing.T) {
	meta := newFakeMetadataStore()
	id := seedRecord(meta, 7)
	p := newTestPipeline(newFakeObjectStore(), meta, &fakeProber{duration: 10})

	_, err := p.Replace(context.Background(), ReplaceInput{ID: id, UserID: 8, Title: "Stolen"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

func TestReplaceMissingRecord(t *testing.T) {
	p := newTestPipeline(newFakeObjectStore(), newFakeMetadataStore(), &fakeProber{duration: 10})

	_, err := p.Replace(context.Background(), ReplaceInput{ID: 99, UserID: 7, Title: "Ghost"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReplaceRejectsEmptyTitle(t *testing.T) {
	meta := newFakeMetadataStore()
	id := seedRecord(meta, 7)
	p := newTestPipeline(newFakeObjectStore(), meta, &fakeProber{duration: 10})

	_, err := p.Replace(context.Background(), ReplaceInput{ID: id, UserID: 7, Title: "   "})
	if !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("err = %v, want ErrEmptyTitle", err)
	}
}

func TestDeleteRemovesAssetThenRecord(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["original.mp3"] = []byte("old")
	meta := newFakeMetadataStore()
	id := seedRecord(meta, 7)
	p := newTestPipeline(store, meta, &fakeProber{duration: 10})

	if err := p.Delete(context.Background(), id, 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := store.objects["original.mp3"]; ok {
		t.Error("asset still in store after delete")
	}
	if _, ok := meta.records[id]; ok {
		t.Error("metadata record still present after delete")
	}
}

func TestDeleteAbortsWhenAssetRemovalFails(t *testing.T) {
	store := newFakeObjectStore()
	store.delErr = errors.New("remove failed")
	meta := newFakeMetadataStore()
	id := seedRecord(meta, 7)
	p := newTestPipeline(store, meta, &fakeProber{duration: 10})

	err := p.Delete(context.Background(), id, 7)
	var de *StorageDeleteError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want StorageDeleteError", err)
	}
	// The flow aborts before the metadata delete: the record survives.
	if _, ok := meta.records[id]; !ok {
		t.Error("metadata record was deleted despite the storage failure")
	}
	if meta.deletes != 0 {
		t.Errorf("metadata Delete was called %d times", meta.deletes)
	}
}

func TestDeleteRejectsNonOwner(t *testing.T) {
	meta := newFakeMetadataStore()
	id := seedRecord(meta, 7)
	p := newTestPipeline(newFakeObjectStore(), meta, &fakeProber{duration: 10})

	if err := p.Delete(context.Background(), id, 8); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	p := newTestPipeline(newFakeObjectStore(), newFakeMetadataStore(), &fakeProber{duration: 10})

	if err := p.Delete(context.Background(), 99, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
