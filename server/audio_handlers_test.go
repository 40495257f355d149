package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"audioarchive/config"
	"audioarchive/model"

	"github.com/gorilla/mux"
)

// fakeAudioRepo serves a fixed catalog, newest first.
type fakeAudioRepo struct {
	files []*model.AudioFile

	lastOffset int
	lastLimit  int
}

func (r *fakeAudioRepo) Create(ctx context.Context, f *model.AudioFile) (int64, error) {
	return 0, nil
}

func (r *fakeAudioRepo) GetByID(ctx context.Context, id int64) (*model.AudioFile, error) {
	for _, f := range r.files {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, nil
}

func (r *fakeAudioRepo) ListPage(ctx context.Context, offset, limit int) ([]*model.AudioFile, int64, error) {
	r.lastOffset = offset
	r.lastLimit = limit

	total := int64(len(r.files))
	if offset >= len(r.files) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(r.files) {
		end = len(r.files)
	}
	return r.files[offset:end], total, nil
}

func (r *fakeAudioRepo) UpdateTitle(ctx context.Context, id int64, title string) error { return nil }

func (r *fakeAudioRepo) Update(ctx context.Context, id int64, title, fileURL string, duration int) error {
	return nil
}

func (r *fakeAudioRepo) Delete(ctx context.Context, id int64) error { return nil }

func catalog(n int) []*model.AudioFile {
	files := make([]*model.AudioFile, n)
	for i := range files {
		files[i] = &model.AudioFile{ID: int64(n - i), Title: "Track", UploadedBy: 7}
	}
	return files
}

func listHandler(repo *fakeAudioRepo) *APIHandler {
	cfg := &config.Config{
		DefaultPageSize: 10,
		PageSizeChoices: []int{5, 10, 15, 20, 25},
	}
	return NewAPIHandler(repo, nil, nil, nil, cfg)
}

func doList(t *testing.T, h *APIHandler, url string) ListResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	h.ListAudioHandler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
	}
	var resp ListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestListDefaultsToFirstPage(t *testing.T) {
	repo := &fakeAudioRepo{files: catalog(23)}
	resp := doList(t, listHandler(repo), "/api/audio")

	if resp.Page != 1 || resp.PageSize != 10 {
		t.Errorf("page=%d pageSize=%d, want 1/10", resp.Page, resp.PageSize)
	}
	if resp.Total != 23 || resp.TotalPages != 3 {
		t.Errorf("total=%d totalPages=%d, want 23/3", resp.Total, resp.TotalPages)
	}
	if len(resp.Items) != 10 {
		t.Errorf("items = %d, want 10", len(resp.Items))
	}
	if repo.lastOffset != 0 || repo.lastLimit != 10 {
		t.Errorf("offset=%d limit=%d, want 0/10", repo.lastOffset, repo.lastLimit)
	}
}

func TestListLastPartialPage(t *testing.T) {
	repo := &fakeAudioRepo{files: catalog(23)}
	resp := doList(t, listHandler(repo), "/api/audio?page=3&pageSize=10")

	if len(resp.Items) != 3 {
		t.Errorf("items = %d, want 3 on the last page", len(resp.Items))
	}
	if repo.lastOffset != 20 {
		t.Errorf("offset = %d, want 20", repo.lastOffset)
	}
}

func TestListHonorsPageSizeChoice(t *testing.T) {
	repo := &fakeAudioRepo{files: catalog(23)}
	resp := doList(t, listHandler(repo), "/api/audio?pageSize=5")

	if resp.PageSize != 5 || resp.TotalPages != 5 {
		t.Errorf("pageSize=%d totalPages=%d, want 5/5", resp.PageSize, resp.TotalPages)
	}
}

func TestListIgnoresUnsupportedPageSize(t *testing.T) {
	repo := &fakeAudioRepo{files: catalog(23)}
	resp := doList(t, listHandler(repo), "/api/audio?pageSize=7")

	if resp.PageSize != 10 {
		t.Errorf("pageSize = %d, want the default 10", resp.PageSize)
	}
}

func TestListPageBeyondEndIsEmpty(t *testing.T) {
	repo := &fakeAudioRepo{files: catalog(23)}
	resp := doList(t, listHandler(repo), "/api/audio?page=9")

	if len(resp.Items) != 0 {
		t.Errorf("items = %d, want 0", len(resp.Items))
	}
	if resp.Total != 23 || resp.TotalPages != 3 {
		t.Errorf("total=%d totalPages=%d, want 23/3", resp.Total, resp.TotalPages)
	}
}

func TestGetAudioHandlerNotFound(t *testing.T) {
	h := listHandler(&fakeAudioRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/audio/99", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "99"})
	w := httptest.NewRecorder()
	h.GetAudioHandler(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetAudioHandlerBadID(t *testing.T) {
	h := listHandler(&fakeAudioRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/audio/abc", nil)
	req = mux.SetURLVars(req, map[string]string{"id": "abc"})
	w := httptest.NewRecorder()
	h.GetAudioHandler(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
