package server

import (
	"net/http"
	"strconv"

	"audioarchive/core/media"
	"audioarchive/logger"
	"audioarchive/model"

	"github.com/gorilla/mux"
)

// ListResponse is one page of the catalog.
type ListResponse struct {
	Items      []*model.AudioFile `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"pageSize"`
	TotalPages int                `json:"totalPages"`
}

// ListAudioHandler returns one page of records, newest first. Every
// request hits the store; nothing is cached across pages.
func (h *APIHandler) ListAudioHandler(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p >= 1 {
			page = p
		}
	}

	pageSize := h.cfg.DefaultPageSize
	if v := r.URL.Query().Get("pageSize"); v != "" {
		if s, err := strconv.Atoi(v); err == nil && h.cfg.AllowedPageSize(s) {
			pageSize = s
		}
	}

	offset := (page - 1) * pageSize
	files, total, err := h.audioRepo.ListPage(r.Context(), offset, pageSize)
	if err != nil {
		logger.Error("failed to list audio files",
			logger.Int("page", page),
			logger.Int("pageSize", pageSize),
			logger.ErrorField(err))
		http.Error(w, "Failed to load audio files", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{
		Items:      files,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	})
}

// GetAudioHandler returns a single record.
func (h *APIHandler) GetAudioHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid audio file ID", http.StatusBadRequest)
		return
	}

	file, err := h.audioRepo.GetByID(r.Context(), id)
	if err != nil {
		logger.Error("failed to get audio file",
			logger.Int64("id", id),
			logger.ErrorField(err))
		http.Error(w, "Failed to load audio file", http.StatusInternalServerError)
		return
	}
	if file == nil {
		http.Error(w, "Audio file not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, file)
}

// UploadAudioHandler runs the upload pipeline for a multipart form with
// fields "file" and optional "title".
func (h *APIHandler) UploadAudioHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if r.ContentLength > h.cfg.MaxUploadBytes {
		http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Error("failed to parse upload form", logger.ErrorField(err))
		http.Error(w, "Failed to parse upload form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			http.Error(w, "Missing audio file. Please select a file to upload.", http.StatusBadRequest)
		} else {
			http.Error(w, "Failed to process uploaded file", http.StatusBadRequest)
		}
		return
	}
	defer file.Close()

	rec, err := h.pipeline.Upload(r.Context(), media.UploadInput{
		File:        file,
		Size:        header.Size,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Title:       r.FormValue("title"),
		UserID:      userID,
	})
	if err != nil {
		logger.Error("upload pipeline failed",
			logger.String("filename", header.Filename),
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// UpdateAudioHandler runs the replace pipeline: title edit plus an
// optional new asset in the multipart field "file".
func (h *APIHandler) UpdateAudioHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid audio file ID", http.StatusBadRequest)
		return
	}

	if r.ContentLength > h.cfg.MaxUploadBytes {
		http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		logger.Error("failed to parse edit form", logger.ErrorField(err))
		http.Error(w, "Failed to parse edit form", http.StatusBadRequest)
		return
	}

	in := media.ReplaceInput{
		ID:     id,
		UserID: userID,
		Title:  r.FormValue("title"),
	}

	file, header, err := r.FormFile("file")
	switch err {
	case nil:
		defer file.Close()
		in.File = file
		in.Size = header.Size
		in.Filename = header.Filename
		in.ContentType = header.Header.Get("Content-Type")
	case http.ErrMissingFile:
		// title-only edit
	default:
		http.Error(w, "Failed to process uploaded file", http.StatusBadRequest)
		return
	}

	rec, err := h.pipeline.Replace(r.Context(), in)
	if err != nil {
		logger.Error("replace pipeline failed",
			logger.Int64("id", id),
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// DeleteAudioHandler removes the asset and then the record, owner only.
func (h *APIHandler) DeleteAudioHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid audio file ID", http.StatusBadRequest)
		return
	}

	if err := h.pipeline.Delete(r.Context(), id, userID); err != nil {
		logger.Error("delete flow failed",
			logger.Int64("id", id),
			logger.Int64("userId", userID),
			logger.ErrorField(err))
		writePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Audio file deleted successfully",
	})
}
