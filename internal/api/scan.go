package api

import (
	"io"
	"net/http"
)

const maxScanBytes = 10 << 20 // 10 MB

// ScanStool handles POST /api/scan (multipart/form-data, field "file").
func (h *Handler) ScanStool(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxScanBytes)

	if err := r.ParseMultipartForm(maxScanBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	res, err := h.svc.ScanStool(r.Context(), data, mimeType)
	if err != nil {
		writeError(w, "scan stool", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
