package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/klytics/sheetsplit/cmd/version"
	"github.com/klytics/sheetsplit/internal/formats/xlsx"
	"github.com/klytics/sheetsplit/internal/logging"
	"github.com/klytics/sheetsplit/internal/split"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// ColumnsResponse lists the selectable columns of an uploaded workbook.
type ColumnsResponse struct {
	Sheet   string   `json:"sheet"`
	Columns []string `json:"columns"`
	Rows    int      `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleColumns decodes an uploaded workbook and returns its column preview.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if data == nil {
		writeError(w, r, http.StatusBadRequest, "no_file", split.ValidationMessage)
		return
	}

	t, cols, err := s.splitter.Load(r.Context(), data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ColumnsResponse{Sheet: t.Sheet, Columns: cols, Rows: len(t.Rows)})
}

// handleSplit splits an uploaded workbook and streams the result back as
// an attachment.
func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	req := split.Request{
		Key:        r.FormValue("key"),
		Columns:    formList(r, "columns"),
		AllColumns: formBool(r, "all_columns"),
	}

	res, out, err := s.splitter.Split(r.Context(), data, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadName))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Header().Set("X-Sheet-Count", strconv.Itoa(len(res.Sheets)))
	w.WriteHeader(http.StatusOK)
	w.Write(out)
}

// readUpload parses the multipart form and returns the "file" part. A
// missing file part is not written as an error here; it reads as nil data
// so the split validation reports it. ok is false once a response was sent.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("upload exceeds %d MB", s.opts.MaxUploadBytes>>20))
			return nil, false
		}
		writeError(w, r, http.StatusBadRequest, "bad_form", "expected a multipart form with a 'file' field")
		return nil, false
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, true
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "bad_form", "could not read the uploaded file")
		return nil, false
	}
	return data, true
}

// respondError maps engine errors onto HTTP statuses and logs them.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	var de *xlsx.DecodeError
	var ve *split.ValidationError
	switch {
	case errors.As(err, &ve):
		status, code = http.StatusBadRequest, "validation"
	case errors.As(err, &de):
		status, code = http.StatusUnprocessableEntity, "decode"
	}

	logging.FromContext(r.Context()).Warn("request failed",
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"error", err.Error(),
	)
	writeError(w, r, status, code, err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// formList reads a repeated form field. A single value is read as a comma
// list; repeated values are taken verbatim so names may contain commas.
func formList(r *http.Request, name string) []string {
	vals := r.Form[name]
	if len(vals) == 1 {
		vals = strings.Split(vals[0], ",")
	}
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func formBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.FormValue(name))
	return b
}
