package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/JonMunkholm/cuetext/internal/core"
	"github.com/JonMunkholm/cuetext/internal/jobs"
	"github.com/JonMunkholm/cuetext/internal/logging"
	"github.com/JonMunkholm/cuetext/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// fileFields are the accepted upload field names, in order of preference.
// Each form on the page posts its own name; "file" is the legacy name.
var fileFields = []string{"file_voetbal", "file_overig", "file"}

// maxMemory is how much of a multipart form is buffered in memory.
const maxMemory = 8 << 20

// ProcessResponse is the JSON answer of POST /process.
type ProcessResponse struct {
	JobID     string               `json:"job_id"`
	Pipeline  string               `json:"pipeline"`
	Backend   string               `json:"backend"`
	Preview   string               `json:"preview"`
	Truncated bool                 `json:"truncated"`
	Files     []templates.FileLink `json:"files"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Index(templates.IndexData{Forms: templates.DefaultForms}).Render(r.Context(), w)
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header := formFile(r)
	if file == nil {
		respondError(w, r, core.ErrNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx := withRequestMetadata(r.Context(), r)
	out, err := s.service.Process(ctx, core.Request{
		Pipeline: r.FormValue("pipeline"),
		FileName: header.Filename,
		File:     file,
		Options:  formOptions(r),
	})
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	preview, truncated := truncate(out.Result.TextOutput, s.cfg.Convert.PreviewLimit)
	files := downloadLinks(out.JobID, out.Result.Attachments)

	if wantsJSON(r) {
		writeJSON(w, ProcessResponse{
			JobID:     out.JobID,
			Pipeline:  out.Pipeline,
			Backend:   out.Backend,
			Preview:   preview,
			Truncated: truncated,
			Files:     files,
		})
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Index(templates.IndexData{
		Forms: templates.DefaultForms,
		Result: &templates.ResultView{
			JobID:     out.JobID,
			Pipeline:  out.Pipeline,
			Preview:   preview,
			Truncated: truncated,
			Files:     files,
		},
	}).Render(r.Context(), w)
}

// formFile returns the first uploaded file among fileFields.
func formFile(r *http.Request) (multipart.File, *multipart.FileHeader) {
	for _, field := range fileFields {
		f, h, err := r.FormFile(field)
		if err == nil {
			return f, h
		}
	}
	return nil, nil
}

// formOptions collects competition, match_date and the keys of the
// extra_options JSON object. Invalid extra_options are ignored.
func formOptions(r *http.Request) core.Options {
	opts := core.Options{}
	for _, key := range []string{"competition", "match_date"} {
		if v := r.FormValue(key); v != "" {
			opts[key] = v
		}
	}

	if raw := r.FormValue("extra_options"); raw != "" {
		var extra map[string]any
		if err := json.Unmarshal([]byte(raw), &extra); err != nil {
			logging.FromContext(r.Context()).Debug("ignoring invalid extra_options", "error", err)
		} else {
			for k, v := range extra {
				opts[k] = v
			}
		}
	}
	return opts
}

// truncate cuts s to at most limit characters. A non-positive limit keeps s.
func truncate(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i], true
		}
		n++
	}
	return s, false
}

func downloadLinks(jobID string, attachments []core.Attachment) []templates.FileLink {
	links := make([]templates.FileLink, 0, len(attachments))
	for _, a := range attachments {
		name := filepath.Base(a.Path)
		if a.Name == "" {
			a.Name = name
		}
		links = append(links, templates.FileLink{
			Name: a.Name,
			URL:  "/download/" + url.PathEscape(jobID) + "/" + url.PathEscape(name),
		})
	}
	return links
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	name := chi.URLParam(r, "filename")

	path, err := s.service.OutputFile(jobID, name)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	f, err := os.Open(path)
	if err != nil {
		respondError(w, r, core.ErrJobNotFound, http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if filepath.Ext(name) == ".txt" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	type pipelineInfo struct {
		Key            string `json:"key"`
		Label          string `json:"label"`
		DefaultOutName string `json:"default_out_name"`
	}
	var out []pipelineInfo
	for _, p := range s.service.Pipelines() {
		out = append(out, pipelineInfo{Key: p.Key, Label: p.Label, DefaultOutName: p.DefaultOutName})
	}
	writeJSON(w, out)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)

	list, err := s.service.History(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []jobs.Job{}
	}
	writeJSON(w, list)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.service.Job(r.Context(), chi.URLParam(r, "jobID"))
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, job)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":      "ok",
		"backend":     s.service.BackendName(),
		"pipelines":   len(s.service.Pipelines()),
		"conversions": s.service.LimiterStatus(),
	})
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// writeJSON encodes v as JSON and writes it to w.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		slog.Error("json encode error", "error", err)
	}
}
