package server

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/render"

	"github.com/KaramelBytes/dqboard/internal/analysis"
	"github.com/KaramelBytes/dqboard/internal/dataset"
	apierrors "github.com/KaramelBytes/dqboard/internal/errors"
	"github.com/KaramelBytes/dqboard/internal/parser"
	"github.com/KaramelBytes/dqboard/internal/session"
)

const multipartMemory = 8 << 20

// Table is a slice of rows ready for JSON.
type Table struct {
	Columns []string          `json:"columns"`
	Offset  int               `json:"offset"`
	Total   int               `json:"total"`
	Rows    [][]dataset.Value `json:"rows"`
}

func tableOf(d *dataset.Dataset, offset, limit int) Table {
	t := Table{Columns: d.Names(), Offset: offset, Total: d.Len(), Rows: [][]dataset.Value{}}
	for i := offset; i < d.Len() && (limit < 0 || i < offset+limit); i++ {
		t.Rows = append(t.Rows, d.Row(i))
	}
	return t
}

// SummaryResponse describes a session and its current dataset.
type SummaryResponse struct {
	session.Info
	DTypes []analysis.ColumnType `json:"dtypes"`
	Head   Table                 `json:"head"`
}

func (s *Server) summaryOf(sess *session.Session) SummaryResponse {
	var resp SummaryResponse
	sess.View(func(d *dataset.Dataset, _ session.Flags) {
		resp.DTypes = analysis.DTypes(d)
		resp.Head = tableOf(d, 0, s.cfg.PreviewRows)
	})
	resp.Info = sess.Info()
	return resp
}

// upload handles POST /api/sessions with a multipart "file" and optional "sheet".
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = apierrors.InvalidRequestWithError(err)
		}
		s.metrics.observe("upload", start, err, false)
		s.errs.HandleError(w, r, err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			err = apierrors.MissingFile("file")
		}
		s.metrics.observe("upload", start, err, false)
		s.errs.HandleError(w, r, err)
		return
	}
	defer file.Close()

	opt := parser.Options{Sheet: r.FormValue("sheet"), MaxRows: s.cfg.MaxRows}
	d, err := parser.Parse(file, filepath.Base(header.Filename), opt)
	s.metrics.observe("upload", start, err, false)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	sess := s.store.Create(d)
	s.logger.InfoContext(r.Context(), "dataset uploaded",
		slog.String("session_id", sess.ID()),
		slog.String("file", header.Filename),
		slog.Int64("bytes", header.Size),
	)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, s.summaryOf(sess))
}

// summary handles GET /api/sessions/{id}.
func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.summaryOf(sessionFrom(r.Context())))
}

// deleteSession handles DELETE /api/sessions/{id}.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(sessionFrom(r.Context()).ID()); err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// preview handles GET /api/sessions/{id}/data?offset=&limit=.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	offset, err := intQuery(r, "offset", 0, 0)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", s.cfg.PreviewRows, 1)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, tableOf(sessionFrom(r.Context()).Dataset(), offset, limit))
}

func intQuery(r *http.Request, key string, def, min int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return 0, apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_REQUEST",
			fmt.Sprintf("query parameter %q must be an integer >= %d", key, min), raw)
	}
	return n, nil
}

// PanelsResponse lists the panels to draw on this render pass.
type PanelsResponse struct {
	Panels     []session.Flag `json:"panels"`
	LastAction session.Action `json:"last_action,omitempty"`
}

// panels handles GET /api/sessions/{id}/panels. Each call is one render
// pass: one-shot panels are cleared once returned.
func (s *Server) panels(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	shown, last := sess.Render()
	render.JSON(w, r, PanelsResponse{Panels: shown, LastAction: last})
}

// download handles GET /api/sessions/{id}/download.
func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	d := sessionFrom(r.Context()).Dataset()
	var buf bytes.Buffer
	err := dataset.WriteCSV(&buf, d, dataset.WriteOptions{BOM: s.cfg.CSVBOM})
	s.metrics.observe("download", start, err, false)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", CleanedName(d.Name())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

// CleanedName is the download name for a dataset: the source name without
// its extension plus "_cleaned.csv".
func CleanedName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "dataset"
	}
	return base + "_cleaned.csv"
}
