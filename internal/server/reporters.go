package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/KaramelBytes/dqboard/internal/analysis"
	"github.com/KaramelBytes/dqboard/internal/clean"
	"github.com/KaramelBytes/dqboard/internal/dataset"
	apierrors "github.com/KaramelBytes/dqboard/internal/errors"
	"github.com/KaramelBytes/dqboard/internal/session"
)

// PanelResponse is the body of a reporter call. Message is set instead of
// an error when there is nothing to show.
type PanelResponse struct {
	Action  session.Action `json:"action"`
	Message string         `json:"message,omitempty"`
	Result  any            `json:"result"`
}

// report triggers a read-only action. An empty result still opens the
// panel and is answered with a message.
func (s *Server) report(w http.ResponseWriter, r *http.Request, a session.Action, fn func(*dataset.Dataset) (any, error)) {
	start := time.Now()
	resp := PanelResponse{Action: a}
	err := sessionFrom(r.Context()).Report(a, func(d *dataset.Dataset) error {
		res, err := fn(d)
		var empty *dataset.EmptyResultError
		if errors.As(err, &empty) {
			resp.Message = empty.What
			err = nil
		}
		resp.Result = res
		return err
	})
	s.metrics.observe(a.String(), start, err, resp.Message != "")
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// decode reads an optional JSON body and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	if err := render.DecodeJSON(r.Body, v); err != nil && !errors.Is(err, io.EOF) {
		return apierrors.InvalidRequestWithError(err)
	}
	return apierrors.Validate(s.validate, v)
}

// InfoResult is the dataset info panel.
type InfoResult struct {
	*analysis.DatasetInfo
	Text string `json:"text"`
}

func (s *Server) info(w http.ResponseWriter, r *http.Request) {
	s.report(w, r, session.ActionInfo, func(d *dataset.Dataset) (any, error) {
		info := analysis.Info(d)
		return InfoResult{DatasetInfo: info, Text: info.Text()}, nil
	})
}

func (s *Server) describe(w http.ResponseWriter, r *http.Request) {
	s.report(w, r, session.ActionDescribe, func(d *dataset.Dataset) (any, error) {
		return analysis.Describe(d)
	})
}

func (s *Server) dtypes(w http.ResponseWriter, r *http.Request) {
	s.report(w, r, session.ActionTypeAnalysis, func(d *dataset.Dataset) (any, error) {
		return analysis.DTypes(d), nil
	})
}

func (s *Server) columns(w http.ResponseWriter, r *http.Request) {
	s.report(w, r, session.ActionColumnAnalysis, func(d *dataset.Dataset) (any, error) {
		return map[string][]string{"columns": d.Names()}, nil
	})
}

// MissingResult is the missing-value panel; Matrix is filled on ?matrix=true.
type MissingResult struct {
	*analysis.MissingSummary
	Matrix *analysis.NullMask `json:"matrix,omitempty"`
}

func (s *Server) missing(w http.ResponseWriter, r *http.Request) {
	withMatrix := r.URL.Query().Get("matrix") == "true"
	s.report(w, r, session.ActionMissingAnalysis, func(d *dataset.Dataset) (any, error) {
		res := MissingResult{MissingSummary: analysis.MissingReport(d)}
		if withMatrix {
			res.Matrix = analysis.MissingMatrix(d)
		}
		return res, nil
	})
}

// DuplicatesResult lists every row that has a twin.
type DuplicatesResult struct {
	Count int   `json:"count"`
	Rows  []int `json:"rows"`
	Table Table `json:"table"`
}

func (s *Server) duplicates(w http.ResponseWriter, r *http.Request) {
	s.report(w, r, session.ActionDuplicateAnalysis, func(d *dataset.Dataset) (any, error) {
		rows := clean.DuplicateRows(d)
		if rows == nil {
			rows = []int{}
		}
		return DuplicatesResult{
			Count: clean.DuplicateCount(d),
			Rows:  rows,
			Table: tableOf(d.SelectRows(rows), 0, -1),
		}, nil
	})
}

// ColumnRequest selects one column.
type ColumnRequest struct {
	Column string `json:"column" validate:"required"`
}

func (s *Server) outliers(w http.ResponseWriter, r *http.Request) {
	var req ColumnRequest
	if err := s.decode(r, &req); err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	s.report(w, r, session.ActionOutlierAnalysis, func(d *dataset.Dataset) (any, error) {
		return clean.OutlierBoundsK(d, req.Column, s.cfg.OutlierIQRK)
	})
}

// VisualizeRequest selects a column and an optional bin count.
type VisualizeRequest struct {
	Column string `json:"column" validate:"required"`
	Bins   int    `json:"bins" validate:"min=0,max=500"`
}

// VisualizeResult carries plot inputs; BoxPlot is nil for non-numeric columns.
type VisualizeResult struct {
	Histogram *analysis.Histogram `json:"histogram"`
	BoxPlot   *analysis.BoxPlot   `json:"boxplot"`
}

func (s *Server) visualize(w http.ResponseWriter, r *http.Request) {
	var req VisualizeRequest
	if err := s.decode(r, &req); err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	bins := req.Bins
	if bins == 0 {
		bins = s.cfg.HistogramBins
	}
	s.report(w, r, session.ActionVisualize, func(d *dataset.Dataset) (any, error) {
		h, b, err := analysis.Distribution(d, req.Column, bins)
		return VisualizeResult{Histogram: h, BoxPlot: b}, err
	})
}

// CorrelationResult holds the matrix, null when there are no numeric columns.
type CorrelationResult struct {
	Matrix *analysis.CorrMatrix `json:"matrix"`
}

func (s *Server) correlation(w http.ResponseWriter, r *http.Request) {
	s.report(w, r, session.ActionCorrelation, func(d *dataset.Dataset) (any, error) {
		m := analysis.Correlation(d)
		if m == nil {
			return CorrelationResult{}, &dataset.EmptyResultError{What: "the dataset has no numeric columns to correlate"}
		}
		return CorrelationResult{Matrix: m}, nil
	})
}
