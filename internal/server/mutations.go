package server

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/KaramelBytes/dqboard/internal/analysis"
	"github.com/KaramelBytes/dqboard/internal/clean"
	"github.com/KaramelBytes/dqboard/internal/dataset"
	"github.com/KaramelBytes/dqboard/internal/session"
)

// MutationResponse is the body of a successful transform.
type MutationResponse struct {
	Action  session.Action `json:"action"`
	Rows    int            `json:"rows"`
	Columns []string       `json:"columns"`
	Result  any            `json:"result,omitempty"`
}

// mutate runs fn through the session so the dataset swap and the panel
// flags change together. On error the dataset is left as it was.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, a session.Action, fn func(*dataset.Dataset) (*dataset.Dataset, any, error)) {
	start := time.Now()
	var result any
	d, err := sessionFrom(r.Context()).Apply(a, func(cur *dataset.Dataset) (*dataset.Dataset, error) {
		next, res, err := fn(cur)
		result = res
		return next, err
	})
	s.metrics.observe(a.String(), start, err, false)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, MutationResponse{Action: a, Rows: d.Len(), Columns: d.Names(), Result: result})
}

// MissingRequest picks a fill method and, optionally, a single column.
type MissingRequest struct {
	Method string `json:"method" validate:"required,oneof=mean median mode drop"`
	Column string `json:"column"`
}

func (s *Server) handleMissing(w http.ResponseWriter, r *http.Request) {
	var req MissingRequest
	if err := s.decode(r, &req); err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	s.mutate(w, r, session.ActionHandleMissing, func(d *dataset.Dataset) (*dataset.Dataset, any, error) {
		method, err := clean.ParseMissingMethod(req.Method)
		if err != nil {
			return nil, nil, err
		}
		next, err := clean.HandleMissing(d, method, req.Column)
		if err != nil {
			return nil, nil, err
		}
		return next, analysis.MissingReport(next), nil
	})
}

func (s *Server) removeDuplicates(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, session.ActionHandleDuplicates, func(d *dataset.Dataset) (*dataset.Dataset, any, error) {
		next := clean.RemoveDuplicates(d)
		return next, map[string]int{"removed": d.Len() - next.Len()}, nil
	})
}

// OutlierRequest clips or drops values outside [lower, upper]. Missing
// bounds are recomputed from the current dataset.
type OutlierRequest struct {
	Column string   `json:"column" validate:"required"`
	Method string   `json:"method" validate:"required,oneof=clip drop"`
	Lower  *float64 `json:"lower"`
	Upper  *float64 `json:"upper"`
}

// OutlierResult reports the fence used and how many rows it touched.
type OutlierResult struct {
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Affected int     `json:"affected"`
}

func (s *Server) handleOutliers(w http.ResponseWriter, r *http.Request) {
	var req OutlierRequest
	if err := s.decode(r, &req); err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	s.mutate(w, r, session.ActionHandleOutliers, func(d *dataset.Dataset) (*dataset.Dataset, any, error) {
		method, err := clean.ParseOutlierMethod(req.Method)
		if err != nil {
			return nil, nil, err
		}
		b, err := clean.OutlierBoundsK(d, req.Column, s.cfg.OutlierIQRK)
		if err != nil {
			return nil, nil, err
		}
		lower, upper := b.Lower, b.Upper
		if req.Lower != nil {
			lower = *req.Lower
		}
		if req.Upper != nil {
			upper = *req.Upper
		}
		next, err := clean.HandleOutliers(d, req.Column, lower, upper, method)
		if err != nil {
			return nil, nil, err
		}
		res := OutlierResult{Lower: lower, Upper: upper}
		if req.Lower != nil || req.Upper != nil {
			c, _ := d.Column(req.Column)
			for _, v := range c.NumericValues() {
				if v < lower || v > upper {
					res.Affected++
				}
			}
		} else {
			res.Affected = len(b.Rows)
		}
		return next, res, nil
	})
}

// ConvertRequest changes a column's type to "numeric" or "str".
type ConvertRequest struct {
	Column string `json:"column" validate:"required"`
	Type   string `json:"type" validate:"required"`
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := s.decode(r, &req); err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	s.mutate(w, r, session.ActionConvertType, func(d *dataset.Dataset) (*dataset.Dataset, any, error) {
		target, err := clean.ParseTargetType(req.Type)
		if err != nil {
			return nil, nil, err
		}
		next, err := clean.ConvertColumnType(d, req.Column, target)
		if err != nil {
			return nil, nil, err
		}
		return next, analysis.DTypes(next), nil
	})
}

// RenameRequest maps old column names to new ones.
type RenameRequest struct {
	Mapping map[string]string `json:"mapping"`
}

func (s *Server) rename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := s.decode(r, &req); err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	s.mutate(w, r, session.ActionRenameColumns, func(d *dataset.Dataset) (*dataset.Dataset, any, error) {
		next, err := clean.RenameColumns(d, req.Mapping)
		return next, nil, err
	})
}
