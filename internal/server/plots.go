package server

import (
	"bytes"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/dqboard/internal/analysis"
	"github.com/KaramelBytes/dqboard/internal/charts"
)

func (s *Server) histogramPNG(w http.ResponseWriter, r *http.Request) {
	s.plot(w, r, "histogram", func(h *analysis.Histogram, _ *analysis.BoxPlot, buf *bytes.Buffer) error {
		return charts.Histogram(buf, h)
	})
}

func (s *Server) boxPlotPNG(w http.ResponseWriter, r *http.Request) {
	s.plot(w, r, "boxplot", func(_ *analysis.Histogram, b *analysis.BoxPlot, buf *bytes.Buffer) error {
		return charts.BoxPlot(buf, b)
	})
}

// plot renders a chart of the {column} path parameter. Plots are part of the
// visualize panel and do not change flags.
func (s *Server) plot(w http.ResponseWriter, r *http.Request, op string, draw func(*analysis.Histogram, *analysis.BoxPlot, *bytes.Buffer) error) {
	start := time.Now()
	bins, err := intQuery(r, "bins", s.cfg.HistogramBins, 0)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	d := sessionFrom(r.Context()).Dataset()
	var buf bytes.Buffer
	column := chi.URLParam(r, "column")
	if unescaped, err := url.PathUnescape(column); err == nil {
		column = unescaped
	}
	h, b, err := analysis.Distribution(d, column, bins)
	if err == nil {
		err = draw(h, b, &buf)
	}
	s.metrics.observe(op, start, err, false)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
