package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/boxdeck/pkg/buildinfo"
	"github.com/matzehuels/boxdeck/pkg/cache"
	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/deckfile"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/pipeline"
	"github.com/matzehuels/boxdeck/pkg/render"
)

var contentTypes = map[string]string{
	render.FormatPDF:  "application/pdf",
	render.FormatSVG:  "image/svg+xml",
	render.FormatPNG:  "image/png",
	render.FormatJSON: "application/json",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": buildinfo.Version,
		"rsvg":    render.HasRSVG(),
	})
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"formats": render.Formats})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	opts, err := s.renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	format := opts.Formats[0]

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "deck exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if len(body) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "request body is empty"))
		return
	}
	opts.Source = body

	runner := pipeline.NewRunner(s.cfg.Cache, cache.NewScopedKeyer(nil, clientScope(r)), s.cfg.Logger)
	opts.Logger = s.cfg.Logger.With("request_id", RequestID(r.Context()))
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := result.Artifacts[format][0]
	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set(HeaderDeckHash, result.DeckHash)
	if result.CacheHit {
		h.Set(HeaderCache, "hit")
	} else {
		h.Set(HeaderCache, "miss")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// renderOptions reads the query and headers of a render request.
func (s *Server) renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		BaseDir:   s.cfg.AssetsDir,
		Sandboxed: true,
		Workers:   s.cfg.Workers,
		Fixed:     s.cfg.Fixed,
	}

	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, err
	}
	opts.Formats = []string{format}

	if format == render.FormatSVG || format == render.FormatPNG {
		page := 0
		if v := q.Get("page"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return opts, errors.New(errors.ErrCodeInvalidInput, "page must be a non-negative integer, got %q", v)
			}
			page = n
		}
		opts.Page = page + 1
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 || scale > 8 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "scale must be in (0, 8], got %q", v)
		}
		opts.Scale = scale
	}

	syntax := q.Get("syntax")
	if syntax == "" {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return opts, errors.New(errors.ErrCodeInvalidFormat, "set ?syntax= or a Content-Type of application/toml or application/yaml")
		}
		var err error
		if syntax, err = deckfile.SyntaxFromContentType(ct); err != nil {
			return opts, err
		}
	}
	opts.Syntax = syntax
	return opts, nil
}

// =============================================================================
// Errors
// =============================================================================

type errorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Slides    []slideBody `json:"slides,omitempty"`
}

type slideBody struct {
	Index   int    `json:"index"`
	Name    string `json:"name,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusFor maps an error to an HTTP status: caller mistakes are 400,
// timeouts 504, and everything else 500.
func statusFor(err error) int {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	switch errors.CategoryOf(errors.GetCode(err)) {
	case errors.CategoryInput, errors.CategoryStructural, errors.CategoryLayout, errors.CategoryAnnotation:
		return http.StatusBadRequest
	}
	if errors.Is(err, errors.ErrCodeEmptyDeck) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := errorBody{
		Code:      string(errors.GetCode(err)),
		Message:   errors.UserMessage(err),
		RequestID: RequestID(r.Context()),
	}
	status := statusFor(err)

	var slideErrs deck.SlideErrors
	if stderrors.As(err, &slideErrs) {
		body.Code = string(errors.GetCode(slideErrs[0]))
		body.Message = strconv.Itoa(len(slideErrs)) + " slides failed"
		for _, se := range slideErrs {
			body.Slides = append(body.Slides, slideBody{
				Index:   se.Index,
				Name:    se.Name,
				Code:    string(errors.GetCode(se)),
				Message: errors.UserMessage(se),
			})
		}
		status = statusFor(slideErrs[0])
	}
	if body.Code == "" {
		body.Code = string(errors.ErrCodeInternal)
	}
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("render failed", "id", body.RequestID, "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
