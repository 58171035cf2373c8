package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/inkframe/pkg/buildinfo"
	"github.com/matzehuels/inkframe/pkg/errors"
	inkio "github.com/matzehuels/inkframe/pkg/io"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/pipeline"
)

// Response headers set on render responses.
const (
	HeaderCache      = "X-Cache"
	HeaderLayoutHash = "X-Layout-Hash"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// =============================================================================
// Templates
// =============================================================================

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"default":   s.cfg.Registry.DefaultID(),
		"templates": s.cfg.Registry.All(),
	})
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, ok := s.cfg.Registry.Get(id)
	if !ok {
		writeError(w, r, s.cfg.Logger, errors.New(errors.ErrCodeTemplateNotFound, "unknown layout template %q", id))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// =============================================================================
// Layout and render
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	p, err := s.readPage(w, r)
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	opts, err := s.options(r)
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	rp, hit, err := s.cfg.Runner.LayoutWithCacheInfo(r.Context(), *p, opts)
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	w.Header().Set(HeaderCache, cacheStatus(hit))
	writeJSON(w, http.StatusOK, rp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	p, err := s.readPage(w, r)
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	s.render(w, r, p)
}

func (s *Server) handleRenderStored(w http.ResponseWriter, r *http.Request) {
	p, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	s.render(w, r, p)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, p *page.Page) {
	opts, err := s.options(r)
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatPNG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	opts.Formats = []string{format}

	result, err := s.cfg.Runner.Execute(r.Context(), *p, opts)
	if err != nil {
		writeError(w, r, s.cfg.Logger, classify(r.Context(), err))
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.Header().Set(HeaderCache, cacheStatus(result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit))
	w.Header().Set(HeaderLayoutHash, result.LayoutHash)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// =============================================================================
// Stored pages
// =============================================================================

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	ids, err := s.cfg.Store.List(r.Context())
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": ids})
}

func (s *Server) handlePutPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.readPage(w, r)
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	if err := s.cfg.Store.Put(r.Context(), p); err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	w.Header().Set("Location", "/v1/pages/"+p.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"id": p.ID})
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.cfg.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, s.cfg.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) readPage(w http.ResponseWriter, r *http.Request) (*page.Page, error) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer body.Close()
	return inkio.ReadJSON(body)
}

// options builds pipeline options from the server defaults and the query
// string: template, page_numbers and refresh.
func (s *Server) options(r *http.Request) (pipeline.Options, error) {
	opts := s.cfg.Defaults
	opts.Formats = nil
	opts.Registry = s.cfg.Registry

	q := r.URL.Query()
	if id := q.Get("template"); id != "" {
		opts.TemplateID = id
	}
	for name, dst := range map[string]*bool{
		"page_numbers": &opts.PageNumbers,
		"refresh":      &opts.Refresh,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", name, v)
		}
		*dst = b
	}
	return opts, nil
}

// classify gives uncoded errors from a cancelled request a timeout code.
func classify(ctx context.Context, err error) error {
	if errors.GetCode(err) == "" && ctx.Err() != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "request cancelled")
	}
	return err
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
