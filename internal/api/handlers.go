package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/export"
	"github.com/spacemark/pagecache/internal/http/response"
	"github.com/spacemark/pagecache/internal/pageurl"
)

// HealthResponse reports server liveness and cache size.
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Annotations int    `json:"annotations"`
	Lists       int    `json:"lists"`
	SSEClients  int    `json:"sseClients"`
}

// PageListsResponse pairs a normalized page URL with list cache IDs.
type PageListsResponse struct {
	NormalizedPageURL string   `json:"normalizedPageUrl"`
	ListIDs           []string `json:"listIds"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, HealthResponse{
		Status:      "healthy",
		Uptime:      time.Since(s.startedAt).Truncate(time.Second).String(),
		Annotations: s.cache.AnnotationCount(),
		Lists:       s.cache.ListCount(),
		SSEClients:  s.sseManager.ClientCount(),
	}, s.logger)
}

// handleListAnnotations returns the normalized annotation store, or the page's annotations
// in display order when ?url= is given.
func (s *Server) handleListAnnotations(w http.ResponseWriter, r *http.Request) {
	page, ok := pageParam(r)
	if !ok {
		response.Success(w, s.cache.AnnotationsState(), s.logger)
		return
	}

	annotations := []*domain.Annotation{}
	for _, a := range s.cache.AnnotationsArray() {
		if pageurl.Equal(a.NormalizedPageURL, page) {
			annotations = append(annotations, a)
		}
	}
	response.Success(w, annotations, s.logger)
}

func (s *Server) handleGetAnnotation(w http.ResponseWriter, r *http.Request) {
	s.writeAnnotation(w, s.cache.Annotation(chi.URLParam(r, "id")))
}

func (s *Server) handleGetAnnotationByLocalID(w http.ResponseWriter, r *http.Request) {
	s.writeAnnotation(w, s.cache.AnnotationByLocalID(chi.URLParam(r, "id")))
}

func (s *Server) handleGetAnnotationByRemoteID(w http.ResponseWriter, r *http.Request) {
	s.writeAnnotation(w, s.cache.AnnotationByRemoteID(chi.URLParam(r, "id")))
}

func (s *Server) writeAnnotation(w http.ResponseWriter, a *domain.Annotation) {
	if a == nil {
		response.NotFound(w, "annotation not found", s.logger)
		return
	}
	response.Success(w, a, s.logger)
}

func (s *Server) handleListLists(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, s.cache.ListsState(), s.logger)
}

func (s *Server) handleListRoots(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, nonNil(s.cache.ListsByParentID("")), s.logger)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	l := s.cache.List(chi.URLParam(r, "id"))
	if l == nil {
		response.NotFound(w, "list not found", s.logger)
		return
	}
	response.Success(w, l, s.logger)
}

func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.cache.List(id) == nil {
		response.NotFound(w, "list not found", s.logger)
		return
	}
	response.Success(w, nonNil(s.cache.ListsByParentID(id)), s.logger)
}

func (s *Server) handlePageLists(w http.ResponseWriter, r *http.Request) {
	page, ok := s.requirePage(w, r)
	if !ok {
		return
	}
	response.Success(w, PageListsResponse{
		NormalizedPageURL: page,
		ListIDs:           nonNil(s.cache.PageListIDs(page)),
	}, s.logger)
}

func (s *Server) handlePageSharedLists(w http.ResponseWriter, r *http.Request) {
	page, ok := s.requirePage(w, r)
	if !ok {
		return
	}
	response.Success(w, PageListsResponse{
		NormalizedPageURL: page,
		ListIDs:           nonNil(s.cache.SharedPageListIDs(page)),
	}, s.logger)
}

func (s *Server) handlePageExport(w http.ResponseWriter, r *http.Request) {
	page, ok := s.requirePage(w, r)
	if !ok {
		return
	}
	out, err := export.PageMarkdown(s.cache, page)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	response.Markdown(w, out)
}

// pageParam reads ?url= as a full page URL and normalizes it.
func pageParam(r *http.Request) (string, bool) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		return "", false
	}
	return pageurl.Normalize(raw), true
}

func (s *Server) requirePage(w http.ResponseWriter, r *http.Request) (string, bool) {
	page, ok := pageParam(r)
	if !ok {
		response.BadRequest(w, "url query parameter is required", s.logger)
	}
	return page, ok
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
