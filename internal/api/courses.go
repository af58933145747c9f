package api

import (
	"context"
	"log/slog"
	"net/http"
)

// CourseLister reports catalog contents.
type CourseLister interface {
	ListCourseTitles(ctx context.Context) ([]string, error)
	CountCourses(ctx context.Context) (int, error)
}

// CoursesResponse is the body of GET /api/courses.
type CoursesResponse struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// CoursesHandler serves catalog statistics.
type CoursesHandler struct {
	catalog CourseLister
	logger  *slog.Logger
}

// NewCoursesHandler creates a courses handler.
func NewCoursesHandler(catalog CourseLister, logger *slog.Logger) *CoursesHandler {
	return &CoursesHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the courses route on the given mux.
func (h *CoursesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses", h.list)
}

func (h *CoursesHandler) list(w http.ResponseWriter, r *http.Request) {
	titles, err := h.catalog.ListCourseTitles(r.Context())
	if err != nil {
		h.logger.Error("failed to list courses", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list courses")
		return
	}
	count, err := h.catalog.CountCourses(r.Context())
	if err != nil {
		h.logger.Error("failed to count courses", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to count courses")
		return
	}

	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, CoursesResponse{
		TotalCourses: count,
		CourseTitles: titles,
	})
}
