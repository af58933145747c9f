package store

import "errors"

// VectorDimension is the embedding dimensionality used by both tables.
// gemini-embedding-001 truncates to 768 dimensions; the pgvector columns
// are declared vector(768) to match.
const VectorDimension = 768

// ErrCourseNotFound is returned when fuzzy course-name resolution finds no
// matching course in the catalog.
var ErrCourseNotFound = errors.New("course not found")

// SearchResult is a single transcript chunk returned by semantic search.
type SearchResult struct {
	Content      string
	CourseTitle  string
	LessonNumber *int // nil when the chunk precedes any lesson marker
	ChunkIndex   int
	Distance     float32 // cosine distance, lower is closer
}

// SearchOption configures Search using the functional options pattern.
type SearchOption func(*searchConfig)

type searchConfig struct {
	courseName string
	lesson     *int
	topK       int
}

// WithCourse restricts search to a single course. The name is resolved
// against the catalog by embedding similarity, so partial names like
// "MCP" match "MCP: Build Rich-Context AI Apps with Anthropic".
func WithCourse(name string) SearchOption {
	return func(c *searchConfig) {
		c.courseName = name
	}
}

// WithLesson restricts search to a single lesson number.
func WithLesson(n int) SearchOption {
	return func(c *searchConfig) {
		c.lesson = &n
	}
}

// WithTopK sets the maximum number of results to return.
func WithTopK(k int) SearchOption {
	return func(c *searchConfig) {
		if k > 0 {
			c.topK = k
		}
	}
}

func buildSearchConfig(defaultTopK int, opts []SearchOption) *searchConfig {
	cfg := &searchConfig{topK: defaultTopK}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
