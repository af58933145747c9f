// Package store persists course material in PostgreSQL with pgvector and
// answers semantic queries over it.
//
// Two tables back the store: course_catalog holds one row per course with
// metadata and a title embedding used for fuzzy course-name resolution,
// and course_content holds transcript chunks with content embeddings used
// for retrieval. Both sides of a search go through the same embedder, so
// query and content vectors live in the same space.
//
// Store is safe for concurrent use by multiple goroutines.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/lectern-app/lectern/internal/course"
)

// queryTimeout bounds vector search queries so a slow scan cannot block
// a chat turn indefinitely.
const queryTimeout = 10 * time.Second

// DB is the subset of pgxpool.Pool the store depends on.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store manages the course knowledge base.
type Store struct {
	db         DB
	embedder   ai.Embedder
	logger     *slog.Logger
	maxResults int
}

// New creates a Store. maxResults is the default number of chunks Search
// returns when WithTopK is not given.
func New(db DB, embedder ai.Embedder, maxResults int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:         db,
		embedder:   embedder,
		logger:     logger,
		maxResults: maxResults,
	}
}

// embed generates an embedding vector for the given text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{
				Content: []*ai.Part{ai.NewTextPart(text)},
			},
		},
	})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("generating embedding: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, errors.New("embedder returned empty embedding")
	}
	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// AddCourse upserts a course's metadata into the catalog. The course title
// is embedded so ResolveCourseName can match partial or fuzzy names.
func (s *Store) AddCourse(ctx context.Context, c course.Course) error {
	if c.Title == "" {
		return errors.New("course title is empty")
	}

	embedding, err := s.embed(ctx, c.Title)
	if err != nil {
		return fmt.Errorf("embedding course title %q: %w", c.Title, err)
	}

	lessonsJSON, err := json.Marshal(c.Lessons)
	if err != nil {
		return fmt.Errorf("marshaling lessons for %q: %w", c.Title, err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO course_catalog (title, instructor, course_link, lessons, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (title) DO UPDATE SET
			instructor = EXCLUDED.instructor,
			course_link = EXCLUDED.course_link,
			lessons = EXCLUDED.lessons,
			embedding = EXCLUDED.embedding`,
		c.Title, c.Instructor, c.Link, lessonsJSON, embedding)
	if err != nil {
		return fmt.Errorf("upserting course %q: %w", c.Title, err)
	}

	s.logger.Debug("added course", "title", c.Title, "lessons", len(c.Lessons))
	return nil
}

// AddChunks embeds and inserts transcript chunks. Chunk IDs are derived
// from course title and chunk index, so re-ingesting a course overwrites
// its previous chunks row for row.
func (s *Store) AddChunks(ctx context.Context, chunks []course.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		embedding, err := s.embed(ctx, chunk.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk %d of %q: %w", chunk.ChunkIndex, chunk.CourseTitle, err)
		}
		batch.Queue(`
			INSERT INTO course_content (id, course_title, lesson_number, chunk_index, content, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				lesson_number = EXCLUDED.lesson_number,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding`,
			chunkID(chunk.CourseTitle, chunk.ChunkIndex),
			chunk.CourseTitle, chunk.LessonNumber, chunk.ChunkIndex,
			chunk.Content, embedding)
	}

	results := s.db.SendBatch(ctx, batch)
	defer func() {
		if err := results.Close(); err != nil {
			s.logger.Warn("failed to close batch results", "error", err)
		}
	}()

	for i := range chunks {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("inserting chunk %d of %q: %w", chunks[i].ChunkIndex, chunks[i].CourseTitle, err)
		}
	}

	s.logger.Debug("added chunks", "course", chunks[0].CourseTitle, "count", len(chunks))
	return nil
}

// chunkID builds the deterministic primary key for a content chunk.
func chunkID(courseTitle string, chunkIndex int) string {
	return fmt.Sprintf("%s_%d", courseTitle, chunkIndex)
}

// DeleteCourse removes a course and, via cascade, all its content chunks.
func (s *Store) DeleteCourse(ctx context.Context, title string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM course_catalog WHERE title = $1`, title)
	if err != nil {
		return fmt.Errorf("deleting course %q: %w", title, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %q", ErrCourseNotFound, title)
	}
	return nil
}

// ListCourseTitles returns all catalog titles in lexical order.
func (s *Store) ListCourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT title FROM course_catalog ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("listing course titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scanning course title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading course titles: %w", err)
	}
	return titles, nil
}

// CountCourses returns the number of courses in the catalog.
func (s *Store) CountCourses(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM course_catalog`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting courses: %w", err)
	}
	return count, nil
}

// ResolveCourseName maps a possibly partial or fuzzy course name to the
// exact catalog title via embedding similarity. The nearest title wins
// regardless of distance; only an empty catalog yields ErrCourseNotFound.
func (s *Store) ResolveCourseName(ctx context.Context, name string) (string, error) {
	embedding, err := s.embed(ctx, name)
	if err != nil {
		return "", fmt.Errorf("embedding course name %q: %w", name, err)
	}

	var title string
	err = s.db.QueryRow(ctx, `
		SELECT title FROM course_catalog
		ORDER BY embedding <=> $1, title
		LIMIT 1`, embedding).Scan(&title)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", ErrCourseNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("resolving course name %q: %w", name, err)
	}

	if title != name {
		s.logger.Debug("resolved course name", "input", name, "resolved", title)
	}
	return title, nil
}

// Search returns the chunks most similar to query, ordered by cosine
// distance. WithCourse and WithLesson narrow the candidate set before
// ranking; course names are resolved with ResolveCourseName first, and a
// failed resolution aborts the search with ErrCourseNotFound.
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]SearchResult, error) {
	cfg := buildSearchConfig(s.maxResults, opts)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	resolvedCourse := ""
	if cfg.courseName != "" {
		title, err := s.ResolveCourseName(ctx, cfg.courseName)
		if err != nil {
			return nil, err
		}
		resolvedCourse = title
	}

	embedding, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	sql, args := contentSearchSQL(embedding, resolvedCourse, cfg.lesson, cfg.topK)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("searching course content: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.CourseTitle, &r.LessonNumber, &r.ChunkIndex, &r.Content, &r.Distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}

	s.logger.Debug("search completed",
		"query_length", len(query),
		"course", resolvedCourse,
		"results", len(results))
	return results, nil
}

// contentSearchSQL builds the chunk search statement. Ties on distance
// break on the chunk id so result order is deterministic.
func contentSearchSQL(embedding pgvector.Vector, course string, lesson *int, topK int) (string, []any) {
	sql := `
		SELECT course_title, lesson_number, chunk_index, content, embedding <=> $1 AS distance
		FROM course_content`
	args := []any{embedding}

	where := ""
	if course != "" {
		args = append(args, course)
		where = fmt.Sprintf(" WHERE course_title = $%d", len(args))
	}
	if lesson != nil {
		args = append(args, *lesson)
		if where == "" {
			where = fmt.Sprintf(" WHERE lesson_number = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND lesson_number = $%d", len(args))
		}
	}

	args = append(args, topK)
	sql += where + fmt.Sprintf(" ORDER BY distance, id LIMIT $%d", len(args))
	return sql, args
}

// Outline resolves a course name and returns the full course metadata,
// including its lesson list.
func (s *Store) Outline(ctx context.Context, name string) (course.Course, error) {
	title, err := s.ResolveCourseName(ctx, name)
	if err != nil {
		return course.Course{}, err
	}
	return s.getCourse(ctx, title)
}

// getCourse fetches a catalog row by exact title.
func (s *Store) getCourse(ctx context.Context, title string) (course.Course, error) {
	var (
		c           course.Course
		lessonsJSON []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT title, instructor, course_link, lessons
		FROM course_catalog WHERE title = $1`, title).
		Scan(&c.Title, &c.Instructor, &c.Link, &lessonsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return course.Course{}, fmt.Errorf("%w: %q", ErrCourseNotFound, title)
	}
	if err != nil {
		return course.Course{}, fmt.Errorf("fetching course %q: %w", title, err)
	}

	if err := json.Unmarshal(lessonsJSON, &c.Lessons); err != nil {
		return course.Course{}, fmt.Errorf("parsing lessons for %q: %w", title, err)
	}
	return c, nil
}

// LessonLink returns the link for a specific lesson of a course, or ""
// when the lesson has no link. The title must be an exact catalog title.
func (s *Store) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	c, err := s.getCourse(ctx, courseTitle)
	if err != nil {
		return "", err
	}
	if l, ok := c.Lesson(lessonNumber); ok {
		return l.Link, nil
	}
	return "", nil
}

// CourseLink returns the course-level link for an exact catalog title.
func (s *Store) CourseLink(ctx context.Context, courseTitle string) (string, error) {
	c, err := s.getCourse(ctx, courseTitle)
	if err != nil {
		return "", err
	}
	return c.Link, nil
}
