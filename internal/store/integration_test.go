//go:build integration

package store

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern-app/lectern/internal/course"
	"github.com/lectern-app/lectern/internal/testutil"
)

// setupStore creates a Store against a real PostgreSQL container with a
// mock embedder, so cosine distances are fully under test control.
func setupStore(t *testing.T) (*Store, *testutil.MockEmbedder) {
	t.Helper()

	dbc, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	g := genkit.Init(context.Background())
	emb := testutil.NewMockEmbedder(VectorDimension)
	return New(dbc.Pool, emb.RegisterEmbedder(g), 5, slog.Default()), emb
}

// axisVector returns a unit vector along the given axis. Distinct axes
// are orthogonal, which makes nearest-neighbor ordering predictable.
func axisVector(idx int) []float32 {
	vec := make([]float32, VectorDimension)
	vec[idx%VectorDimension] = 1.0
	return vec
}

func seedCourse(t *testing.T, s *Store, emb *testutil.MockEmbedder) {
	t.Helper()
	ctx := context.Background()

	emb.SetVector("MCP: Build Rich-Context AI Apps with Anthropic", axisVector(0))
	emb.SetVector("Advanced Retrieval for AI", axisVector(1))

	mcp := course.Course{
		Title:      "MCP: Build Rich-Context AI Apps with Anthropic",
		Link:       "https://example.com/mcp",
		Instructor: "Elie Schoppik",
		Lessons: []course.Lesson{
			{Number: 0, Title: "Introduction", Link: "https://example.com/mcp/0"},
			{Number: 1, Title: "Why MCP", Link: "https://example.com/mcp/1"},
		},
	}
	if err := s.AddCourse(ctx, mcp); err != nil {
		t.Fatalf("AddCourse() error: %v", err)
	}

	advanced := course.Course{
		Title: "Advanced Retrieval for AI",
		Link:  "https://example.com/adv",
	}
	if err := s.AddCourse(ctx, advanced); err != nil {
		t.Fatalf("AddCourse() error: %v", err)
	}

	lesson0, lesson1 := 0, 1
	emb.SetVector("mcp servers expose tools", axisVector(2))
	emb.SetVector("mcp clients connect to servers", axisVector(3))
	emb.SetVector("reranking improves retrieval", axisVector(4))

	chunks := []course.Chunk{
		{Content: "mcp servers expose tools", CourseTitle: mcp.Title, LessonNumber: &lesson0, ChunkIndex: 0},
		{Content: "mcp clients connect to servers", CourseTitle: mcp.Title, LessonNumber: &lesson1, ChunkIndex: 1},
		{Content: "reranking improves retrieval", CourseTitle: advanced.Title, LessonNumber: &lesson0, ChunkIndex: 0},
	}
	// One chunk per course title namespace; the advanced course reuses index 0.
	if err := s.AddChunks(ctx, chunks[:2]); err != nil {
		t.Fatalf("AddChunks() error: %v", err)
	}
	if err := s.AddChunks(ctx, chunks[2:]); err != nil {
		t.Fatalf("AddChunks() error: %v", err)
	}
}

func TestResolveCourseName_FuzzyMatch(t *testing.T) {
	s, emb := setupStore(t)
	seedCourse(t, s, emb)
	ctx := context.Background()

	// "MCP" embeds close to the MCP course title and far from the other.
	partial := axisVector(0)
	partial[1] = 0.1
	emb.SetVector("MCP", partial)

	got, err := s.ResolveCourseName(ctx, "MCP")
	if err != nil {
		t.Fatalf("ResolveCourseName() error: %v", err)
	}
	if got != "MCP: Build Rich-Context AI Apps with Anthropic" {
		t.Errorf("resolved to %q", got)
	}
}

func TestResolveCourseName_EmptyCatalog(t *testing.T) {
	s, _ := setupStore(t)

	_, err := s.ResolveCourseName(context.Background(), "anything")
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestSearch_Filters(t *testing.T) {
	s, emb := setupStore(t)
	seedCourse(t, s, emb)
	ctx := context.Background()

	partial := axisVector(0)
	partial[1] = 0.1
	emb.SetVector("MCP", partial)

	// Query vector closest to the "servers expose tools" chunk.
	query := axisVector(2)
	query[3] = 0.5
	emb.SetVector("how do mcp servers work", query)

	t.Run("unfiltered returns nearest first", func(t *testing.T) {
		results, err := s.Search(ctx, "how do mcp servers work")
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		if len(results) == 0 {
			t.Fatal("no results")
		}
		if results[0].Content != "mcp servers expose tools" {
			t.Errorf("first result = %q", results[0].Content)
		}
	})

	t.Run("course filter excludes other courses", func(t *testing.T) {
		results, err := s.Search(ctx, "how do mcp servers work", WithCourse("MCP"))
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		for _, r := range results {
			if r.CourseTitle != "MCP: Build Rich-Context AI Apps with Anthropic" {
				t.Errorf("result from wrong course: %q", r.CourseTitle)
			}
		}
	})

	t.Run("lesson filter narrows further", func(t *testing.T) {
		results, err := s.Search(ctx, "how do mcp servers work", WithCourse("MCP"), WithLesson(1))
		if err != nil {
			t.Fatalf("Search() error: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("got %d results, want 1", len(results))
		}
		if results[0].LessonNumber == nil || *results[0].LessonNumber != 1 {
			t.Errorf("lesson = %v", results[0].LessonNumber)
		}
	})

}

func TestSearch_UnresolvableCourseAborts(t *testing.T) {
	s, _ := setupStore(t)

	_, err := s.Search(context.Background(), "anything", WithCourse("ghost course"))
	if !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("expected ErrCourseNotFound, got %v", err)
	}
}

func TestOutline(t *testing.T) {
	s, emb := setupStore(t)
	seedCourse(t, s, emb)
	ctx := context.Background()

	partial := axisVector(0)
	partial[1] = 0.1
	emb.SetVector("MCP", partial)

	c, err := s.Outline(ctx, "MCP")
	if err != nil {
		t.Fatalf("Outline() error: %v", err)
	}
	if c.Title != "MCP: Build Rich-Context AI Apps with Anthropic" {
		t.Errorf("title = %q", c.Title)
	}
	if c.Link != "https://example.com/mcp" {
		t.Errorf("link = %q", c.Link)
	}
	if len(c.Lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(c.Lessons))
	}
	if c.Lessons[1].Title != "Why MCP" {
		t.Errorf("lesson 1 title = %q", c.Lessons[1].Title)
	}
}

func TestLessonLink(t *testing.T) {
	s, emb := setupStore(t)
	seedCourse(t, s, emb)
	ctx := context.Background()

	link, err := s.LessonLink(ctx, "MCP: Build Rich-Context AI Apps with Anthropic", 1)
	if err != nil {
		t.Fatalf("LessonLink() error: %v", err)
	}
	if link != "https://example.com/mcp/1" {
		t.Errorf("link = %q", link)
	}

	// Unknown lesson number yields an empty link, not an error.
	link, err = s.LessonLink(ctx, "MCP: Build Rich-Context AI Apps with Anthropic", 99)
	if err != nil {
		t.Fatalf("LessonLink() error: %v", err)
	}
	if link != "" {
		t.Errorf("link = %q, want empty", link)
	}
}

func TestDeleteCourse_Cascades(t *testing.T) {
	s, emb := setupStore(t)
	seedCourse(t, s, emb)
	ctx := context.Background()

	if err := s.DeleteCourse(ctx, "Advanced Retrieval for AI"); err != nil {
		t.Fatalf("DeleteCourse() error: %v", err)
	}

	titles, err := s.ListCourseTitles(ctx)
	if err != nil {
		t.Fatalf("ListCourseTitles() error: %v", err)
	}
	if len(titles) != 1 {
		t.Errorf("got %d titles, want 1", len(titles))
	}

	count, err := s.CountCourses(ctx)
	if err != nil {
		t.Fatalf("CountCourses() error: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	if err := s.DeleteCourse(ctx, "Advanced Retrieval for AI"); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("second delete: expected ErrCourseNotFound, got %v", err)
	}
}
