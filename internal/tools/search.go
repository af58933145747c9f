package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern-app/lectern/internal/store"
)

// SearchToolName is the Genkit tool name for content search.
const SearchToolName = "search_course_content"

const searchToolDescription = "Search course materials with smart course name matching and lesson filtering"

// SearchInput defines input for the search_course_content tool.
type SearchInput struct {
	Query        string `json:"query" jsonschema_description:"What to search for in the course content"`
	CourseName   string `json:"course_name,omitempty" jsonschema_description:"Course title (partial matches work, e.g. 'MCP', 'Introduction')"`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema_description:"Specific lesson number to search within (e.g. 1, 2, 3)"`
}

// ContentSearcher is the slice of the store the search tool depends on.
type ContentSearcher interface {
	Search(ctx context.Context, query string, opts ...store.SearchOption) ([]store.SearchResult, error)
	LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)
	CourseLink(ctx context.Context, courseTitle string) (string, error)
}

// Search is the course-content search tool. Retrieval failures are
// reported to the model as tool output text rather than errors, so the
// conversation can continue gracefully.
type Search struct {
	store  ContentSearcher
	logger *slog.Logger
}

// NewSearch creates the search tool.
func NewSearch(store ContentSearcher, logger *slog.Logger) (*Search, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{store: store, logger: logger}, nil
}

// Name implements Tool.
func (t *Search) Name() string { return SearchToolName }

// Register implements Tool.
func (t *Search) Register(g *genkit.Genkit) ai.ToolRef {
	return genkit.DefineTool(g, SearchToolName, searchToolDescription,
		func(ctx *ai.ToolContext, input SearchInput) (string, error) {
			res, err := t.run(ctx, input)
			if err != nil {
				return "", err
			}
			return res.Text, nil
		})
}

// Execute implements Tool.
func (t *Search) Execute(ctx context.Context, input any) (Result, error) {
	typed, err := decodeInput[SearchInput](input)
	if err != nil {
		return Result{}, err
	}
	return t.run(ctx, typed)
}

func (t *Search) run(ctx context.Context, input SearchInput) (Result, error) {
	opts := []store.SearchOption{}
	if input.CourseName != "" {
		opts = append(opts, store.WithCourse(input.CourseName))
	}
	if input.LessonNumber != nil {
		opts = append(opts, store.WithLesson(*input.LessonNumber))
	}

	results, err := t.store.Search(ctx, input.Query, opts...)
	if errors.Is(err, store.ErrCourseNotFound) {
		return Result{Text: fmt.Sprintf("No course found matching '%s'", input.CourseName)}, nil
	}
	if err != nil {
		t.logger.Error("content search failed", "error", err, "query", input.Query)
		return Result{Text: fmt.Sprintf("Search error: %v", err)}, nil
	}

	if len(results) == 0 {
		return Result{Text: emptyResultText(input)}, nil
	}

	return t.formatResults(ctx, results), nil
}

// emptyResultText describes an empty search, echoing the filters the
// model asked for.
func emptyResultText(input SearchInput) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if input.CourseName != "" {
		fmt.Fprintf(&b, " in course '%s'", input.CourseName)
	}
	if input.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *input.LessonNumber)
	}
	return b.String()
}

// formatResults renders chunks as context blocks for the model and
// collects one citation per chunk. Link lookups are best effort; a chunk
// without a resolvable link still gets cited by name.
func (t *Search) formatResults(ctx context.Context, results []store.SearchResult) Result {
	blocks := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))

	for _, r := range results {
		label := sourceLabel(r.CourseTitle, r.LessonNumber)
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, r.Content))

		link := ""
		var err error
		if r.LessonNumber != nil {
			link, err = t.store.LessonLink(ctx, r.CourseTitle, *r.LessonNumber)
		} else {
			link, err = t.store.CourseLink(ctx, r.CourseTitle)
		}
		if err != nil {
			t.logger.Warn("source link lookup failed", "course", r.CourseTitle, "error", err)
			link = ""
		}
		sources = append(sources, Source{Text: label, Link: link})
	}

	return Result{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

// sourceLabel renders a citation label for a chunk.
func sourceLabel(courseTitle string, lessonNumber *int) string {
	if lessonNumber != nil {
		return fmt.Sprintf("%s - Lesson %d", courseTitle, *lessonNumber)
	}
	return courseTitle
}

// SplitSourceLabel is the inverse of a citation label: it recovers the
// course title and lesson number from "Course - Lesson N" or bare
// "Course". Labels without a trailing lesson suffix return a nil lesson.
func SplitSourceLabel(label string) (courseTitle string, lessonNumber *int) {
	idx := strings.LastIndex(label, " - Lesson ")
	if idx < 0 {
		return label, nil
	}
	var n int
	suffix := label[idx+len(" - Lesson "):]
	if _, err := fmt.Sscanf(suffix, "%d", &n); err != nil || fmt.Sprintf("%d", n) != suffix {
		return label, nil
	}
	return label[:idx], &n
}
