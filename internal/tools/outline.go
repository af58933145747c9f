package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern-app/lectern/internal/course"
	"github.com/lectern-app/lectern/internal/store"
)

// OutlineToolName is the Genkit tool name for course outlines.
const OutlineToolName = "get_course_outline"

const outlineToolDescription = "Get the complete outline of a course including title, link, and all lessons"

// OutlineInput defines input for the get_course_outline tool.
type OutlineInput struct {
	CourseName string `json:"course_name" jsonschema_description:"Course title (partial matches work, e.g. 'MCP', 'Introduction')"`
}

// CourseOutliner is the slice of the store the outline tool depends on.
type CourseOutliner interface {
	Outline(ctx context.Context, name string) (course.Course, error)
}

// Outline returns a course's structure: title, link, and lesson list.
// Outline results carry no source citations; the outline itself names
// the course.
type Outline struct {
	store  CourseOutliner
	logger *slog.Logger
}

// NewOutline creates the outline tool.
func NewOutline(store CourseOutliner, logger *slog.Logger) (*Outline, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Outline{store: store, logger: logger}, nil
}

// Name implements Tool.
func (t *Outline) Name() string { return OutlineToolName }

// Register implements Tool.
func (t *Outline) Register(g *genkit.Genkit) ai.ToolRef {
	return genkit.DefineTool(g, OutlineToolName, outlineToolDescription,
		func(ctx *ai.ToolContext, input OutlineInput) (string, error) {
			res, err := t.run(ctx, input)
			if err != nil {
				return "", err
			}
			return res.Text, nil
		})
}

// Execute implements Tool.
func (t *Outline) Execute(ctx context.Context, input any) (Result, error) {
	typed, err := decodeInput[OutlineInput](input)
	if err != nil {
		return Result{}, err
	}
	return t.run(ctx, typed)
}

func (t *Outline) run(ctx context.Context, input OutlineInput) (Result, error) {
	c, err := t.store.Outline(ctx, input.CourseName)
	if errors.Is(err, store.ErrCourseNotFound) {
		return Result{Text: fmt.Sprintf("No course found matching '%s'", input.CourseName)}, nil
	}
	if err != nil {
		t.logger.Error("outline lookup failed", "error", err, "course", input.CourseName)
		return Result{Text: fmt.Sprintf("Outline error: %v", err)}, nil
	}

	return Result{Text: formatOutline(c)}, nil
}

// formatOutline renders a course outline as plain text.
func formatOutline(c course.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", c.Title)
	fmt.Fprintf(&b, "Link: %s\n", c.Link)
	b.WriteString("Lessons:")
	for _, l := range c.Lessons {
		fmt.Fprintf(&b, "\nLesson %d: %s", l.Number, l.Title)
	}
	return b.String()
}
