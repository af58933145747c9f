package ingest

import (
	"strings"
	"testing"
)

const sampleTranscript = `Course Title: MCP: Build Rich-Context AI Apps
Course Link: https://example.com/mcp
Course Instructor: Jane Doe

Lesson 0: Introduction
Lesson Link: https://example.com/mcp/lesson/0
Welcome to the course. This lesson covers the basics.

Lesson 1: Why MCP
MCP standardizes context exchange. It replaces bespoke integrations.
`

func TestParse_Metadata(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if doc.Course.Title != "MCP: Build Rich-Context AI Apps" {
		t.Errorf("title = %q", doc.Course.Title)
	}
	if doc.Course.Link != "https://example.com/mcp" {
		t.Errorf("link = %q", doc.Course.Link)
	}
	if doc.Course.Instructor != "Jane Doe" {
		t.Errorf("instructor = %q", doc.Course.Instructor)
	}
}

func TestParse_Lessons(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(doc.Course.Lessons) != 2 {
		t.Fatalf("got %d lessons, want 2", len(doc.Course.Lessons))
	}

	l0 := doc.Course.Lessons[0]
	if l0.Number != 0 || l0.Title != "Introduction" {
		t.Errorf("lesson 0 = %+v", l0)
	}
	if l0.Link != "https://example.com/mcp/lesson/0" {
		t.Errorf("lesson 0 link = %q", l0.Link)
	}

	l1 := doc.Course.Lessons[1]
	if l1.Number != 1 || l1.Title != "Why MCP" {
		t.Errorf("lesson 1 = %+v", l1)
	}
	if l1.Link != "" {
		t.Errorf("lesson 1 link = %q, want empty", l1.Link)
	}
}

func TestParse_Sections(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(doc.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(doc.Sections))
	}
	if doc.Sections[0].LessonNumber == nil || *doc.Sections[0].LessonNumber != 0 {
		t.Errorf("section 0 lesson = %v", doc.Sections[0].LessonNumber)
	}
	if !strings.Contains(doc.Sections[0].Text, "Welcome to the course.") {
		t.Errorf("section 0 text = %q", doc.Sections[0].Text)
	}
}

func TestParse_PreambleContent(t *testing.T) {
	transcript := `Course Title: T
Course Link: L
Course Instructor: I

Some preamble before any lesson.

Lesson 0: First
Lesson content here.
`
	doc, err := Parse(strings.NewReader(transcript))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(doc.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(doc.Sections))
	}
	if doc.Sections[0].LessonNumber != nil {
		t.Errorf("preamble section carries lesson %v", *doc.Sections[0].LessonNumber)
	}
	if doc.Sections[0].Text != "Some preamble before any lesson." {
		t.Errorf("preamble text = %q", doc.Sections[0].Text)
	}
}

func TestParse_MissingMetadata(t *testing.T) {
	_, err := Parse(strings.NewReader("not a transcript"))
	if err == nil {
		t.Fatal("expected error for missing metadata")
	}
}

func TestChunks_PrefixesAndIndexes(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleTranscript))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	chunks := doc.Chunks(800, 100)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	if !strings.HasPrefix(chunks[0].Content, "Course MCP: Build Rich-Context AI Apps Lesson 0 content: ") {
		t.Errorf("chunk 0 prefix wrong: %q", chunks[0].Content)
	}
	if chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 1 {
		t.Errorf("chunk indexes = %d, %d", chunks[0].ChunkIndex, chunks[1].ChunkIndex)
	}
	if chunks[1].LessonNumber == nil || *chunks[1].LessonNumber != 1 {
		t.Errorf("chunk 1 lesson = %v", chunks[1].LessonNumber)
	}
}
