// Package ingest turns course transcript files into catalog entries and
// retrieval chunks.
//
// Transcript format: three metadata lines, then lesson sections.
//
//	Course Title: MCP: Build Rich-Context AI Apps
//	Course Link: https://example.com/mcp
//	Course Instructor: Jane Doe
//
//	Lesson 0: Introduction
//	Lesson Link: https://example.com/mcp/lesson/0
//	<transcript text...>
//
// Content is split into overlapping chunks on sentence boundaries, and
// each chunk is prefixed with its course and lesson so embeddings keep
// their context when retrieved in isolation.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/lectern-app/lectern/internal/course"
)

var lessonHeaderRe = regexp.MustCompile(`^Lesson (\d+):\s*(.*)$`)

// Document is one parsed transcript: course metadata plus the raw text
// of each section, keyed by lesson.
type Document struct {
	Course   course.Course
	Sections []Section
}

// Section is the transcript text belonging to one lesson, or to the
// preamble when LessonNumber is nil.
type Section struct {
	LessonNumber *int
	Text         string
}

// Parse reads a transcript. The three metadata lines are required in
// order; everything after them belongs to lesson sections.
func Parse(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	title, err := metadataLine(scanner, "Course Title:")
	if err != nil {
		return nil, err
	}
	link, err := metadataLine(scanner, "Course Link:")
	if err != nil {
		return nil, err
	}
	instructor, err := metadataLine(scanner, "Course Instructor:")
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Course: course.Course{
			Title:      title,
			Link:       link,
			Instructor: instructor,
		},
	}

	var (
		current     *Section
		currentText []string
		lastLesson  *course.Lesson
	)
	flush := func() {
		if current != nil {
			current.Text = strings.TrimSpace(strings.Join(currentText, "\n"))
			if current.Text != "" {
				doc.Sections = append(doc.Sections, *current)
			}
		}
		currentText = nil
	}

	for scanner.Scan() {
		line := scanner.Text()

		if m := lessonHeaderRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			flush()
			num, _ := strconv.Atoi(m[1])
			doc.Course.Lessons = append(doc.Course.Lessons, course.Lesson{
				Number: num,
				Title:  strings.TrimSpace(m[2]),
			})
			lastLesson = &doc.Course.Lessons[len(doc.Course.Lessons)-1]
			n := num
			current = &Section{LessonNumber: &n}
			continue
		}

		if after, ok := strings.CutPrefix(strings.TrimSpace(line), "Lesson Link:"); ok && lastLesson != nil && len(currentText) == 0 {
			lastLesson.Link = strings.TrimSpace(after)
			continue
		}

		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			current = &Section{}
		}
		currentText = append(currentText, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	return doc, nil
}

// metadataLine consumes the next non-empty line and strips the required
// prefix.
func metadataLine(scanner *bufio.Scanner, prefix string) (string, error) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		value, ok := strings.CutPrefix(line, prefix)
		if !ok {
			return "", fmt.Errorf("expected %q line, got %q", prefix, line)
		}
		return strings.TrimSpace(value), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	return "", fmt.Errorf("transcript ended before %q line", prefix)
}

// Chunks converts the parsed sections into retrieval chunks with
// course-wide sequential indexes and context prefixes.
func (d *Document) Chunks(chunkSize, overlap int) []course.Chunk {
	var chunks []course.Chunk
	index := 0

	for _, section := range d.Sections {
		prefix := fmt.Sprintf("Course %s content: ", d.Course.Title)
		if section.LessonNumber != nil {
			prefix = fmt.Sprintf("Course %s Lesson %d content: ", d.Course.Title, *section.LessonNumber)
		}

		for _, piece := range splitText(section.Text, chunkSize, overlap) {
			chunks = append(chunks, course.Chunk{
				Content:      prefix + piece,
				CourseTitle:  d.Course.Title,
				LessonNumber: section.LessonNumber,
				ChunkIndex:   index,
			})
			index++
		}
	}
	return chunks
}
