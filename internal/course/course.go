// Package course defines the data model for ingested course material.
//
// A Course is identified by its title and owns an ordered list of lessons.
// Chunk is the unit of semantic retrieval: a slice of transcript text with
// enough metadata to attribute it back to its course and lesson. Records
// are created once at ingestion and treated as read-only afterwards;
// re-ingesting a course replaces all of its chunks.
package course

// Lesson is a single lesson within a course. Number is unique within the
// owning course and usually starts at 0 to match the published material.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// Course is the full metadata of one course. Title doubles as the unique
// identifier across the system.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson returns the lesson with the given number, or false when the
// course has no such lesson.
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

// Chunk is one retrievable slice of course content. Content carries a
// course/lesson context prefix added at ingestion so that embeddings stay
// meaningful without surrounding text. LessonNumber is nil for content that
// precedes any lesson marker.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}
