package manager

import "strings"

// Builder accumulates parsed records. The record under construction is only
// appended when it is terminated by Flush, the next Start or Records, and only
// if keep accepts it.
type Builder[T any] struct {
	records []T
	current *T
	keep    func(*T) bool
}

// NewBuilder creates a Builder that drops records rejected by keep.
func NewBuilder[T any](keep func(*T) bool) *Builder[T] {
	return &Builder[T]{keep: keep}
}

// Start terminates the current record and begins rec.
func (b *Builder[T]) Start(rec T) {
	b.Flush()
	b.current = &rec
}

// Current returns the record under construction, or nil between records.
func (b *Builder[T]) Current() *T {
	return b.current
}

// Flush terminates the record under construction.
func (b *Builder[T]) Flush() {
	if b.current != nil && (b.keep == nil || b.keep(b.current)) {
		b.records = append(b.records, *b.current)
	}
	b.current = nil
}

// Records terminates the current record and returns everything collected.
func (b *Builder[T]) Records() []T {
	b.Flush()
	return b.records
}

// AppendText joins a continuation line onto desc with exactly one space.
func AppendText(desc, text string) string {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return desc
	case desc == "":
		return text
	default:
		return desc + " " + text
	}
}

// IsIndented reports whether the raw line starts with whitespace.
func IsIndented(line string) bool {
	return line != "" && (line[0] == ' ' || line[0] == '\t')
}

// HasAnyPrefix reports whether s starts with one of prefixes.
func HasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ValidName reports whether name can identify a package.
func ValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, " \t")
}
