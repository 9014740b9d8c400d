package source

import "fmt"

// Span is a byte range within one file's normalized content.
type Span struct {
	Start uint32 // включительно
	End   uint32 // не включительно
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}
