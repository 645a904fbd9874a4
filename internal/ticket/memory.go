package ticket

import (
	"context"
	"fmt"
	"sync"
)

// Sequence hands out monotonically increasing ticket numbers. It is an
// explicitly owned generator injected into the sink, so tests control the
// numbering instead of sharing hidden package state.
type Sequence struct {
	mu   sync.Mutex
	next int
}

// NewSequence starts a sequence; the first Next returns start+1.
func NewSequence(start int) *Sequence {
	return &Sequence{next: start}
}

func (s *Sequence) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// MemorySink is the deterministic in-process sink for development and tests.
// References are stable per sequence: "<repo>-101", "<repo>-102", ...
type MemorySink struct {
	repo string
	seq  *Sequence
}

// NewMemorySink builds a sink for the given repo label. A nil sequence gets
// the conventional 100 start, matching the numbering compliance fixtures
// expect.
func NewMemorySink(repo string, seq *Sequence) *MemorySink {
	if seq == nil {
		seq = NewSequence(100)
	}
	return &MemorySink{repo: repo, seq: seq}
}

func (s *MemorySink) CreateTicket(_ context.Context, title, body string, labels []string) (*Ticket, error) {
	if labels == nil {
		labels = []string{}
	}
	n := s.seq.Next()
	return &Ticket{
		TicketID:  fmt.Sprintf("%s-%d", s.repo, n),
		TicketURL: fmt.Sprintf("https://example.com/%s/issues/%d", s.repo, n),
		Title:     title,
		Labels:    labels,
		Body:      body,
	}, nil
}
