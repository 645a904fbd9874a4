// Package ticket defines the side-effect sink: the external system that
// performs the real-world remediation (an issue tracker). The executor only
// sees the Sink interface; implementations differ between production and
// tests.
package ticket

import "context"

// Ticket is the external reference returned by a sink.
type Ticket struct {
	TicketID  string   `json:"ticket_id"`
	TicketURL string   `json:"ticket_url"`
	Title     string   `json:"title"`
	Labels    []string `json:"labels"`
	Body      string   `json:"body,omitempty"`
}

// Sink creates a ticket in an external system. Implementations make exactly
// one attempt per call; retry policy belongs to the caller.
type Sink interface {
	CreateTicket(ctx context.Context, title, body string, labels []string) (*Ticket, error)
}
