// Package connection tracks the client side of a cursor-paginated session
// connection: the edges loaded so far, where the next page starts, and
// whether a page request is currently outstanding.
//
// A Connection is owned by a single view and is not safe for concurrent use.
// Page fetches run elsewhere and report back through Complete or Fail using
// the Ticket handed out by Begin.
package connection

import (
	"errors"
	"fmt"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
)

// Status is the load status of a Connection.
type Status int

const (
	// StatusUnloaded means no page has been applied yet.
	StatusUnloaded Status = iota
	// StatusIdle means at least one page is loaded and nothing is in flight.
	StatusIdle
	// StatusLoading means a page request is outstanding.
	StatusLoading
)

func (s Status) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Errors reported when a page cannot be applied.
var (
	ErrDuplicateCursor = errors.New("page contains a cursor that is already loaded")
	ErrEmptyCursor     = errors.New("page contains an edge without a cursor")
)

// Ticket identifies one outstanding page request.
type Ticket struct {
	generation uint64

	// First is the number of edges requested.
	First int
	// After is the cursor the page starts after. Empty for the first page.
	After string
}

// Initial reports whether the ticket requests the first page.
func (t Ticket) Initial() bool {
	return t.After == ""
}

// Connection is the ordered set of edges loaded so far.
type Connection struct {
	edges      []oauthsession.Edge
	keys       map[string]struct{}
	hasNext    bool
	endCursor  string
	totalCount int
	loaded     bool

	status     Status
	prevStatus Status
	err        error
	generation uint64
}

// New returns an empty, unloaded Connection.
func New() *Connection {
	return &Connection{keys: map[string]struct{}{}}
}

// Begin starts a page request of size first. It returns false, and changes
// nothing, when a request is already in flight, when the server reported no
// further pages, or when first is not positive.
func (c *Connection) Begin(first int) (Ticket, bool) {
	if first < 1 {
		return Ticket{}, false
	}

	switch c.status {
	case StatusLoading:
		return Ticket{}, false
	case StatusIdle:
		if !c.hasNext {
			return Ticket{}, false
		}
	}

	t := Ticket{
		generation: c.generation,
		First:      first,
		After:      c.endCursor,
	}

	c.prevStatus = c.status
	c.status = StatusLoading
	return t, true
}

// Complete applies page for the request identified by t. Stale tickets are
// ignored and report applied == false with a nil error. A page that would
// break key uniqueness is rejected whole and nothing is appended.
func (c *Connection) Complete(t Ticket, page oauthsession.Page) (applied bool, err error) {
	if !c.current(t) {
		return false, nil
	}

	seen := make(map[string]struct{}, len(page.Edges))
	for i, e := range page.Edges {
		if e.Cursor == "" {
			return false, c.reject(fmt.Errorf("edge %d: %w", i, ErrEmptyCursor))
		}
		_, loaded := c.keys[e.Cursor]
		_, dup := seen[e.Cursor]
		if loaded || dup {
			return false, c.reject(fmt.Errorf("cursor %q: %w", e.Cursor, ErrDuplicateCursor))
		}
		seen[e.Cursor] = struct{}{}
	}

	for _, e := range page.Edges {
		c.edges = append(c.edges, e)
		c.keys[e.Cursor] = struct{}{}
	}

	prevCursor := c.endCursor
	c.hasNext = page.HasNextPage
	switch {
	case page.EndCursor != "":
		c.endCursor = page.EndCursor
	case len(page.Edges) > 0:
		c.endCursor = page.Edges[len(page.Edges)-1].Cursor
	}
	// A next page with no way to address it would loop on the same cursor.
	if c.hasNext && c.endCursor == "" {
		c.hasNext = false
	}
	// So would an empty page that leaves the cursor where it was.
	if c.hasNext && len(page.Edges) == 0 && c.endCursor == prevCursor {
		c.hasNext = false
	}
	if page.TotalCount > 0 {
		c.totalCount = page.TotalCount
	}

	c.loaded = true
	c.status = StatusIdle
	c.err = nil
	return true, nil
}

// Fail records a failed request. Loaded edges and hasNext are left untouched
// and the error stays available through Err until the next success.
func (c *Connection) Fail(t Ticket, err error) bool {
	if !c.current(t) {
		return false
	}
	c.status = c.prevStatus
	c.err = err
	return true
}

// Reset discards all state. Tickets issued before the reset become stale.
func (c *Connection) Reset() {
	c.generation++
	c.edges = nil
	c.keys = map[string]struct{}{}
	c.hasNext = false
	c.endCursor = ""
	c.totalCount = 0
	c.loaded = false
	c.status = StatusUnloaded
	c.prevStatus = StatusUnloaded
	c.err = nil
}

func (c *Connection) current(t Ticket) bool {
	return c.status == StatusLoading && t.generation == c.generation
}

func (c *Connection) reject(err error) error {
	c.status = c.prevStatus
	c.err = err
	return err
}

// Edges returns a copy of the loaded edges in server order.
func (c *Connection) Edges() []oauthsession.Edge {
	out := make([]oauthsession.Edge, len(c.edges))
	copy(out, c.edges)
	return out
}

// Len returns the number of loaded edges.
func (c *Connection) Len() int { return len(c.edges) }

// HasNext reports whether the server announced another page.
func (c *Connection) HasNext() bool { return c.hasNext }

// EndCursor is the cursor the next page starts after.
func (c *Connection) EndCursor() string { return c.endCursor }

// TotalCount is the server-reported total, or 0 when unknown.
func (c *Connection) TotalCount() int { return c.totalCount }

// Loaded reports whether the first page has been applied.
func (c *Connection) Loaded() bool { return c.loaded }

// Loading reports whether a request is in flight.
func (c *Connection) Loading() bool { return c.status == StatusLoading }

// Status returns the current load status.
func (c *Connection) Status() Status { return c.status }

// Err returns the error from the most recent failed request, if any.
func (c *Connection) Err() error { return c.err }

// CanLoadMore reports whether a next-page request may be issued now.
func (c *Connection) CanLoadMore() bool {
	return c.status == StatusIdle && c.hasNext
}
