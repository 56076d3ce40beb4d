package oauthsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
)

// MaxPageSize is the largest page the server accepts.
const MaxPageSize = 100

// Sentinel errors returned by Source implementations.
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrUserNotFound    = errors.New("user not found")
)

// Edge pairs a session with its opaque pagination cursor. The cursor doubles
// as the session's identity key in rendered lists.
type Edge struct {
	Cursor string  `json:"cursor"`
	Node   Session `json:"node"`
}

// Page is one slice of a user's session connection.
type Page struct {
	Edges       []Edge
	HasNextPage bool
	EndCursor   string
	TotalCount  int
}

// PageRequest asks for First sessions after the After cursor.
type PageRequest struct {
	UserID string
	First  int
	After  string
	State  StateFilter
}

// Validate checks that the request can be sent to a Source.
func (r PageRequest) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if r.UserID == "" {
		errs = errs.Append("user_id", errors.New("is required"))
	}
	if r.First < 1 || r.First > MaxPageSize {
		errs = errs.Append("first", fmt.Errorf("must be between 1 and %d, got %d", MaxPageSize, r.First))
	}
	if _, err := ParseStateFilter(string(r.State)); err != nil {
		errs = errs.Append("state", err)
	}

	return errs.ToError()
}

// Viewer is the user the current credentials belong to.
type Viewer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Source resolves pages of a user's OAuth2 sessions.
type Source interface {
	// ListSessions returns one page of sessions. Implementations must return
	// edges in server order and report HasNextPage false when the server
	// omits pagination info.
	ListSessions(ctx context.Context, req PageRequest) (Page, error)
	// Viewer returns the authenticated user. Returns ErrUnauthenticated for
	// anonymous credentials.
	Viewer(ctx context.Context) (Viewer, error)
}
