// Package mas implements oauthsession.Source against the GraphQL API of a
// Matrix authentication service.
package mas

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
	"github.com/hay-kot/oauth-sessions/internal/graphql"
)

// Doer executes a GraphQL operation. *graphql.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, operation, query string, variables map[string]any, out any) error
}

// SessionSource lists OAuth2 sessions through the GraphQL API.
type SessionSource struct {
	client Doer
	log    zerolog.Logger
}

var _ oauthsession.Source = (*SessionSource)(nil)

// New creates a SessionSource.
func New(client Doer, log zerolog.Logger) *SessionSource {
	return &SessionSource{client: client, log: log}
}

type pageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type sessionConnection struct {
	TotalCount int                 `json:"totalCount"`
	Edges      []oauthsession.Edge `json:"edges"`
	PageInfo   *pageInfo           `json:"pageInfo"`
}

type sessionListData struct {
	User *struct {
		ID             string             `json:"id"`
		OAuth2Sessions *sessionConnection `json:"oauth2Sessions"`
	} `json:"user"`
}

// ListSessions fetches one page of the user's OAuth2 sessions.
func (s *SessionSource) ListSessions(ctx context.Context, req oauthsession.PageRequest) (oauthsession.Page, error) {
	if err := req.Validate(); err != nil {
		return oauthsession.Page{}, fmt.Errorf("invalid page request: %w", err)
	}

	vars := map[string]any{
		"userId": req.UserID,
		"first":  req.First,
	}
	if req.After != "" {
		vars["after"] = req.After
	}
	if state := stateVariable(req.State); state != "" {
		vars["state"] = state
	}

	var data sessionListData
	if err := s.client.Do(ctx, opSessionList, querySessionList, vars, &data); err != nil {
		return oauthsession.Page{}, mapError(err)
	}

	if data.User == nil {
		return oauthsession.Page{}, fmt.Errorf("%w: %s", oauthsession.ErrUserNotFound, req.UserID)
	}

	conn := data.User.OAuth2Sessions
	if conn == nil {
		s.log.Warn().Str("user_id", req.UserID).Msg("response has no oauth2Sessions connection")
		return oauthsession.Page{}, nil
	}

	page := oauthsession.Page{
		Edges:      conn.Edges,
		TotalCount: conn.TotalCount,
	}

	// Without pageInfo there is no safe way to continue.
	if conn.PageInfo == nil {
		s.log.Warn().Str("user_id", req.UserID).Msg("response has no pageInfo, treating as last page")
	} else {
		page.HasNextPage = conn.PageInfo.HasNextPage
		page.EndCursor = conn.PageInfo.EndCursor
	}

	s.log.Debug().
		Str("user_id", req.UserID).
		Str("after", req.After).
		Int("edges", len(page.Edges)).
		Bool("has_next", page.HasNextPage).
		Msg("loaded session page")

	return page, nil
}

type viewerData struct {
	Viewer struct {
		Typename string `json:"__typename"`
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"viewer"`
}

// Viewer returns the user the configured token belongs to.
func (s *SessionSource) Viewer(ctx context.Context) (oauthsession.Viewer, error) {
	var data viewerData
	if err := s.client.Do(ctx, opViewer, queryViewer, nil, &data); err != nil {
		return oauthsession.Viewer{}, mapError(err)
	}

	if data.Viewer.Typename != "User" || data.Viewer.ID == "" {
		return oauthsession.Viewer{}, fmt.Errorf("%w: viewer is %s", oauthsession.ErrUnauthenticated, data.Viewer.Typename)
	}

	return oauthsession.Viewer{ID: data.Viewer.ID, Username: data.Viewer.Username}, nil
}

func stateVariable(f oauthsession.StateFilter) string {
	switch f {
	case oauthsession.FilterActive, oauthsession.FilterFinished:
		return strings.ToUpper(string(f))
	default:
		return ""
	}
}

func mapError(err error) error {
	if errors.Is(err, graphql.ErrUnauthorized) {
		return fmt.Errorf("%w: %w", oauthsession.ErrUnauthenticated, err)
	}
	return err
}
