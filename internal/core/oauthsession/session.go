// Package oauthsession defines OAuth2 session domain types and the paginated
// data source contract used to list them.
package oauthsession

import (
	"fmt"
	"strings"
	"time"
)

// State represents the lifecycle state of an OAuth2 session.
type State string

const (
	StateActive   State = "active"
	StateFinished State = "finished"
)

// Client is the OAuth2 client a session was issued to.
type Client struct {
	ID         string `json:"id"`
	ClientID   string `json:"clientId"`
	ClientName string `json:"clientName"`
	ClientURI  string `json:"clientUri"`
}

// Session is a single OAuth2 session as reported by the server.
type Session struct {
	ID           string     `json:"id"`
	Scope        string     `json:"scope"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   *time.Time `json:"finishedAt"`
	LastActiveAt *time.Time `json:"lastActiveAt"`
	LastActiveIP string     `json:"lastActiveIp"`
	Client       Client     `json:"client"`
}

// State returns StateFinished once the session has a finish time.
func (s Session) State() State {
	if s.FinishedAt != nil {
		return StateFinished
	}
	return StateActive
}

// DisplayName returns the client's human readable name, falling back to its
// client ID and finally the session ID.
func (s Session) DisplayName() string {
	switch {
	case s.Client.ClientName != "":
		return s.Client.ClientName
	case s.Client.ClientID != "":
		return s.Client.ClientID
	default:
		return s.ID
	}
}

// Scopes splits the space separated scope string.
func (s Session) Scopes() []string {
	return strings.Fields(s.Scope)
}

// StateFilter restricts which sessions a page request returns.
type StateFilter string

const (
	FilterAll      StateFilter = "all"
	FilterActive   StateFilter = "active"
	FilterFinished StateFilter = "finished"
)

// ParseStateFilter parses a filter name. An empty string means FilterAll.
func ParseStateFilter(s string) (StateFilter, error) {
	switch StateFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterActive:
		return FilterActive, nil
	case FilterFinished:
		return FilterFinished, nil
	default:
		return "", fmt.Errorf("unknown state filter %q (want all, active or finished)", s)
	}
}

// Next cycles all -> active -> finished -> all.
func (f StateFilter) Next() StateFilter {
	switch f {
	case FilterAll, "":
		return FilterActive
	case FilterActive:
		return FilterFinished
	default:
		return FilterAll
	}
}
