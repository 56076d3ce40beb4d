package mas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"

	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
	"github.com/hay-kot/oauth-sessions/internal/graphql"
)

const host = "https://auth.example.com"

func newTestSource(t *testing.T) *SessionSource {
	t.Helper()

	hc := &http.Client{}
	gock.InterceptClient(hc)
	t.Cleanup(func() {
		gock.RestoreClient(hc)
		gock.Off()
	})

	client := graphql.New(graphql.Options{Endpoint: host + "/graphql", Token: "tok", HTTPClient: hc}, zerolog.Nop())
	return New(client, zerolog.Nop())
}

// matchVariables matches requests whose GraphQL variables equal want.
func matchVariables(want map[string]any) gock.MatchFunc {
	return func(req *http.Request, _ *gock.Request) (bool, error) {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return false, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))

		var gqlReq graphql.Request
		if err := json.Unmarshal(body, &gqlReq); err != nil {
			return false, err
		}

		got, _ := json.Marshal(gqlReq.Variables)
		exp, _ := json.Marshal(want)
		return bytes.Equal(got, exp), nil
	}
}

func sessionNode(id, client string) map[string]any {
	return map[string]any{
		"id":           id,
		"scope":        "openid urn:matrix:org.matrix.msc2967.client:api:*",
		"createdAt":    "2024-01-15T10:30:00Z",
		"finishedAt":   nil,
		"lastActiveAt": "2024-01-16T08:00:00Z",
		"lastActiveIp": "203.0.113.7",
		"client": map[string]any{
			"id":         "cl-" + id,
			"clientId":   "client-" + id,
			"clientName": client,
			"clientUri":  "https://element.example.com",
		},
	}
}

func TestSessionSource_ListSessions(t *testing.T) {
	src := newTestSource(t)

	gock.New(host).
		Post("/graphql").
		AddMatcher(matchVariables(map[string]any{"userId": "01H8USER", "first": 2})).
		Reply(http.StatusOK).
		JSON(map[string]any{
			"data": map[string]any{
				"user": map[string]any{
					"id": "01H8USER",
					"oauth2Sessions": map[string]any{
						"totalCount": 3,
						"edges": []map[string]any{
							{"cursor": "c1", "node": sessionNode("S1", "Element")},
							{"cursor": "c2", "node": sessionNode("S2", "FluffyChat")},
						},
						"pageInfo": map[string]any{"hasNextPage": true, "endCursor": "c2"},
					},
				},
			},
		})

	page, err := src.ListSessions(context.Background(), oauthsession.PageRequest{UserID: "01H8USER", First: 2})
	require.NoError(t, err)

	require.Len(t, page.Edges, 2)
	assert.Equal(t, "c1", page.Edges[0].Cursor)
	assert.Equal(t, "S1", page.Edges[0].Node.ID)
	assert.Equal(t, "Element", page.Edges[0].Node.Client.ClientName)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), page.Edges[0].Node.CreatedAt)
	assert.Nil(t, page.Edges[0].Node.FinishedAt)
	require.NotNil(t, page.Edges[0].Node.LastActiveAt)
	assert.Equal(t, "203.0.113.7", page.Edges[0].Node.LastActiveIP)
	assert.Equal(t, "c2", page.Edges[1].Cursor)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "c2", page.EndCursor)
	assert.Equal(t, 3, page.TotalCount)
	assert.True(t, gock.IsDone())
}

func TestSessionSource_ListSessions_SendsCursorAndState(t *testing.T) {
	src := newTestSource(t)

	gock.New(host).
		Post("/graphql").
		AddMatcher(matchVariables(map[string]any{
			"after":  "c2",
			"first":  2,
			"state":  "FINISHED",
			"userId": "01H8USER",
		})).
		Reply(http.StatusOK).
		JSON(map[string]any{
			"data": map[string]any{
				"user": map[string]any{
					"id": "01H8USER",
					"oauth2Sessions": map[string]any{
						"edges":    []map[string]any{{"cursor": "c3", "node": sessionNode("S3", "Nheko")}},
						"pageInfo": map[string]any{"hasNextPage": false, "endCursor": "c3"},
					},
				},
			},
		})

	page, err := src.ListSessions(context.Background(), oauthsession.PageRequest{
		UserID: "01H8USER",
		First:  2,
		After:  "c2",
		State:  oauthsession.FilterFinished,
	})
	require.NoError(t, err)
	require.Len(t, page.Edges, 1)
	assert.False(t, page.HasNextPage)
	assert.True(t, gock.IsDone())
}

func TestSessionSource_ListSessions_MissingPageInfo(t *testing.T) {
	src := newTestSource(t)

	gock.New(host).
		Post("/graphql").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"data": map[string]any{
				"user": map[string]any{
					"id": "01H8USER",
					"oauth2Sessions": map[string]any{
						"edges": []map[string]any{{"cursor": "c1", "node": sessionNode("S1", "Element")}},
					},
				},
			},
		})

	page, err := src.ListSessions(context.Background(), oauthsession.PageRequest{UserID: "01H8USER", First: 2})
	require.NoError(t, err)
	assert.Len(t, page.Edges, 1)
	assert.False(t, page.HasNextPage, "missing pageInfo must not announce more pages")
}

func TestSessionSource_ListSessions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    map[string]any
		wantErr error
	}{
		{
			name:    "unknown user",
			status:  http.StatusOK,
			body:    map[string]any{"data": map[string]any{"user": nil}},
			wantErr: oauthsession.ErrUserNotFound,
		},
		{
			name:    "expired token",
			status:  http.StatusUnauthorized,
			body:    map[string]any{"error": "invalid_token"},
			wantErr: oauthsession.ErrUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t)

			gock.New(host).
				Post("/graphql").
				Reply(tt.status).
				JSON(tt.body)

			_, err := src.ListSessions(context.Background(), oauthsession.PageRequest{UserID: "01H8USER", First: 2})
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSessionSource_ListSessions_InvalidRequest(t *testing.T) {
	src := newTestSource(t)

	_, err := src.ListSessions(context.Background(), oauthsession.PageRequest{First: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid page request")
	assert.False(t, gock.HasUnmatchedRequest())
}

func TestSessionSource_Viewer(t *testing.T) {
	t.Run("user", func(t *testing.T) {
		src := newTestSource(t)

		gock.New(host).
			Post("/graphql").
			Reply(http.StatusOK).
			JSON(map[string]any{
				"data": map[string]any{
					"viewer": map[string]any{"__typename": "User", "id": "01H8USER", "username": "alice"},
				},
			})

		viewer, err := src.Viewer(context.Background())
		require.NoError(t, err)
		assert.Equal(t, oauthsession.Viewer{ID: "01H8USER", Username: "alice"}, viewer)
	})

	t.Run("anonymous", func(t *testing.T) {
		src := newTestSource(t)

		gock.New(host).
			Post("/graphql").
			Reply(http.StatusOK).
			JSON(map[string]any{
				"data": map[string]any{"viewer": map[string]any{"__typename": "Anonymous"}},
			})

		_, err := src.Viewer(context.Background())
		require.ErrorIs(t, err, oauthsession.ErrUnauthenticated)
	})
}

func TestStateVariable(t *testing.T) {
	assert.Equal(t, "", stateVariable(oauthsession.FilterAll))
	assert.Equal(t, "", stateVariable(""))
	assert.Equal(t, "ACTIVE", stateVariable(oauthsession.FilterActive))
	assert.Equal(t, "FINISHED", stateVariable(oauthsession.FilterFinished))
}

func TestMapError(t *testing.T) {
	plain := errors.New("boom")
	assert.Equal(t, plain, mapError(plain))

	wrapped := mapError(&graphql.HTTPError{StatusCode: http.StatusUnauthorized})
	assert.ErrorIs(t, wrapped, oauthsession.ErrUnauthenticated)
	assert.ErrorIs(t, wrapped, graphql.ErrUnauthorized)
}
