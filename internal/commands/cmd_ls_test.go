package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/oauth-sessions/internal/core/connection"
	"github.com/hay-kot/oauth-sessions/internal/core/oauthsession"
	"github.com/hay-kot/oauth-sessions/pkg/tmpl"
)

type pagedSource struct {
	pages    map[string]oauthsession.Page
	err      error
	viewer   oauthsession.Viewer
	vErr     error
	requests []oauthsession.PageRequest
}

func (s *pagedSource) ListSessions(_ context.Context, req oauthsession.PageRequest) (oauthsession.Page, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return oauthsession.Page{}, s.err
	}
	return s.pages[req.After], nil
}

func (s *pagedSource) Viewer(_ context.Context) (oauthsession.Viewer, error) {
	return s.viewer, s.vErr
}

var lsNow = time.Date(2024, 1, 15, 13, 30, 0, 0, time.UTC)

func lsSession(id, client string) oauthsession.Session {
	return oauthsession.Session{
		ID:        id,
		Scope:     "openid email",
		CreatedAt: lsNow.Add(-2 * time.Hour),
		Client:    oauthsession.Client{ClientID: "cid-" + id, ClientName: client},
	}
}

func threePages() *pagedSource {
	return &pagedSource{pages: map[string]oauthsession.Page{
		"": {
			Edges: []oauthsession.Edge{
				{Cursor: "c1", Node: lsSession("S1", "Element")},
				{Cursor: "c2", Node: lsSession("S2", "FluffyChat")},
			},
			HasNextPage: true,
			EndCursor:   "c2",
			TotalCount:  3,
		},
		"c2": {
			Edges:       []oauthsession.Edge{{Cursor: "c3", Node: lsSession("S3", "Nheko")}},
			HasNextPage: false,
			EndCursor:   "c3",
		},
	}}
}

func TestCollectPages_SinglePage(t *testing.T) {
	src := threePages()

	conn, err := collectPages(context.Background(), src, pageQuery{
		UserID: "01H8USER",
		First:  2,
		State:  oauthsession.FilterActive,
	})
	require.NoError(t, err)

	require.Len(t, src.requests, 1)
	assert.Equal(t, oauthsession.PageRequest{UserID: "01H8USER", First: 2, State: oauthsession.FilterActive}, src.requests[0])
	assert.Equal(t, 2, conn.Len())
	assert.True(t, conn.HasNext())
	assert.Equal(t, "c2", conn.EndCursor())
}

func TestCollectPages_All(t *testing.T) {
	src := threePages()

	conn, err := collectPages(context.Background(), src, pageQuery{UserID: "01H8USER", First: 2, All: true})
	require.NoError(t, err)

	require.Len(t, src.requests, 2)
	assert.Equal(t, "c2", src.requests[1].After)

	var ids []string
	for _, e := range conn.Edges() {
		ids = append(ids, e.Node.ID)
	}
	assert.Equal(t, []string{"S1", "S2", "S3"}, ids)
	assert.False(t, conn.HasNext())
}

func TestCollectPages_StartsAfterCursor(t *testing.T) {
	src := threePages()

	conn, err := collectPages(context.Background(), src, pageQuery{UserID: "01H8USER", First: 2, After: "c2"})
	require.NoError(t, err)

	assert.Equal(t, "c2", src.requests[0].After)
	assert.Equal(t, 1, conn.Len())
}

func TestCollectPages_Errors(t *testing.T) {
	t.Run("source error", func(t *testing.T) {
		src := &pagedSource{err: oauthsession.ErrUnauthenticated}
		_, err := collectPages(context.Background(), src, pageQuery{UserID: "u", First: 2})
		require.ErrorIs(t, err, oauthsession.ErrUnauthenticated)
	})

	t.Run("repeated cursor stops paging", func(t *testing.T) {
		src := threePages()
		src.pages["c2"] = oauthsession.Page{
			Edges:       []oauthsession.Edge{{Cursor: "c1", Node: lsSession("S1", "Element")}},
			HasNextPage: true,
			EndCursor:   "c1",
		}
		_, err := collectPages(context.Background(), src, pageQuery{UserID: "u", First: 2, All: true})
		require.ErrorIs(t, err, connection.ErrDuplicateCursor)
		assert.Len(t, src.requests, 2)
	})

	t.Run("stalled page ends paging", func(t *testing.T) {
		src := threePages()
		src.pages["c2"] = oauthsession.Page{HasNextPage: true}

		conn, err := collectPages(context.Background(), src, pageQuery{UserID: "u", First: 2, All: true})
		require.NoError(t, err)
		assert.Len(t, src.requests, 2)
		assert.Equal(t, 2, conn.Len())
		assert.False(t, conn.HasNext())
	})
}

func loadedConn(t *testing.T) *connection.Connection {
	t.Helper()
	conn, err := collectPages(context.Background(), threePages(), pageQuery{UserID: "u", First: 2})
	require.NoError(t, err)
	return conn
}

func TestWriteTable(t *testing.T) {
	seen := lsNow.Add(-10 * time.Minute)
	edges := loadedConn(t).Edges()
	edges[0].Node.LastActiveAt = &seen

	var buf bytes.Buffer
	writeTable(&buf, edges, lsNow)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"CURSOR", "ID", "CLIENT", "STATE", "CREATED", "LAST", "ACTIVE"}, strings.Fields(lines[0]))
	assert.Contains(t, lines[1], "c1")
	assert.Contains(t, lines[1], "Element")
	assert.Contains(t, lines[1], "2 hours ago")
	assert.Contains(t, lines[1], "10 minutes ago")
	assert.True(t, strings.HasSuffix(lines[2], "never"))
}

func TestWriteFormatted(t *testing.T) {
	tpl, err := tmpl.Parse(`{{.Cursor}} {{.DisplayName}} {{.State}} {{join .Scopes ","}}`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeFormatted(&buf, tpl, loadedConn(t).Edges()))

	assert.Equal(t, "c1 Element active openid,email\nc2 FluffyChat active openid,email\n", buf.String())
}

func TestWriteFormatted_RenderError(t *testing.T) {
	tpl, err := tmpl.Parse(`{{.Missing}}`)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = writeFormatted(&buf, tpl, loadedConn(t).Edges())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render c1")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, loadedConn(t)))

	var out struct {
		Edges []struct {
			Cursor string `json:"cursor"`
		} `json:"edges"`
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
		TotalCount  int    `json:"totalCount"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))

	require.Len(t, out.Edges, 2)
	assert.Equal(t, "c1", out.Edges[0].Cursor)
	assert.True(t, out.HasNextPage)
	assert.Equal(t, "c2", out.EndCursor)
	assert.Equal(t, 3, out.TotalCount)
}

func TestResolveUser(t *testing.T) {
	viewer := oauthsession.Viewer{ID: "01H8VIEWER", Username: "alice"}

	tests := []struct {
		name    string
		flag    string
		config  string
		vErr    error
		want    target
		wantErr error
	}{
		{name: "flag wins", flag: "01H8FLAG", config: "01H8CFG", want: target{UserID: "01H8FLAG", Label: "01H8FLAG"}},
		{name: "config", config: "01H8CFG", want: target{UserID: "01H8CFG", Label: "01H8CFG"}},
		{name: "viewer", want: target{UserID: "01H8VIEWER", Label: "alice"}},
		{name: "unauthenticated", vErr: oauthsession.ErrUnauthenticated, wantErr: oauthsession.ErrUnauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testFlagsConfig()
			cfg.UserID = tt.config
			flags := &Flags{
				UserID: tt.flag,
				Config: cfg,
				Source: &pagedSource{viewer: viewer, vErr: tt.vErr},
			}

			got, err := resolveUser(context.Background(), flags)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequireValidConfig(t *testing.T) {
	require.NoError(t, requireValidConfig(&Flags{Config: testFlagsConfig()}))

	bad := testFlagsConfig()
	bad.Endpoint = "not a url"
	err := requireValidConfig(&Flags{Config: bad})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Len(t, extractFieldErrors(errors.Unwrap(err)), 1)

	require.Error(t, requireValidConfig(&Flags{}))
}

func TestRequiredValidator(t *testing.T) {
	v := requiredValidator("User ID")
	require.EqualError(t, v("  "), "User ID is required")
	require.NoError(t, v("01H8USER"))
}
