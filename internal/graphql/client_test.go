package graphql

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

const testEndpoint = "https://auth.example.com/graphql"

func newTestClient(t *testing.T, token string) *Client {
	t.Helper()

	hc := &http.Client{}
	gock.InterceptClient(hc)
	t.Cleanup(func() {
		gock.RestoreClient(hc)
		gock.Off()
	})

	return New(Options{Endpoint: testEndpoint, Token: token, HTTPClient: hc}, zerolog.Nop())
}

func TestClient_Do(t *testing.T) {
	c := newTestClient(t, "secret")

	gock.New("https://auth.example.com").
		Post("/graphql").
		MatchHeader("Authorization", "^Bearer secret$").
		HeaderPresent("X-Request-Id").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"data": map[string]any{"viewer": map[string]any{"id": "01H8USER"}},
		})

	var out struct {
		Viewer struct {
			ID string `json:"id"`
		} `json:"viewer"`
	}

	err := c.Do(context.Background(), "Viewer", "query Viewer { viewer { id } }", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "01H8USER", out.Viewer.ID)
	assert.True(t, gock.IsDone())
}

func TestClient_Do_GraphQLErrors(t *testing.T) {
	c := newTestClient(t, "")

	gock.New("https://auth.example.com").
		Post("/graphql").
		Reply(http.StatusOK).
		JSON(map[string]any{
			"data": nil,
			"errors": []map[string]any{
				{"message": "first is too large"},
				{"message": "after is invalid"},
			},
		})

	err := c.Do(context.Background(), "List", "query List { x }", nil, nil)

	var gqlErr *Error
	require.ErrorAs(t, err, &gqlErr)
	assert.Len(t, gqlErr.Entries, 2)
	assert.Equal(t, "graphql List: first is too large; after is invalid", gqlErr.Error())
}

func TestClient_Do_HTTPErrors(t *testing.T) {
	tests := []struct {
		name             string
		status           int
		wantUnauthorized bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantUnauthorized: true},
		{name: "forbidden", status: http.StatusForbidden, wantUnauthorized: true},
		{name: "server error", status: http.StatusBadGateway, wantUnauthorized: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "stale")

			gock.New("https://auth.example.com").
				Post("/graphql").
				Reply(tt.status).
				BodyString("nope")

			err := c.Do(context.Background(), "Viewer", "query Viewer { viewer { id } }", nil, nil)

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, "nope", httpErr.Body)
			assert.Equal(t, tt.wantUnauthorized, errors.Is(err, ErrUnauthorized))
		})
	}
}

func TestClient_Do_MalformedBody(t *testing.T) {
	c := newTestClient(t, "")

	gock.New("https://auth.example.com").
		Post("/graphql").
		Reply(http.StatusOK).
		BodyString("<html>proxy login</html>")

	err := c.Do(context.Background(), "Viewer", "query Viewer { viewer { id } }", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode Viewer response")
}

func TestClient_Do_EnvelopeWithoutContentType(t *testing.T) {
	c := newTestClient(t, "")

	gock.New("https://auth.example.com").
		Post("/graphql").
		Reply(http.StatusOK).
		SetHeader("Content-Type", "text/plain").
		BodyString(`{"data":{"viewer":{"id":"01H8USER"}}}`)

	var out struct {
		Viewer struct {
			ID string `json:"id"`
		} `json:"viewer"`
	}
	require.NoError(t, c.Do(context.Background(), "Viewer", "query Viewer { viewer { id } }", nil, &out))
	assert.Equal(t, "01H8USER", out.Viewer.ID)
}

func TestClient_Do_TransportError(t *testing.T) {
	c := newTestClient(t, "")

	gock.New("https://auth.example.com").
		Post("/graphql").
		ReplyError(errors.New("connection refused"))

	err := c.Do(context.Background(), "Viewer", "query Viewer { viewer { id } }", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "post Viewer")
	assert.NotContains(t, err.Error(), "decode")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
}

