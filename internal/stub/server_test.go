package stub

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/churnscout/internal/api"
	"github.com/csheth/churnscout/internal/response"
)

func demoServer(t *testing.T) *httptest.Server {
	t.Helper()
	fx, err := LoadFixture("")
	require.NoError(t, err)
	server := httptest.NewServer(NewServer(Config{Fixture: fx, Sleep: func(time.Duration) {}}))
	t.Cleanup(server.Close)
	return server
}

func TestDemoFixtureThroughClient(t *testing.T) {
	server := demoServer(t)
	client, err := api.New(api.Config{Endpoint: server.URL + "/api/query", HTTPClient: server.Client()})
	require.NoError(t, err)

	resp, err := client.Query(context.Background(), "Analyze churn for Acme Co")
	require.NoError(t, err)
	assert.Equal(t, response.IntentAnalysis, resp.Intent)
	require.NotNil(t, resp.Assessment)
	assert.Equal(t, 85, resp.Assessment.ChurnScore)
	assert.Empty(t, resp.Warnings)

	resp, err = client.Query(context.Background(), "Show transcripts for Acme Co")
	require.NoError(t, err)
	assert.Len(t, resp.Transcripts, 2)

	resp, err = client.Query(context.Background(), "show me transcripts for Globex")
	require.NoError(t, err)
	assert.NotNil(t, resp.Transcripts)
	assert.Empty(t, resp.Transcripts)

	resp, err = client.Query(context.Background(), "Who are the top 3 customers by revenue?")
	require.NoError(t, err)
	assert.IsType(t, response.AnswerPayload{}, response.Classify(resp))

	_, err = client.Query(context.Background(), "trigger a server error")
	assert.ErrorIs(t, err, api.ErrTransport)

	_, err = client.Query(context.Background(), "malformed please")
	assert.ErrorIs(t, err, response.ErrMalformed)
}

func TestQueryAcceptsMessageField(t *testing.T) {
	server := demoServer(t)
	client, err := api.New(api.Config{Endpoint: server.URL + "/api/chat", RequestField: "message", HTTPClient: server.Client()})
	require.NoError(t, err)
	resp, err := client.Query(context.Background(), "unknown company please")
	require.NoError(t, err)
	assert.Equal(t, "Company not found in the customer database.", resp.Error)
}

func TestQueryRejectsBadRequests(t *testing.T) {
	server := demoServer(t)
	for body, want := range map[string]int{
		`not json`:          http.StatusBadRequest,
		`{"user_query":""}`: http.StatusUnprocessableEntity,
	} {
		res, err := server.Client().Post(server.URL+"/api/query", "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, want, res.StatusCode, body)
	}
}

func TestHealth(t *testing.T) {
	server := demoServer(t)
	res, err := server.Client().Get(server.URL + "/api/health")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestReplyDelayUsesSleep(t *testing.T) {
	fx, err := ParseFixture([]byte("routes:\n  - match: slow\n    delay: 2s\n    body: '{}'\n"))
	require.NoError(t, err)
	var slept time.Duration
	server := httptest.NewServer(NewServer(Config{Fixture: fx, Sleep: func(d time.Duration) { slept = d }}))
	defer server.Close()

	res, err := server.Client().Post(server.URL+"/api/query", "application/json", bytes.NewBufferString(`{"user_query":"slow one"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, 2*time.Second, slept)
}

func TestCORSWhenOriginConfigured(t *testing.T) {
	server := httptest.NewServer(NewServer(Config{AllowedOrigin: "http://localhost:3000"}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodOptions, server.URL+"/api/query", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	res, err := server.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestParseFixtureValidation(t *testing.T) {
	_, err := ParseFixture([]byte("routes:\n  - match: ''\n    body: '{}'\n"))
	assert.Error(t, err)
	_, err = ParseFixture([]byte("routes:\n  - match: x\n    body: 'nope'\n"))
	assert.Error(t, err)
	fx, err := ParseFixture([]byte("routes:\n  - match: x\n    raw: true\n    body: 'nope'\n"))
	require.NoError(t, err)
	assert.Equal(t, 200, fx.Routes[0].Status)
	assert.Equal(t, 200, fx.Default.Status)
	assert.Equal(t, "nope", fx.Lookup("X marks").Body)
	assert.Equal(t, fx.Default, fx.Lookup("nothing"))
}
