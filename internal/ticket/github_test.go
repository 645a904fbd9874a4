package ticket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGitHubSink(t *testing.T) {
	_, err := NewGitHubSink("", "owner/repo")
	assert.Error(t, err)

	_, err = NewGitHubSink("token", "")
	assert.Error(t, err)

	sink, err := NewGitHubSink("token", "owner/repo")
	require.NoError(t, err)
	assert.NotNil(t, sink)
}

func TestGitHubSinkCreateTicket(t *testing.T) {
	t.Run("creates issue and maps response", func(t *testing.T) {
		var gotPath, gotAuth string
		var gotBody createIssueRequest

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(createIssueResponse{
				Number:  7,
				HTMLURL: "https://github.com/owner/repo/issues/7",
			})
		}))
		defer srv.Close()

		sink, err := NewGitHubSink("tok", "owner/repo", WithBaseURL(srv.URL))
		require.NoError(t, err)

		tkt, err := sink.CreateTicket(context.Background(), "Timeout", "details", []string{"billing"})
		require.NoError(t, err)

		assert.Equal(t, "/repos/owner/repo/issues", gotPath)
		assert.Equal(t, "Bearer tok", gotAuth)
		assert.Equal(t, "Timeout", gotBody.Title)
		assert.Equal(t, []string{"billing"}, gotBody.Labels)

		assert.Equal(t, "7", tkt.TicketID)
		assert.Equal(t, "https://github.com/owner/repo/issues/7", tkt.TicketURL)
	})

	t.Run("non-2xx surfaces as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"rate limited"}`))
		}))
		defer srv.Close()

		sink, err := NewGitHubSink("tok", "owner/repo", WithBaseURL(srv.URL))
		require.NoError(t, err)

		_, err = sink.CreateTicket(context.Background(), "Timeout", "", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 403")
		assert.Contains(t, err.Error(), "rate limited")
	})
}
