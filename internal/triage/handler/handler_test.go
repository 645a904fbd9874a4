package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportops/internal/account"
	auditmemory "supportops/internal/audit/store/memory"
	"supportops/internal/diagnostics"
	"supportops/internal/executor"
	"supportops/internal/safety"
	"supportops/internal/ticket"
	"supportops/internal/triage"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	store := auditmemory.New()
	accounts := account.NewMemoryStore()
	gate := safety.NewGate(store, safety.NewTokenSigner("test-secret"), []string{"human_approver"})
	exec := executor.New(store, ticket.NewMemorySink("support_agent", nil))
	runner := diagnostics.NewRunner(accounts, diagnostics.NewSimulatedProbe(), nil)

	service := triage.NewService(triage.NewKeywordClassifier(), runner, triage.NewEngine(), gate, exec, accounts)

	r := chi.NewRouter()
	New(service, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func postJSON(t *testing.T, r chi.Router, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleTriage(t *testing.T) {
	r := newTestRouter(t)

	t.Run("payment timeout request executes a ticket", func(t *testing.T) {
		w := postJSON(t, r, "/support/triage", map[string]any{
			"request_id": "REQ-HTTP-001",
			"user_id":    "user-42",
			"channel":    "email",
			"message":    "my payment is failing",
			"metadata":   map[string]any{"product_version": "1.6"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var outcome triage.Outcome
		require.NoError(t, json.NewDecoder(w.Body).Decode(&outcome))

		assert.Equal(t, "REQ-HTTP-001", outcome.RequestID)
		assert.Equal(t, triage.IntentBillingIssue, outcome.Triage.Intent)
		assert.Equal(t, "create_ticket", outcome.Decision.Action.Type)
		require.NotNil(t, outcome.Execution)
		assert.True(t, outcome.Execution.Executed)
		assert.Equal(t, "support_agent-101", outcome.Execution.ExternalResponse.TicketID)
	})

	t.Run("missing fields return bad_request", func(t *testing.T) {
		w := postJSON(t, r, "/support/triage", map[string]any{
			"request_id": "REQ-HTTP-002",
			"channel":    "email",
			"message":    "no user id",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "bad_request", body["error"])
	})

	t.Run("malformed JSON returns bad_request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/support/triage", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleExecute(t *testing.T) {
	r := newTestRouter(t)

	t.Run("destructive action without confirmation is held", func(t *testing.T) {
		w := postJSON(t, r, "/actions/execute", map[string]any{
			"request_id": "REQ-HTTP-003",
			"user_id":    "user-42",
			"recommended_action": map[string]any{
				"type":    "delete_account",
				"summary": "Remove account",
			},
			"executor_id": "human_approver",
			"confirm":     false,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var outcome triage.ExecuteOutcome
		require.NoError(t, json.NewDecoder(w.Body).Decode(&outcome))

		assert.False(t, outcome.Safety.ActionAllowed)
		assert.Equal(t, []string{safety.ApproverRoleSupportAgent}, outcome.Safety.RequiredApprovals)
		assert.Equal(t, executor.ReasonNotAllowed, outcome.Execution.Reason)
	})

	t.Run("allowed create_ticket executes", func(t *testing.T) {
		w := postJSON(t, r, "/actions/execute", map[string]any{
			"request_id": "REQ-HTTP-004",
			"user_id":    "user-42",
			"recommended_action": map[string]any{
				"type":    "create_ticket",
				"summary": "Manual escalation",
				"action_payload": map[string]any{
					"ticket_labels": []string{"manual"},
				},
			},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var outcome triage.ExecuteOutcome
		require.NoError(t, json.NewDecoder(w.Body).Decode(&outcome))

		assert.True(t, outcome.Safety.ActionAllowed)
		assert.True(t, outcome.Execution.Executed)
		assert.Equal(t, []string{"manual"}, outcome.Execution.ExternalResponse.Labels)
	})
}
