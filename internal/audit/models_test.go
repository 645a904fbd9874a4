package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportops/pkg/platform/sentinel"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusAllowed, StatusRequiresApproval, StatusExecuted, StatusRejected} {
		assert.True(t, s.Valid(), "status %q should be valid", s)
	}
	assert.False(t, Status("approved").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusExecuted.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.False(t, StatusAllowed.Terminal())
	assert.False(t, StatusRequiresApproval.Terminal())
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusRequiresApproval, StatusAllowed, true},
		{StatusRequiresApproval, StatusRejected, true},
		{StatusRequiresApproval, StatusExecuted, false},
		{StatusRequiresApproval, StatusRequiresApproval, false},
		{StatusAllowed, StatusAllowed, true},
		{StatusAllowed, StatusExecuted, true},
		{StatusAllowed, StatusRejected, true},
		{StatusAllowed, StatusRequiresApproval, false},
		{StatusExecuted, StatusRejected, false},
		{StatusExecuted, StatusAllowed, false},
		{StatusRejected, StatusAllowed, false},
		{StatusRejected, StatusExecuted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestValidateTransition(t *testing.T) {
	t.Run("rejects unknown status", func(t *testing.T) {
		err := ValidateTransition(StatusAllowed, "", Status("bogus"), "")
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("rejects illegal transition", func(t *testing.T) {
		err := ValidateTransition(StatusExecuted, "", StatusRejected, "")
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("token only accompanies allowed", func(t *testing.T) {
		err := ValidateTransition(StatusAllowed, "", StatusExecuted, "deadbeef")
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("token cannot be rewritten", func(t *testing.T) {
		err := ValidateTransition(StatusAllowed, "aaaa", StatusAllowed, "bbbb")
		require.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("idempotent token re-attach is legal", func(t *testing.T) {
		require.NoError(t, ValidateTransition(StatusAllowed, "aaaa", StatusAllowed, "aaaa"))
	})

	t.Run("empty token leaves stored token alone", func(t *testing.T) {
		require.NoError(t, ValidateTransition(StatusAllowed, "aaaa", StatusExecuted, ""))
	})

	t.Run("approval flow", func(t *testing.T) {
		require.NoError(t, ValidateTransition(StatusRequiresApproval, "", StatusAllowed, ""))
		require.NoError(t, ValidateTransition(StatusRequiresApproval, "", StatusRejected, ""))
	})
}

func TestRecordClone(t *testing.T) {
	rec := &Record{
		RequestID:     "req-1",
		ActionPayload: map[string]any{"ticket_labels": []string{"billing"}},
	}
	cp := rec.Clone()
	cp.ActionPayload["extra"] = true

	_, leaked := rec.ActionPayload["extra"]
	assert.False(t, leaked, "clone must not alias the payload map")

	var nilRec *Record
	assert.Nil(t, nilRec.Clone())
}
