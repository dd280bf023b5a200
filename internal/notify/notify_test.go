package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotadesk/backend/internal/domain"
)

func TestNewFillsEnvelope(t *testing.T) {
	n := New(domain.NotificationHolidayApproved, 1, 3, map[string]any{"startDate": "2025-06-14"})

	assert.NotEmpty(t, n.ID)
	assert.False(t, n.OccurredAt.IsZero())
	assert.Equal(t, int64(3), n.StaffID)

	raw, err := json.Marshal(n)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"holiday_request.approved"`)
}

func TestRenderMail(t *testing.T) {
	n := New(domain.NotificationHolidayApproved, 1, 3, map[string]any{
		"startDate":     "2025-06-14",
		"endDate":       "2025-06-16",
		"removedShifts": 1,
	})

	subject, body, err := RenderMail(n, "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Your holiday request was approved", subject)
	assert.Contains(t, body, "Hi Alice")
	assert.Contains(t, body, "2025-06-14 to 2025-06-16")
	assert.Contains(t, body, "1 shift(s)")

	open := New(domain.NotificationSwapApproved, 1, 3, map[string]any{"shift": "Sun 15 Jun 11:30-19:00"})
	_, body, err = RenderMail(open, "Alice")
	require.NoError(t, err)
	assert.Contains(t, body, "The shift is now open.")

	_, _, err = RenderMail(domain.Notification{Type: "unknown"}, "Alice")
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), New(domain.NotificationSwapRejected, 1, 2, nil)))
	assert.Len(t, r.Sent(), 1)

	r.Err = errors.New("broker down")
	assert.Error(t, r.Publish(context.Background(), New(domain.NotificationSwapRejected, 1, 2, nil)))
	assert.Len(t, r.Sent(), 1)
}
