package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewAlertRecord verifies the one-to-one derivation from a committed event
// and the placeholder normalization of unresolved subject fields.
func TestNewAlertRecord(t *testing.T) {
	t.Parallel()

	created := time.Now().UTC().Truncate(time.Second)
	event := &CommittedEvent{
		ID:          "evt-1",
		Kind:        RequestTypePanicAlert,
		Priority:    PriorityUrgent,
		TriggeredBy: "volume_button",
		CreatedAt:   created,
		Subject: SubjectContext{
			ResidentID:   "res-1",
			ResidentName: "Asha Kumar",
			FlatNumber:   "101",
		},
	}

	record := NewAlertRecord(event)

	require.Equal(t, event.ID, record.ID)
	require.Equal(t, RequestTypePanicAlert, record.RequestType)
	require.Equal(t, StatusPending, record.Status)
	require.Equal(t, created, record.CreatedAt)

	// Empty fields come back as literal placeholders, never omitted.
	require.Equal(t, PlaceholderPhone, record.Subject.Phone)
	require.Equal(t, PlaceholderUnknown, record.Subject.BuildingNumber)
	require.Equal(t, PlaceholderUnknown, record.Subject.Block)
	require.Equal(t, "Asha Kumar", record.Subject.ResidentName)
	require.Equal(t, "101", record.Subject.FlatNumber)
}

// TestAlertRecordIsUrgent checks the urgency rule over type and priority.
func TestAlertRecordIsUrgent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		requestType RequestType
		priority    Priority
		want        bool
	}{
		{RequestTypePanicAlert, PriorityNormal, true},
		{RequestTypeSensorAlert, PriorityUrgent, true},
		{RequestTypeGeneral, PriorityHigh, true},
		{RequestTypeGeneral, PriorityMedium, false},
		{RequestTypeGeneral, PriorityNormal, false},
	}

	for _, tc := range cases {
		r := &AlertRecord{RequestType: tc.requestType, Priority: tc.priority}
		require.Equal(t, tc.want, r.IsUrgent(), "type=%s priority=%s", tc.requestType, tc.priority)
	}
}

// TestCommittedEventClone verifies that Clone returns a copy and handles nil.
func TestCommittedEventClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*CommittedEvent)(nil).Clone())

	e := &CommittedEvent{ID: "evt-2", Kind: RequestTypeSensorAlert}
	c := e.Clone()

	require.Equal(t, e, c)
	require.NotSame(t, e, c)
}
