package gcal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventsFixture = `{
  "items": [
    {
      "id": "shift-1",
      "status": "confirmed",
      "summary": "AC-4 Night Patrol",
      "location": "3rd Battalion HQ",
      "start": {"dateTime": "2025-11-16T20:00:00-03:00"},
      "end": {"dateTime": "2025-11-17T02:00:00-03:00"}
    },
    {
      "id": "course-1",
      "status": "confirmed",
      "summary": "Training day",
      "start": {"date": "2025-11-18"},
      "end": {"date": "2025-11-19"}
    },
    {
      "id": "gone-1",
      "status": "cancelled",
      "summary": "Cancelled shift",
      "start": {"dateTime": "2025-11-16T08:00:00-03:00"}
    }
  ]
}`

func TestListUpcoming(t *testing.T) {
	var gotQuery map[string]string
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calendars/primary/events", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(eventsFixture))
	}))
	defer srv.Close()

	client := NewEventClientWithBaseURL(srv.URL)

	from := time.Date(2025, time.November, 15, 12, 0, 0, 0, time.UTC)
	to := from.Add(48 * time.Hour)
	events, err := client.ListUpcoming(context.Background(), "tok-123", from, to, 100)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "true", gotQuery["singleEvents"])
	assert.Equal(t, "startTime", gotQuery["orderBy"])
	assert.Equal(t, "100", gotQuery["maxResults"])
	assert.Equal(t, from.Format(time.RFC3339), gotQuery["timeMin"])
	assert.Equal(t, to.Format(time.RFC3339), gotQuery["timeMax"])

	// Cancelled events are dropped; timed and all-day both survive.
	require.Len(t, events, 2)

	shift := events[0]
	assert.Equal(t, "shift-1", shift.ID)
	assert.Equal(t, "AC-4 Night Patrol", shift.Summary)
	assert.Equal(t, "3rd Battalion HQ", shift.Location)
	require.True(t, shift.Start.Timed())
	want := time.Date(2025, time.November, 16, 20, 0, 0, 0, time.FixedZone("", -3*60*60))
	assert.True(t, shift.Start.At.Equal(want))
	require.NotNil(t, shift.End)

	course := events[1]
	assert.Equal(t, "course-1", course.ID)
	assert.False(t, course.Start.Timed(), "all-day event has no concrete start instant")
	assert.Equal(t, "2025-11-18", course.Start.AllDay)
}

func TestListUpcoming_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewEventClientWithBaseURL(srv.URL)

	_, err := client.ListUpcoming(context.Background(), "tok", time.Now(), time.Now().Add(time.Hour), 10)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
}

func TestRefresh_EmptyTokenShortCircuits(t *testing.T) {
	r := NewTokenRefresher("client-id", "client-secret")

	_, err := r.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}
