package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ac4-shift-planner/backend/internal/storage/models"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// FetchError wraps a calendar provider failure. Callers treat it as
// "no events this run for this user"; the next run retries naturally.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("calendar fetch failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("calendar fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// EventClient retrieves events from the user's primary calendar.
type EventClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewEventClient creates a calendar events client.
func NewEventClient() *EventClient {
	return &EventClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

// NewEventClientWithBaseURL is used by tests to point at a local server.
func NewEventClientWithBaseURL(baseURL string) *EventClient {
	c := NewEventClient()
	c.baseURL = baseURL
	return c
}

// ListUpcoming fetches events from the primary calendar between from and to.
// Recurring events are expanded into individual instances and ordered by
// start time, so the evaluator sees one event per occurrence.
func (c *EventClient) ListUpcoming(ctx context.Context, accessToken string, from, to time.Time, maxResults int) ([]models.CalendarEvent, error) {
	q := url.Values{}
	q.Set("timeMin", from.Format(time.RFC3339))
	q.Set("timeMax", to.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", strconv.Itoa(maxResults))

	reqURL := c.baseURL + "/calendars/primary/events?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	var list eventsListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &FetchError{Err: fmt.Errorf("decoding events: %w", err)}
	}

	events := make([]models.CalendarEvent, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Status == "cancelled" {
			continue
		}
		events = append(events, item.toEvent())
	}

	return events, nil
}

// eventsListResponse mirrors the Calendar v3 events.list payload.
type eventsListResponse struct {
	Items []eventItem `json:"items"`
}

type eventItem struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Summary     string    `json:"summary"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

// eventTime carries either a dateTime (timed event) or a bare date
// (all-day event), mirroring the provider's loose shape.
type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

func (it eventItem) toEvent() models.CalendarEvent {
	ev := models.CalendarEvent{
		ID:          it.ID,
		Summary:     it.Summary,
		Location:    it.Location,
		Description: it.Description,
	}

	if it.Start.DateTime != "" {
		if at, err := time.Parse(time.RFC3339, it.Start.DateTime); err == nil {
			ev.Start = models.TimedStart(at)
		}
	}
	if !ev.Start.Timed() && it.Start.Date != "" {
		ev.Start = models.AllDayStart(it.Start.Date)
	}

	if it.End.DateTime != "" {
		if at, err := time.Parse(time.RFC3339, it.End.DateTime); err == nil {
			ev.End = &at
		}
	}

	return ev
}
