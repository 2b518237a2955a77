// Package canvasfeed retrieves Canvas ICS feeds over HTTP and parses them
// into domain events.
package canvasfeed

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/emersion/go-ical"

	"ontime/internal/domain/canvas"
)

const defaultTimeout = 30 * time.Second

// defaultSummary is used when a VEVENT carries no SUMMARY property.
const defaultSummary = "Canvas Event"

// Client fetches and parses a remote ICS feed. It implements
// canvas.FeedFetcher.
type Client struct {
	httpClient *http.Client
}

var _ canvas.FeedFetcher = (*Client)(nil)

// NewClient creates a feed client with the given fetch timeout.
// A non-positive timeout falls back to the default.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch retrieves the feed and returns its well-formed VEVENT entries.
// The URL is validated before any network call. Entries without a UID or
// without a parseable DTSTART are dropped silently; everything else
// (connection errors, non-2xx responses, undecodable bodies) fails the whole
// fetch with a canvas.FetchError — no partial results.
func (c *Client) Fetch(ctx context.Context, feedURL string) ([]canvas.Event, error) {
	if err := canvas.ValidateFeedURL(feedURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &canvas.FetchError{URL: feedURL, Err: err}
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &canvas.FetchError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &canvas.FetchError{
			URL: feedURL,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	events, dropped, err := parseEvents(resp.Body)
	if err != nil {
		return nil, &canvas.FetchError{URL: feedURL, Err: err}
	}
	if dropped > 0 {
		log.Printf("Canvas feed: dropped %d malformed entries (missing UID or start time)", dropped)
	}

	return events, nil
}

// parseEvents decodes every VCALENDAR in the stream and collects its VEVENT
// components. Non-event components (VTIMEZONE, metadata) are skipped.
func parseEvents(r io.Reader) ([]canvas.Event, int, error) {
	dec := ical.NewDecoder(r)

	events := []canvas.Event{}
	dropped := 0

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode calendar: %w", err)
		}

		for _, comp := range cal.Children {
			if comp.Name != ical.CompEvent {
				continue
			}

			ev, ok := parseEvent(comp)
			if !ok {
				dropped++
				continue
			}
			events = append(events, ev)
		}
	}

	return events, dropped, nil
}

func parseEvent(comp *ical.Component) (canvas.Event, bool) {
	ev := canvas.Event{}

	uidProp := comp.Props.Get(ical.PropUID)
	if uidProp == nil || uidProp.Value == "" {
		return ev, false
	}
	ev.UID = uidProp.Value

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return ev, false
	}
	start, err := parseDateTime(startProp)
	if err != nil {
		return ev, false
	}
	ev.DueAt = start

	ev.Summary = defaultSummary
	if sumProp := comp.Props.Get(ical.PropSummary); sumProp != nil && sumProp.Value != "" {
		ev.Summary = sumProp.Value
	}

	if descProp := comp.Props.Get(ical.PropDescription); descProp != nil && descProp.Value != "" {
		desc := descProp.Value
		ev.Description = &desc
	}

	return ev, true
}

func parseDateTime(prop *ical.Prop) (time.Time, error) {
	if t, err := prop.DateTime(time.UTC); err == nil {
		return t, nil
	}
	return parseDateTimeValue(prop.Value)
}

// parseDateTimeValue handles DTSTART shapes go-ical refuses before the entry
// is given up on.
func parseDateTimeValue(value string) (time.Time, error) {
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
		time.RFC3339,
	}
	for _, format := range formats {
		if t, err := time.ParseInLocation(format, value, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse datetime value: %s", value)
}
