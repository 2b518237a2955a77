package canvasfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ontime/internal/domain/canvas"
)

const sampleFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Instructure Inc//Canvas//EN
BEGIN:VEVENT
UID:event-assignment-101
SUMMARY:Essay draft due
DESCRIPTION:Submit via the course page
DTSTART:20260915T235900Z
DTEND:20260915T235900Z
END:VEVENT
BEGIN:VEVENT
UID:event-assignment-102
DTSTART:20260920T120000Z
END:VEVENT
END:VCALENDAR
`

const malformedEntriesFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Instructure Inc//Canvas//EN
BEGIN:VEVENT
SUMMARY:No UID here
DTSTART:20260901T090000Z
END:VEVENT
BEGIN:VEVENT
UID:event-no-start
SUMMARY:No start time
END:VEVENT
BEGIN:VEVENT
UID:event-good
SUMMARY:Quiz 3
DTSTART:20261001T150000Z
END:VEVENT
END:VCALENDAR
`

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchParsesEvents(t *testing.T) {
	srv := feedServer(t, http.StatusOK, sampleFeed)
	client := NewClient(5 * time.Second)

	events, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	first := events[0]
	if first.UID != "event-assignment-101" {
		t.Errorf("expected UID event-assignment-101, got %s", first.UID)
	}
	if first.Summary != "Essay draft due" {
		t.Errorf("expected summary 'Essay draft due', got %q", first.Summary)
	}
	if first.Description == nil || *first.Description != "Submit via the course page" {
		t.Errorf("unexpected description: %v", first.Description)
	}
	want := time.Date(2026, 9, 15, 23, 59, 0, 0, time.UTC)
	if !first.DueAt.Equal(want) {
		t.Errorf("expected due at %v, got %v", want, first.DueAt)
	}

	second := events[1]
	if second.Summary != defaultSummary {
		t.Errorf("expected default summary for event without SUMMARY, got %q", second.Summary)
	}
	if second.Description != nil {
		t.Errorf("expected nil description, got %v", *second.Description)
	}
}

func TestFetchDropsMalformedEntries(t *testing.T) {
	srv := feedServer(t, http.StatusOK, malformedEntriesFeed)
	client := NewClient(5 * time.Second)

	events, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected only the well-formed event, got %d", len(events))
	}
	if events[0].UID != "event-good" {
		t.Errorf("expected UID event-good, got %s", events[0].UID)
	}
}

func TestFetchEmptyCalendar(t *testing.T) {
	empty := "BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//Instructure Inc//Canvas//EN\nEND:VCALENDAR\n"
	srv := feedServer(t, http.StatusOK, empty)
	client := NewClient(5 * time.Second)

	events, err := client.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestFetchInvalidURL(t *testing.T) {
	client := NewClient(5 * time.Second)

	tests := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "whitespace", url: "   "},
		{name: "no scheme", url: "canvas.example.edu/feeds/user.ics"},
		{name: "wrong scheme", url: "ftp://canvas.example.edu/feed.ics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Fetch(context.Background(), tt.url)
			if !errors.Is(err, canvas.ErrInvalidFeedURL) {
				t.Errorf("expected ErrInvalidFeedURL, got %v", err)
			}
		})
	}
}

func TestFetchNon2xxStatus(t *testing.T) {
	srv := feedServer(t, http.StatusNotFound, "not found")
	client := NewClient(5 * time.Second)

	_, err := client.Fetch(context.Background(), srv.URL)

	var fetchErr *canvas.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.URL != srv.URL {
		t.Errorf("expected error to carry feed URL %s, got %s", srv.URL, fetchErr.URL)
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := feedServer(t, http.StatusOK, sampleFeed)
	url := srv.URL
	srv.Close()

	client := NewClient(2 * time.Second)
	_, err := client.Fetch(context.Background(), url)

	var fetchErr *canvas.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestFetchUndecodableBody(t *testing.T) {
	srv := feedServer(t, http.StatusOK, "this is not a calendar")
	client := NewClient(5 * time.Second)

	_, err := client.Fetch(context.Background(), srv.URL)

	var fetchErr *canvas.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
}

func TestParseDateTimeFallbackFormats(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{
			name:  "utc timestamp",
			value: "20260915T235900Z",
			want:  time.Date(2026, 9, 15, 23, 59, 0, 0, time.UTC),
		},
		{
			name:  "floating timestamp",
			value: "20260915T235900",
			want:  time.Date(2026, 9, 15, 23, 59, 0, 0, time.UTC),
		},
		{
			name:  "date only",
			value: "20260915",
			want:  time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDateTimeValue(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	if _, err := parseDateTimeValue("not-a-date"); err == nil {
		t.Error("expected error for unparseable value")
	}
}
