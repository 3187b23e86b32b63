package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://www.googleapis.com/calendar/v3"
	tokenURL       = "https://oauth2.googleapis.com/token"
)

// GoogleConfig carries the OAuth credentials for the Google Calendar
// API. The oauth2 token source refreshes the access token as needed.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Timeout      time.Duration
}

// GoogleClient implements Client against the Google Calendar v3 REST API.
type GoogleClient struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewGoogleClient(cfg GoogleConfig, logger *zap.Logger) *GoogleClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		Scopes:       []string{"https://www.googleapis.com/auth/calendar"},
	}
	httpClient := oauth2.NewClient(context.Background(), oc.TokenSource(context.Background(), &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}))
	return &GoogleClient{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}

type wireTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type wireAttendee struct {
	Email string `json:"email"`
}

type wireEvent struct {
	ID          string         `json:"id,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       *wireTime      `json:"start,omitempty"`
	End         *wireTime      `json:"end,omitempty"`
	Attendees   []wireAttendee `json:"attendees,omitempty"`
	Status      string         `json:"status,omitempty"`
	HTMLLink    string         `json:"htmlLink,omitempty"`
}

type wireInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type freeBusyRequest struct {
	TimeMin string              `json:"timeMin"`
	TimeMax string              `json:"timeMax"`
	Items   []map[string]string `json:"items"`
}

type freeBusyResponse struct {
	Calendars map[string]struct {
		Busy []wireInterval `json:"busy"`
	} `json:"calendars"`
}

func (c *GoogleClient) ListBusy(ctx context.Context, calendarIDs []string, start, end time.Time) ([]models.BusyInterval, error) {
	req := freeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
	}
	for _, id := range calendarIDs {
		req.Items = append(req.Items, map[string]string{"id": id})
	}

	var resp freeBusyResponse
	if err := c.do(ctx, http.MethodPost, "/freeBusy", req, &resp); err != nil {
		return nil, errors.Wrap(err, "freebusy query")
	}

	var busy []models.BusyInterval
	for calendarID, cal := range resp.Calendars {
		for _, w := range cal.Busy {
			interval, err := parseInterval(w)
			if err != nil {
				// Malformed intervals are dropped, not fatal.
				c.logger.Warn("Skipping unparseable busy interval",
					zap.String("calendar_id", calendarID),
					zap.String("start", w.Start),
					zap.String("end", w.End),
					zap.Error(err))
				continue
			}
			busy = append(busy, interval)
		}
	}
	sort.Slice(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
	return busy, nil
}

func (c *GoogleClient) ListEvents(ctx context.Context, calendarIDs []string, start, end time.Time) ([]models.EventRecord, error) {
	var all []models.EventRecord
	for _, calendarID := range calendarIDs {
		events, err := c.listCalendarEvents(ctx, calendarID, start, end)
		if err != nil {
			// One unreadable calendar should not hide the others.
			c.logger.Warn("Failed to list events from calendar",
				zap.String("calendar_id", calendarID),
				zap.Error(err))
			continue
		}
		all = append(all, events...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start.Before(all[j].Start) })
	return all, nil
}

func (c *GoogleClient) listCalendarEvents(ctx context.Context, calendarID string, start, end time.Time) ([]models.EventRecord, error) {
	q := url.Values{}
	q.Set("timeMin", start.Format(time.RFC3339))
	q.Set("timeMax", end.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	path := fmt.Sprintf("/calendars/%s/events?%s", url.PathEscape(calendarID), q.Encode())
	var resp struct {
		Items []wireEvent `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	events := make([]models.EventRecord, 0, len(resp.Items))
	for _, w := range resp.Items {
		events = append(events, fromWire(w))
	}
	return events, nil
}

func (c *GoogleClient) CreateEvent(ctx context.Context, calendarID string, event models.EventRecord) (*models.EventRecord, error) {
	path := fmt.Sprintf("/calendars/%s/events", url.PathEscape(calendarID))
	var resp wireEvent
	if err := c.do(ctx, http.MethodPost, path, toWire(event), &resp); err != nil {
		return nil, errors.Wrapf(err, "create event %q", event.Title)
	}
	created := fromWire(resp)
	return &created, nil
}

func (c *GoogleClient) UpdateEvent(ctx context.Context, calendarID, eventID string, changes models.EventRecord) (*models.EventRecord, error) {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID))
	var resp wireEvent
	if err := c.do(ctx, http.MethodPatch, path, toWire(changes), &resp); err != nil {
		return nil, errors.Wrapf(err, "update event %s", eventID)
	}
	updated := fromWire(resp)
	return &updated, nil
}

func (c *GoogleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	path := fmt.Sprintf("/calendars/%s/events/%s", url.PathEscape(calendarID), url.PathEscape(eventID))
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return errors.Wrapf(err, "delete event %s", eventID)
	}
	return nil
}

func (c *GoogleClient) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "calendar request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("calendar backend returned %d: %s", resp.StatusCode, string(detail))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func parseInterval(w wireInterval) (models.BusyInterval, error) {
	start, err := time.Parse(time.RFC3339, w.Start)
	if err != nil {
		return models.BusyInterval{}, err
	}
	end, err := time.Parse(time.RFC3339, w.End)
	if err != nil {
		return models.BusyInterval{}, err
	}
	return models.BusyInterval{Start: start, End: end}, nil
}

func toWire(e models.EventRecord) wireEvent {
	w := wireEvent{
		Summary:     e.Title,
		Description: e.Description,
		Location:    e.Location,
	}
	if !e.Start.IsZero() {
		w.Start = &wireTime{DateTime: e.Start.Format(time.RFC3339)}
	}
	if !e.End.IsZero() {
		w.End = &wireTime{DateTime: e.End.Format(time.RFC3339)}
	}
	for _, email := range e.Attendees {
		w.Attendees = append(w.Attendees, wireAttendee{Email: email})
	}
	return w
}

func fromWire(w wireEvent) models.EventRecord {
	e := models.EventRecord{
		ID:          w.ID,
		Title:       w.Summary,
		Description: w.Description,
		Location:    w.Location,
		Status:      w.Status,
		HTMLLink:    w.HTMLLink,
	}
	if w.Start != nil {
		e.Start = parseWireTime(*w.Start)
	}
	if w.End != nil {
		e.End = parseWireTime(*w.End)
	}
	for _, a := range w.Attendees {
		e.Attendees = append(e.Attendees, a.Email)
	}
	return e
}

func parseWireTime(w wireTime) time.Time {
	if w.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, w.DateTime); err == nil {
			return t
		}
	}
	if w.Date != "" {
		if t, err := time.Parse("2006-01-02", w.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
