package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

// timePattern matches the HH:MM reminder time format.
var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidReminderTime reports whether s is a valid 24-hour HH:MM time.
func ValidReminderTime(s string) bool {
	return timePattern.MatchString(s)
}

// Scheduler manages daily habit reminder notifications.
type Scheduler interface {
	// Schedule registers a daily reminder for the habit at the given
	// HH:MM time and returns a handle for later cancellation.
	Schedule(ctx context.Context, habitID, habitName, at string) (string, error)
	// Cancel removes a previously scheduled reminder by handle.
	Cancel(ctx context.Context, notificationID string) error
}

// GatewayScheduler schedules reminders through a local notification
// gateway that owns the platform notification mechanics.
type GatewayScheduler struct {
	gatewayURL string
	httpClient *http.Client
}

// NewGatewayScheduler creates a scheduler posting to gatewayURL.
func NewGatewayScheduler(gatewayURL string) *GatewayScheduler {
	return &GatewayScheduler{
		gatewayURL: gatewayURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type scheduleRequest struct {
	HabitID   string `json:"habit_id"`
	HabitName string `json:"habit_name"`
	Time      string `json:"time"`
}

type scheduleResponse struct {
	ID string `json:"id"`
}

// Schedule registers a daily reminder and returns the gateway's handle.
func (s *GatewayScheduler) Schedule(
	ctx context.Context,
	habitID, habitName, at string,
) (string, error) {
	if !ValidReminderTime(at) {
		return "", fmt.Errorf("invalid reminder time %q, want HH:MM", at)
	}
	if s.gatewayURL == "" {
		return "", fmt.Errorf("no notification gateway configured")
	}

	body := scheduleRequest{
		HabitID:   habitID,
		HabitName: habitName,
		Time:      at,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling schedule request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, s.gatewayURL+"/notifications", bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("creating schedule request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting to notification gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading gateway response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf(
			"notification gateway returned %d: %s", resp.StatusCode, string(respBody),
		)
	}

	var result scheduleResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("unmarshaling gateway response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("notification gateway returned no handle")
	}
	return result.ID, nil
}

// Cancel removes a scheduled reminder. Cancelling an unknown handle is
// not an error; the gateway answers 404 and the reminder is gone either
// way.
func (s *GatewayScheduler) Cancel(ctx context.Context, notificationID string) error {
	if notificationID == "" {
		return nil
	}
	if s.gatewayURL == "" {
		return fmt.Errorf("no notification gateway configured")
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodDelete,
		s.gatewayURL+"/notifications/"+notificationID, nil,
	)
	if err != nil {
		return fmt.Errorf("creating cancel request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to notification gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf(
			"notification gateway returned %d: %s", resp.StatusCode, string(body),
		)
	}
	return nil
}
