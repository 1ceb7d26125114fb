package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nhle/daybook/internal/model"
)

func TestComposeMessage(t *testing.T) {
	got := ComposeMessage("Alex", "Morning run", 75)
	if !strings.Contains(got, "Alex") {
		t.Errorf("message missing sender: %q", got)
	}
	if !strings.Contains(got, `"Morning run"`) {
		t.Errorf("message missing quoted habit name: %q", got)
	}
	if !strings.Contains(got, "75%") {
		t.Errorf("message missing percentage: %q", got)
	}
}

func TestMessageLink(t *testing.T) {
	partner := model.AccountabilityPartner{
		Name:        "Sam",
		PhoneNumber: "+1 (555) 123-4567",
	}
	link, err := MessageLink(partner, "hello world")
	if err != nil {
		t.Fatalf("MessageLink: %v", err)
	}
	if !strings.HasPrefix(link, "https://wa.me/15551234567?text=") {
		t.Errorf("link = %q", link)
	}
	if !strings.Contains(link, "hello+world") && !strings.Contains(link, "hello%20world") {
		t.Errorf("link text not escaped: %q", link)
	}
}

func TestMessageLinkRejectsShortPhone(t *testing.T) {
	partner := model.AccountabilityPartner{PhoneNumber: "12345"}
	if _, err := MessageLink(partner, "hi"); err == nil {
		t.Error("expected error for phone with fewer than 10 digits")
	}
}

func TestSendAccountabilityPostsToGateway(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewWhatsAppMessenger(srv.URL, "Alex")
	partner := model.AccountabilityPartner{
		Name:        "Sam",
		PhoneNumber: "15551234567",
		Enabled:     true,
	}

	err := m.SendAccountability(context.Background(), partner, "Read", 50)
	if err != nil {
		t.Fatalf("SendAccountability: %v", err)
	}

	if got["phone"] != "15551234567" {
		t.Errorf("phone = %q", got["phone"])
	}
	if !strings.Contains(got["message"], "Alex") || !strings.Contains(got["message"], "50%") {
		t.Errorf("message = %q", got["message"])
	}
	if !strings.HasPrefix(got["link"], "https://wa.me/15551234567") {
		t.Errorf("link = %q", got["link"])
	}
}

func TestSendAccountabilityGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bridge offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	m := NewWhatsAppMessenger(srv.URL, "")
	partner := model.AccountabilityPartner{PhoneNumber: "15551234567"}

	err := m.SendAccountability(context.Background(), partner, "Read", 10)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error = %v, want status code mentioned", err)
	}
}

func TestValidReminderTime(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"00:00", true},
		{"09:30", true},
		{"23:59", true},
		{"24:00", false},
		{"9:30", false},
		{"12:60", false},
		{"noon", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidReminderTime(tt.in); got != tt.want {
			t.Errorf("ValidReminderTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScheduleAndCancel(t *testing.T) {
	var scheduled scheduleRequest
	var cancelledPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&scheduled); err != nil {
				t.Errorf("decoding schedule request: %v", err)
			}
			json.NewEncoder(w).Encode(scheduleResponse{ID: "notif-42"})
		case http.MethodDelete:
			cancelledPath = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	s := NewGatewayScheduler(srv.URL)
	ctx := context.Background()

	id, err := s.Schedule(ctx, "habit-1", "Read", "21:00")
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if id != "notif-42" {
		t.Errorf("handle = %q, want notif-42", id)
	}
	if scheduled.HabitID != "habit-1" || scheduled.HabitName != "Read" || scheduled.Time != "21:00" {
		t.Errorf("schedule request = %+v", scheduled)
	}

	if err := s.Cancel(ctx, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelledPath != "/notifications/notif-42" {
		t.Errorf("cancel path = %q", cancelledPath)
	}
}

func TestScheduleRejectsBadTime(t *testing.T) {
	s := NewGatewayScheduler("http://localhost:0")
	if _, err := s.Schedule(context.Background(), "h", "Read", "25:99"); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestCancelUnknownHandleIsNoError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	s := NewGatewayScheduler(srv.URL)
	if err := s.Cancel(context.Background(), "gone"); err != nil {
		t.Errorf("Cancel of unknown handle returned %v", err)
	}
}
