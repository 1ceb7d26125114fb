package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nhle/daybook/internal/model"
	"github.com/nhle/daybook/internal/store"
	"github.com/nhle/daybook/tests/testutil"
)

func TestConversationContextTrimsKeepingFirst(t *testing.T) {
	c := NewConversationContext()

	c.AddMessage(RoleUser, "first")
	for i := 0; i < 30; i++ {
		c.AddMessage(RoleAssistant, fmt.Sprintf("msg-%d", i))
	}

	msgs := c.GetMessages()
	if len(msgs) != 20 {
		t.Fatalf("len = %d, want 20", len(msgs))
	}
	if msgs[0].Content != "first" {
		t.Errorf("trim dropped the initial context message, got %q", msgs[0].Content)
	}
	if msgs[len(msgs)-1].Content != "msg-29" {
		t.Errorf("trim dropped the newest message, got %q", msgs[len(msgs)-1].Content)
	}
}

func TestConversationContextReset(t *testing.T) {
	c := NewConversationContext()
	c.AddMessage(RoleUser, "hello")
	c.Reset()
	if c.Len() != 0 {
		t.Fatalf("Len after Reset = %d, want 0", c.Len())
	}
}

// collectChunks drains the stream until the Done chunk arrives.
func collectChunks(t *testing.T, ch <-chan StreamChunk) string {
	t.Helper()

	var sb strings.Builder
	timeout := time.After(5 * time.Second)
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				return sb.String()
			}
			sb.WriteString(chunk.Text)
			if chunk.Done {
				return sb.String()
			}
		case <-timeout:
			t.Fatal("timed out waiting for response chunks")
		}
	}
}

func seedStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s := testutil.NewTestStore(t)
	ctx := context.Background()

	h, err := model.NewHabit("Meditate", time.Now())
	if err != nil {
		t.Fatalf("NewHabit: %v", err)
	}
	h.Streak = 4
	if err := s.UpsertHabit(ctx, h); err != nil {
		t.Fatalf("UpsertHabit: %v", err)
	}

	entries := []model.JournalEntry{
		{ID: model.NewEntryID(), Title: "Morning pages", Content: "slept well", Mood: "calm", Timestamp: time.Now()},
		{ID: model.NewEntryID(), Content: "rough day at work", Mood: "stressed", Timestamp: time.Now()},
	}
	for _, e := range entries {
		if err := s.UpsertJournalEntry(ctx, e); err != nil {
			t.Fatalf("UpsertJournalEntry: %v", err)
		}
	}
	return s
}

func TestSendMessageAnswersFromToolResult(t *testing.T) {
	s := seedStore(t)

	var requests []apiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		requests = append(requests, req)

		w.Header().Set("Content-Type", "application/json")
		if len(requests) == 1 {
			// First round: the model asks for habit stats.
			fmt.Fprint(w, `{
				"content": [
					{"type": "tool_use", "id": "tu_1", "name": "get_habit_stats", "input": {}}
				],
				"stop_reason": "tool_use"
			}`)
			return
		}
		fmt.Fprint(w, `{
			"content": [
				{"type": "text", "text": "Your longest streak is Meditate at 4 days."}
			],
			"stop_reason": "end_turn"
		}`)
	}))
	defer server.Close()

	a := New("test-key", s, "", 0)
	a.baseURL = server.URL

	ch, err := a.SendMessage(context.Background(), "what is my longest streak?")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	text := collectChunks(t, ch)

	if !strings.Contains(text, "Meditate at 4 days") {
		t.Errorf("response = %q, want final text answer", text)
	}
	if len(requests) != 2 {
		t.Fatalf("made %d API calls, want 2 (tool round trip)", len(requests))
	}

	// The second request must carry the tool result with real habit data.
	second := requests[1]
	var foundResult bool
	for _, msg := range second.Messages {
		for _, block := range msg.Content {
			if block.Type == "tool_result" && block.ToolUseID == "tu_1" {
				foundResult = true
				if !strings.Contains(block.Content, "Meditate") {
					t.Errorf("tool result %q does not include the habit", block.Content)
				}
			}
		}
	}
	if !foundResult {
		t.Error("second request missing the tool_result block")
	}
}

func TestSendMessageSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"type": "authentication_error", "message": "invalid x-api-key"}}`)
	}))
	defer server.Close()

	a := New("bad-key", seedStore(t), "", 0)
	a.baseURL = server.URL

	ch, err := a.SendMessage(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	text := collectChunks(t, ch)
	if !strings.Contains(text, "invalid x-api-key") {
		t.Errorf("response = %q, want the API error message", text)
	}
}

func TestWriteToolsAreRejected(t *testing.T) {
	a := New("test-key", seedStore(t), "", 0)

	for _, name := range []string{"create_habit", "toggle_habit", "delete_entry"} {
		result := a.executeToolUse(context.Background(), apiToolUse{
			ID:    "tu_w",
			Name:  name,
			Input: json.RawMessage(`{}`),
		})
		if !strings.Contains(result, "not permitted") {
			t.Errorf("%s: result = %q, want rejection", name, result)
		}
		if !strings.Contains(result, "'space'") {
			t.Errorf("%s: rejection does not point at the keyboard shortcuts", name)
		}
	}
}

func TestSearchEntriesToolFiltersByMood(t *testing.T) {
	a := New("test-key", seedStore(t), "", 0)

	result := a.handleSearchEntries(context.Background(),
		json.RawMessage(`{"kind": "journal", "mood": "calm"}`))

	var decoded struct {
		Count   int `json:"count"`
		Entries []struct {
			Text string `json:"text"`
			Mood string `json:"mood"`
		} `json:"entries"`
	}
	if err := json.Unmarshal([]byte(result), &decoded); err != nil {
		t.Fatalf("decoding result %q: %v", result, err)
	}
	if decoded.Count != 1 {
		t.Fatalf("count = %d, want 1", decoded.Count)
	}
	if !strings.Contains(decoded.Entries[0].Text, "Morning pages") {
		t.Errorf("entry text = %q, want the calm entry", decoded.Entries[0].Text)
	}
}

func TestSearchEntriesToolRejectsUnknownKind(t *testing.T) {
	a := New("test-key", seedStore(t), "", 0)

	result := a.handleSearchEntries(context.Background(),
		json.RawMessage(`{"kind": "dreams"}`))
	if !strings.Contains(result, "Unknown entry kind") {
		t.Errorf("result = %q, want unknown-kind error", result)
	}
}
