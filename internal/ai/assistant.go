package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nhle/daybook/internal/habit"
	"github.com/nhle/daybook/internal/store"
)

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 1024
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// StreamChunk represents a piece of the AI response being streamed back.
type StreamChunk struct {
	Text string
	Done bool
}

// Assistant is the AI assistant service that communicates with the Claude
// API, manages conversation context, and handles tool use for habit and
// journal queries. It is strictly read-only: every write request is
// redirected to the corresponding keyboard shortcut.
type Assistant struct {
	apiKey    string
	store     store.Store
	context   *ConversationContext
	model     string
	maxTokens int
	baseURL   string
	client    *http.Client
}

// New creates a new AI assistant with the given configuration.
func New(
	apiKey string,
	s store.Store,
	modelName string,
	maxTokens int,
) *Assistant {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Assistant{
		apiKey:    apiKey,
		store:     s,
		context:   NewConversationContext(),
		model:     modelName,
		maxTokens: maxTokens,
		baseURL:   apiURL,
		client:    &http.Client{},
	}
}

// Reset clears the conversation history.
func (a *Assistant) Reset() {
	a.context.Reset()
}

// SendMessage sends a user message to the Claude API and returns a channel
// that receives response chunks. The channel is closed when the response
// is complete.
func (a *Assistant) SendMessage(
	ctx context.Context,
	userMsg string,
) (<-chan StreamChunk, error) {
	a.context.AddMessage(RoleUser, userMsg)

	ch := make(chan StreamChunk, 16)

	go func() {
		defer close(ch)
		a.processMessage(ctx, ch)
	}()

	return ch, nil
}

// processMessage handles the API call loop, including tool use iterations.
func (a *Assistant) processMessage(ctx context.Context, ch chan<- StreamChunk) {
	maxToolIterations := 5

	for i := 0; i < maxToolIterations; i++ {
		resp, err := a.callAPI(ctx)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error: %v", err),
				Done: true,
			}
			return
		}

		var textParts []string
		var toolUseBlocks []apiToolUse
		hasToolUse := false

		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textParts = append(textParts, block.Text)
			case "tool_use":
				hasToolUse = true
				toolUseBlocks = append(toolUseBlocks, apiToolUse{
					ID:    block.ID,
					Name:  block.Name,
					Input: block.Input,
				})
			}
		}

		if len(textParts) > 0 {
			combined := strings.Join(textParts, "")
			ch <- StreamChunk{Text: combined, Done: !hasToolUse}

			if !hasToolUse {
				a.context.AddMessage(RoleAssistant, combined)
				return
			}
		}

		if !hasToolUse {
			if len(textParts) == 0 {
				ch <- StreamChunk{Text: "", Done: true}
			}
			return
		}

		// Record the assistant's response (with tool use) in context.
		assistantContent, err := json.Marshal(resp.Content)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error encoding response: %v", err),
				Done: true,
			}
			return
		}
		a.context.AddMessage(RoleAssistant, string(assistantContent))

		var toolResults []apiContentBlock
		for _, tu := range toolUseBlocks {
			result := a.executeToolUse(ctx, tu)
			toolResults = append(toolResults, apiContentBlock{
				Type:      "tool_result",
				ToolUseID: tu.ID,
				Content:   result,
			})
		}

		// Tool results go back as a user message.
		toolResultsJSON, err := json.Marshal(toolResults)
		if err != nil {
			ch <- StreamChunk{
				Text: fmt.Sprintf("Error encoding tool results: %v", err),
				Done: true,
			}
			return
		}
		a.context.AddMessage(RoleUser, string(toolResultsJSON))
	}

	ch <- StreamChunk{
		Text: "\n\n(Reached maximum tool use iterations)",
		Done: true,
	}
}

// callAPI makes a single request to the Claude Messages API.
func (a *Assistant) callAPI(ctx context.Context) (*apiResponse, error) {
	systemPrompt := a.buildSystemPrompt(ctx)
	messages := a.buildAPIMessages()

	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		Messages:  messages,
		Tools:     toolDefinitions(),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, a.baseURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// buildSystemPrompt constructs the system prompt with habit and journal
// context.
func (a *Assistant) buildSystemPrompt(ctx context.Context) string {
	var sb strings.Builder

	sb.WriteString("You are a journaling and habit tracking assistant. ")
	sb.WriteString("You can search journal, gratitude, and highlight ")
	sb.WriteString("entries and summarize habit streaks and completions.\n\n")

	summary := a.buildDataSummary(ctx)
	if summary != "" {
		sb.WriteString("Current data:\n")
		sb.WriteString(summary)
		sb.WriteString("\n\n")
	}

	sb.WriteString("You have access to these tools:\n")
	sb.WriteString("- search_entries: Search entries by kind, query text, ")
	sb.WriteString("or mood\n")
	sb.WriteString("- get_habit_stats: Get every habit with its streak and ")
	sb.WriteString("today's completion state\n\n")

	sb.WriteString("IMPORTANT: You CANNOT perform write operations ")
	sb.WriteString("(creating habits, toggling completions, or editing ")
	sb.WriteString("entries). If asked to perform a write action, politely ")
	sb.WriteString("explain that you can only search and summarize, and ")
	sb.WriteString("suggest the keyboard shortcut the user can use instead:\n")
	sb.WriteString("- Press 'space' in the habits view to toggle today\n")
	sb.WriteString("- Press 'n' to create a habit or entry\n")
	sb.WriteString("- Press 'e' to edit, 'd' to delete\n\n")

	sb.WriteString("When referencing entries, include their date and title ")
	sb.WriteString("or first line. Keep responses concise and focused.")

	return sb.String()
}

// buildDataSummary queries the store for habit streaks and entry counts.
func (a *Assistant) buildDataSummary(ctx context.Context) string {
	habits, err := a.store.GetHabits(ctx)
	if err != nil {
		return "No data available."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Habits: %d, completed today: %d%%\n",
		len(habits), habit.CompletionPercent(habits)))
	for _, h := range habits {
		state := "pending"
		if h.Completed {
			state = "done"
		}
		sb.WriteString(fmt.Sprintf("- %s: streak %d, today %s\n",
			h.Name, h.Streak, state))
	}

	journal, _ := a.store.GetJournalEntries(ctx, store.EntryFilter{})
	gratitude, _ := a.store.GetGratitudeEntries(ctx, store.EntryFilter{})
	highlights, _ := a.store.GetHighlightEntries(ctx, store.EntryFilter{})
	sb.WriteString(fmt.Sprintf(
		"Entries: %d journal, %d gratitude, %d highlights",
		len(journal), len(gratitude), len(highlights)))

	return sb.String()
}

// buildAPIMessages converts the conversation context into the Claude API
// message format. Messages with JSON content blocks (from tool use) are
// sent as structured content; plain text messages are sent as-is.
func (a *Assistant) buildAPIMessages() []apiMessage {
	contextMsgs := a.context.GetMessages()
	var messages []apiMessage

	for _, msg := range contextMsgs {
		if isJSONArray(msg.Content) {
			var blocks []apiContentBlock
			if err := json.Unmarshal(
				[]byte(msg.Content), &blocks,
			); err == nil {
				messages = append(messages, apiMessage{
					Role:    string(msg.Role),
					Content: blocks,
				})
				continue
			}
		}

		messages = append(messages, apiMessage{
			Role: string(msg.Role),
			Content: []apiContentBlock{
				{Type: "text", Text: msg.Content},
			},
		})
	}

	return messages
}

// executeToolUse runs a tool requested by the AI and returns the result.
func (a *Assistant) executeToolUse(
	ctx context.Context,
	tu apiToolUse,
) string {
	// Read-only guard: reject any write-like tool names.
	writeTools := map[string]bool{
		"create_habit":  true,
		"toggle_habit":  true,
		"delete_habit":  true,
		"create_entry":  true,
		"update_entry":  true,
		"delete_entry":  true,
		"set_partner":   true,
		"clear_partner": true,
	}
	if writeTools[tu.Name] {
		return `{"error": "Write operations are not permitted. ` +
			`Please use the keyboard shortcuts instead: ` +
			`'space' to toggle today, 'n' to create, 'e' to edit, 'd' to delete."}`
	}

	switch tu.Name {
	case "search_entries":
		return a.handleSearchEntries(ctx, tu.Input)
	case "get_habit_stats":
		return a.handleGetHabitStats(ctx)
	default:
		return fmt.Sprintf(
			`{"error": "Unknown tool: %s"}`, tu.Name,
		)
	}
}

// handleSearchEntries queries one entry list with the provided parameters.
func (a *Assistant) handleSearchEntries(
	ctx context.Context,
	input json.RawMessage,
) string {
	var params struct {
		Kind  string `json:"kind"`
		Query string `json:"query"`
		Mood  string `json:"mood"`
		Limit int    `json:"limit"`
	}

	if err := json.Unmarshal(input, &params); err != nil {
		return fmt.Sprintf(`{"error": "Invalid parameters: %v"}`, err)
	}

	filter := store.EntryFilter{Limit: 20}
	if params.Limit > 0 && params.Limit < 20 {
		filter.Limit = params.Limit
	}
	if params.Query != "" {
		filter.Query = &params.Query
	}
	if params.Mood != "" {
		filter.Mood = &params.Mood
	}

	type entrySummary struct {
		ID   string `json:"id"`
		Date string `json:"date"`
		Text string `json:"text"`
		Mood string `json:"mood,omitempty"`
	}

	var summaries []entrySummary
	switch params.Kind {
	case "gratitude":
		// Gratitude entries carry no mood.
		filter.Mood = nil
		entries, err := a.store.GetGratitudeEntries(ctx, filter)
		if err != nil {
			return fmt.Sprintf(`{"error": "Search failed: %v"}`, err)
		}
		for _, e := range entries {
			summaries = append(summaries, entrySummary{
				ID:   e.ID,
				Date: e.Timestamp.Format("2006-01-02"),
				Text: strings.Join(e.Items, "; "),
			})
		}
	case "highlight":
		entries, err := a.store.GetHighlightEntries(ctx, filter)
		if err != nil {
			return fmt.Sprintf(`{"error": "Search failed: %v"}`, err)
		}
		for _, e := range entries {
			text := e.Highlight
			if e.Reason != "" {
				text += " (" + e.Reason + ")"
			}
			summaries = append(summaries, entrySummary{
				ID:   e.ID,
				Date: e.Timestamp.Format("2006-01-02"),
				Text: text,
				Mood: e.Mood,
			})
		}
	case "journal", "":
		entries, err := a.store.GetJournalEntries(ctx, filter)
		if err != nil {
			return fmt.Sprintf(`{"error": "Search failed: %v"}`, err)
		}
		for _, e := range entries {
			text := e.Content
			if e.Title != "" {
				text = e.Title + ": " + text
			}
			summaries = append(summaries, entrySummary{
				ID:   e.ID,
				Date: e.Timestamp.Format("2006-01-02"),
				Text: text,
				Mood: e.Mood,
			})
		}
	default:
		return fmt.Sprintf(`{"error": "Unknown entry kind: %s"}`, params.Kind)
	}

	result, err := json.Marshal(map[string]interface{}{
		"count":   len(summaries),
		"entries": summaries,
	})
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to encode results: %v"}`, err)
	}

	return string(result)
}

// handleGetHabitStats returns every habit with its derived fields.
func (a *Assistant) handleGetHabitStats(ctx context.Context) string {
	habits, err := a.store.GetHabits(ctx)
	if err != nil {
		return fmt.Sprintf(`{"error": "Loading habits failed: %v"}`, err)
	}

	type habitStat struct {
		Name           string `json:"name"`
		Streak         int    `json:"streak"`
		CompletedToday bool   `json:"completed_today"`
		Completions    int    `json:"total_completions"`
		CreatedAt      string `json:"created_at"`
	}

	stats := make([]habitStat, 0, len(habits))
	for _, h := range habits {
		completions := 0
		for _, done := range h.CompletionsByDate {
			if done {
				completions++
			}
		}
		stats = append(stats, habitStat{
			Name:           h.Name,
			Streak:         h.Streak,
			CompletedToday: h.Completed,
			Completions:    completions,
			CreatedAt:      h.CreatedAt.Format("2006-01-02"),
		})
	}

	result, err := json.Marshal(map[string]interface{}{
		"count":             len(stats),
		"completed_percent": habit.CompletionPercent(habits),
		"habits":            stats,
	})
	if err != nil {
		return fmt.Sprintf(`{"error": "Failed to encode stats: %v"}`, err)
	}

	return string(result)
}

// isJSONArray returns true if the string starts with '['.
func isJSONArray(s string) bool {
	trimmed := strings.TrimSpace(s)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
	Tools     []apiTool    `json:"tools,omitempty"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	// Common fields
	Type string `json:"type"`

	// For text blocks
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// For tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type apiToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// toolDefinitions returns the tool specifications for the Claude API.
func toolDefinitions() []apiTool {
	return []apiTool{
		{
			Name: "search_entries",
			Description: "Search journal, gratitude, and highlight entries. " +
				"Returns matching entries with their date and text.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"kind": {
						"type": "string",
						"enum": ["journal", "gratitude", "highlight"],
						"description": "Entry kind to search (default journal)"
					},
					"query": {
						"type": "string",
						"description": "Search query to match against titles and content"
					},
					"mood": {
						"type": "string",
						"description": "Filter by mood label"
					},
					"limit": {
						"type": "integer",
						"minimum": 1,
						"maximum": 20,
						"description": "Maximum number of entries to return"
					}
				}
			}`),
		},
		{
			Name: "get_habit_stats",
			Description: "Get every habit with its current streak, total " +
				"completions, and whether it is completed today.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {}
			}`),
		},
	}
}
