package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nhle/daybook/internal/model"
)

// WhatsAppMessenger delivers accountability messages through a local
// messaging gateway. The gateway receives the recipient's phone number,
// the rendered message text, and a wa.me link it can hand to whatever
// WhatsApp bridge it fronts.
type WhatsAppMessenger struct {
	gatewayURL string
	senderName string
	httpClient *http.Client
}

// NewWhatsAppMessenger creates a messenger that posts to gatewayURL.
// Messages are attributed to senderName; an empty name falls back to
// "Your partner".
func NewWhatsAppMessenger(gatewayURL, senderName string) *WhatsAppMessenger {
	if senderName == "" {
		senderName = "Your partner"
	}
	return &WhatsAppMessenger{
		gatewayURL: gatewayURL,
		senderName: senderName,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// messagePayload is the body posted to the messaging gateway.
type messagePayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Link    string `json:"link"`
}

// ComposeMessage renders the accountability completion message.
func ComposeMessage(senderName, habitName string, percent int) string {
	return fmt.Sprintf(
		"🎉 %s just completed their \"%s\" habit! That's %d%% of their habits done today. Keep up the great work and stay motivated! 💪",
		senderName, habitName, percent,
	)
}

// MessageLink builds the wa.me deep link for the partner's phone number
// and message text.
func MessageLink(partner model.AccountabilityPartner, text string) (string, error) {
	if !partner.ValidPhone() {
		return "", fmt.Errorf("invalid partner phone number %q", partner.PhoneNumber)
	}
	return "https://wa.me/" + partner.PhoneDigits() + "?text=" + url.QueryEscape(text), nil
}

// SendAccountability posts the completion message to the gateway. It
// never inspects the partner's Enabled flag; the caller gates on it.
func (m *WhatsAppMessenger) SendAccountability(
	ctx context.Context,
	partner model.AccountabilityPartner,
	habitName string,
	percent int,
) error {
	text := ComposeMessage(m.senderName, habitName, percent)
	link, err := MessageLink(partner, text)
	if err != nil {
		return err
	}

	if m.gatewayURL == "" {
		return fmt.Errorf("no messaging gateway configured")
	}

	payload := messagePayload{
		Phone:   partner.PhoneDigits(),
		Message: text,
		Link:    link,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, m.gatewayURL, bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("creating gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting to messaging gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf(
			"messaging gateway returned %d: %s", resp.StatusCode, string(body),
		)
	}
	return nil
}
