// Package whatsapp implements WhatsApp integration via a Node.js bridge.
// The bridge holds the WhatsApp session and exposes a small HTTP API;
// it forwards inbound messages and delivery receipts to our webhooks.
package whatsapp

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/stridecoach/stride/plugin/chat_apps"
	"github.com/stridecoach/stride/plugin/chat_apps/channels"
)

// BridgeClient communicates with the Node.js WhatsApp bridge service.
type BridgeClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewBridgeClient creates a new client for the WhatsApp bridge.
func NewBridgeClient(bridgeURL, apiKey string) *BridgeClient {
	return &BridgeClient{
		baseURL: bridgeURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// inboundMessage is the bridge's webhook payload for a user message.
type inboundMessage struct {
	Key struct {
		RemoteJID string `json:"remoteJid"` // Phone number with @s.whatsapp.net
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	Message struct {
		Conversation string `json:"conversation"`
	} `json:"message"`
	PushName  string `json:"pushName"`
	Timestamp int64  `json:"messageTimestamp"`
}

// statusUpdate is the bridge's webhook payload for a delivery receipt.
type statusUpdate struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"` // delivered, read, failed
	Timestamp int64  `json:"timestamp"`
}

// WhatsAppChannel implements ChatChannel for WhatsApp via the bridge.
type WhatsAppChannel struct {
	bridge *BridgeClient
}

// NewWhatsAppChannel creates a new WhatsApp channel.
func NewWhatsAppChannel(bridgeURL, apiKey string) (*WhatsAppChannel, error) {
	bridge := NewBridgeClient(bridgeURL, apiKey)

	// Verify bridge is running
	if err := bridge.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("whatsapp bridge not reachable: %w", err)
	}

	return &WhatsAppChannel{
		bridge: bridge,
	}, nil
}

// Name returns the platform name.
func (w *WhatsAppChannel) Name() chat_apps.Platform {
	return chat_apps.PlatformWhatsApp
}

// ValidateWebhook verifies the incoming webhook from the bridge.
// The bridge sends back the configured API key in a header.
func (w *WhatsAppChannel) ValidateWebhook(ctx context.Context, headers map[string]string, body []byte) error {
	if w.bridge.apiKey == "" {
		return nil
	}
	got := headers["X-Bridge-Api-Key"]
	if got == "" {
		got = headers["x-bridge-api-key"]
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(w.bridge.apiKey)) != 1 {
		return channels.ErrInvalidSignature
	}
	return nil
}

// ParseMessage parses the incoming webhook payload.
func (w *WhatsAppChannel) ParseMessage(ctx context.Context, payload []byte) (*chat_apps.IncomingMessage, error) {
	var waMsg inboundMessage
	if err := json.Unmarshal(payload, &waMsg); err != nil {
		return nil, channels.ErrInvalidPayload
	}
	if waMsg.Key.RemoteJID == "" {
		return nil, channels.ErrInvalidPayload
	}

	msg := &chat_apps.IncomingMessage{
		Platform:       chat_apps.PlatformWhatsApp,
		PlatformUserID: waMsg.Key.RemoteJID,
		PlatformChatID: waMsg.Key.RemoteJID,
		Phone:          NormalizeJID(waMsg.Key.RemoteJID),
		Content:        waMsg.Message.Conversation,
		Metadata:       make(map[string]string),
		Timestamp:      time.Unix(waMsg.Timestamp, 0),
	}

	msg.Metadata["message_id"] = waMsg.Key.ID
	msg.Metadata["from_me"] = fmt.Sprintf("%v", waMsg.Key.FromMe)
	if waMsg.PushName != "" {
		msg.Metadata["push_name"] = waMsg.PushName
	}

	return msg, nil
}

// ParseStatusUpdate parses a delivery-receipt webhook payload.
func (w *WhatsAppChannel) ParseStatusUpdate(payload []byte) (*chat_apps.DeliveryStatus, error) {
	var update statusUpdate
	if err := json.Unmarshal(payload, &update); err != nil {
		return nil, channels.ErrInvalidPayload
	}
	if update.MessageID == "" || update.Status == "" {
		return nil, channels.ErrInvalidPayload
	}

	return &chat_apps.DeliveryStatus{
		Platform:   chat_apps.PlatformWhatsApp,
		DispatchID: update.MessageID,
		Status:     update.Status,
		Timestamp:  time.Unix(update.Timestamp, 0),
	}, nil
}

// SendMessage sends a message to WhatsApp. Returns the bridge-side
// message identifier.
func (w *WhatsAppChannel) SendMessage(ctx context.Context, msg *chat_apps.OutgoingMessage) (string, error) {
	return w.bridge.SendMessage(ctx, &SendMessageRequest{
		JID:     ToJID(msg.PlatformChatID),
		Content: msg.Content,
	})
}

// Close closes the WhatsApp channel.
func (w *WhatsAppChannel) Close() error {
	return nil
}

// NormalizeJID strips the WhatsApp JID suffix, leaving the bare phone number.
func NormalizeJID(jid string) string {
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		return jid[:i]
	}
	return jid
}

// ToJID converts a bare phone number to a WhatsApp JID. Already-formed
// JIDs pass through unchanged.
func ToJID(phone string) string {
	if strings.ContainsRune(phone, '@') {
		return phone
	}
	return phone + "@s.whatsapp.net"
}

// Bridge API methods

// SendMessageRequest sends a message via the bridge.
type SendMessageRequest struct {
	JID     string `json:"jid"`
	Content string `json:"content"`
}

// HealthCheck verifies the bridge is running and WhatsApp is connected.
func (b *BridgeClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", b.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	if b.apiKey != "" {
		req.Header.Set("x-bridge-api-key", b.apiKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	var result struct {
		Status    string `json:"status"`
		Connected bool   `json:"connected"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		// If we can't parse the response, at least we know the bridge is running
		slog.Debug("whatsapp: could not parse health check response", "error", err)
		return nil
	}

	if result.Status == "disconnected" || (result.Status == "" && !result.Connected) {
		return fmt.Errorf("whatsapp not connected: bridge is running but session is not active")
	}

	return nil
}

// SendMessage sends a message via the bridge. Returns the bridge-side
// message identifier for delivery correlation.
func (b *BridgeClient) SendMessage(ctx context.Context, req *SendMessageRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+"/send", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("x-bridge-api-key", b.apiKey)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("send failed: status %d", resp.StatusCode)
	}

	var result struct {
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Debug("whatsapp: could not parse send response", "error", err)
		return "", nil
	}

	return result.MessageID, nil
}

// Ensure WhatsAppChannel implements ChatChannel
var _ channels.ChatChannel = (*WhatsAppChannel)(nil)
