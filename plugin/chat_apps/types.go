// Package chat_apps provides multi-platform chat integration for Stride.
// Supported platforms: WhatsApp (via Node.js bridge), Telegram.
package chat_apps

import "time"

// Platform represents a supported chat platform.
type Platform string

const (
	PlatformWhatsApp Platform = "whatsapp"
	PlatformTelegram Platform = "telegram"
)

// IsValid checks if the platform is valid.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformWhatsApp, PlatformTelegram:
		return true
	default:
		return false
	}
}

// IncomingMessage represents a message from a chat platform.
type IncomingMessage struct {
	Platform       Platform          // Source platform
	PlatformUserID string            // Platform-specific user ID
	PlatformChatID string            // Platform-specific chat ID
	Phone          string            // Normalized phone number (digits only), empty for platforms without one
	Content        string            // Text content
	Metadata       map[string]string // Additional platform-specific metadata
	Timestamp      time.Time         // Message timestamp
}

// OutgoingMessage represents a message to send to a chat platform.
type OutgoingMessage struct {
	PlatformChatID string // Destination chat ID
	Content        string // Text content
	ParseMode      string // Markdown/HTML parsing mode (optional)
}

// DeliveryStatus represents a delivery-state change reported by a platform.
type DeliveryStatus struct {
	Platform   Platform
	DispatchID string // Platform-side message identifier
	Status     string // sent, delivered, read, failed
	Timestamp  time.Time
}
