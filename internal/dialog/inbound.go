// Package dialog implements the menu-driven conversation engine: it decides,
// for every inbound message, whether it selects a menu action, answers the
// current step of a multi-turn flow, or falls back to re-presenting the menu.
package dialog

// Inbound is one received message, as delivered by the channel adapter.
type Inbound struct {
	// ContactID is the channel-specific address of the sender.
	ContactID string `json:"contact_id"`
	// Text is the raw message body.
	Text string `json:"text"`
	// DisplayName is the sender's profile name, when the channel knows it.
	DisplayName string `json:"display_name,omitempty"`
}
