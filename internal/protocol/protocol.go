// Package protocol defines the messages sent to event stream clients.
package protocol

import "time"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeFired is sent when a hotkey or hotstring matches live input
	TypeFired MessageType = "fired"

	// TypeState is sent when the engine is paused or resumed, and once to
	// every client on connect
	TypeState MessageType = "state"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// FiredPayload is the payload for TypeFired
type FiredPayload struct {
	// ID is unique per match so clients can drop duplicates
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // "hotkey" or "hotstring"
	Trigger     string    `json:"trigger"`
	Description string    `json:"description"`
	Time        time.Time `json:"time"`
}

// StatePayload is the payload for TypeState
type StatePayload struct {
	Running    bool `json:"running"`
	Hotkeys    int  `json:"hotkeys"`
	Hotstrings int  `json:"hotstrings"`
}

// TriggerInfo describes one registered trigger in listings
type TriggerInfo struct {
	Trigger     string `json:"trigger"`
	Description string `json:"description"`
}

// TriggersResponse is returned by the trigger listing endpoint
type TriggersResponse struct {
	Hotkeys    []TriggerInfo `json:"hotkeys"`
	Hotstrings []TriggerInfo `json:"hotstrings"`
}
