package pocketbot

import "encoding/json"

// ============================================================================
// Wire Envelopes
// ============================================================================

// Inbound is a decoded server-to-client frame. Exactly one of the variants
// below is produced per frame; anything the decoder does not recognize maps
// to "ignore" rather than an error.
type Inbound interface {
	inboundFrame()
}

// ConnectedFrame is the welcome frame carrying the server-assigned session id.
type ConnectedFrame struct {
	SessionID string
}

// MessageFrame is a chat message relayed by the server.
type MessageFrame struct {
	Role      string
	Content   string
	Timestamp string
}

// TypingFrame signals that the assistant started or stopped composing.
type TypingFrame struct {
	Status bool
}

// ErrorFrame carries a server-side error; the connection stays open.
type ErrorFrame struct {
	Content string
}

func (ConnectedFrame) inboundFrame() {}
func (MessageFrame) inboundFrame()   {}
func (TypingFrame) inboundFrame()    {}
func (ErrorFrame) inboundFrame()     {}

// rawFrame mirrors the flat wire shape shared by all inbound variants.
type rawFrame struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Status    bool   `json:"status"`
}

// DecodeInbound parses raw frame text. ok is false when the frame is not
// valid JSON or carries an unknown type tag; such frames are dropped without
// surfacing anything to the caller.
func DecodeInbound(data []byte) (Inbound, bool) {
	var f rawFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, false
	}
	switch f.Type {
	case "connected":
		return ConnectedFrame{SessionID: f.SessionID}, true
	case "message":
		return MessageFrame{Role: f.Role, Content: f.Content, Timestamp: f.Timestamp}, true
	case "typing":
		return TypingFrame{Status: f.Status}, true
	case "error":
		return ErrorFrame{Content: f.Content}, true
	}
	return nil, false
}

type outboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// EncodeOutbound serializes plain message text into the client-to-server
// frame shape.
func EncodeOutbound(content string) ([]byte, error) {
	return json.Marshal(outboundFrame{Type: "message", Content: content})
}
