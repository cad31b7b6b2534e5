package pocketbot

import "fmt"

// ============================================================================
// Shared Types
// ============================================================================

// APIError is a non-success HTTP response mapped to an error.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// ServerConnection identifies the target endpoint and optional bearer
// credential. It is passed by value into Connect and is immutable for the
// duration of a connection attempt.
type ServerConnection struct {
	Address string
	Token   string
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single chat entry, created either locally (user-authored)
// or decoded from an inbound frame (assistant-authored). Immutable once
// created.
type ChatMessage struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// ============================================================================
// HTTP API Types
// ============================================================================

// StatusInfo is the response of GET /api/status.
type StatusInfo struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Connections   int     `json:"connections"`
	Host          string  `json:"host"`
	Port          int     `json:"port"`
	Model         string  `json:"model"`
	AuthEnabled   bool    `json:"auth_enabled"`
}

// AgentConfig is the response of GET /api/config.
type AgentConfig struct {
	Model             string  `json:"model"`
	MaxTokens         int     `json:"max_tokens"`
	Temperature       float64 `json:"temperature"`
	MemoryWindow      int     `json:"memory_window"`
	MaxToolIterations int     `json:"max_tool_iterations"`
	Workspace         string  `json:"workspace"`
	WebHost           string  `json:"web_host"`
	WebPort           int     `json:"web_port"`
	AuthEnabled       bool    `json:"auth_enabled"`
}

// ConfigUpdate selects the agent settings to change via PUT /api/config.
// Nil fields are omitted from the request; the server validates and clamps.
type ConfigUpdate struct {
	Model             *string
	MaxTokens         *int
	Temperature       *float64
	MemoryWindow      *int
	MaxToolIterations *int
}

func (u ConfigUpdate) payload() map[string]any {
	p := map[string]any{}
	if u.Model != nil {
		p["model"] = *u.Model
	}
	if u.MaxTokens != nil {
		p["max_tokens"] = *u.MaxTokens
	}
	if u.Temperature != nil {
		p["temperature"] = *u.Temperature
	}
	if u.MemoryWindow != nil {
		p["memory_window"] = *u.MemoryWindow
	}
	if u.MaxToolIterations != nil {
		p["max_tool_iterations"] = *u.MaxToolIterations
	}
	return p
}

// ConfigUpdateResult reports which fields the server accepted and which it
// rejected, keyed by field name.
type ConfigUpdateResult struct {
	Updated map[string]any    `json:"updated"`
	Errors  map[string]string `json:"errors"`
}

// UploadResult is the response of a successful attachment upload.
type UploadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}
