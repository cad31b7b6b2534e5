package pocketbot_test

import (
	"encoding/json"
	"testing"

	pocketbot "github.com/jojo-swe/pocketbot-go"
)

func TestDecodeInbound(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		frame, ok := pocketbot.DecodeInbound([]byte(`{"type":"connected","session_id":"s-42"}`))
		if !ok {
			t.Fatal("expected frame to decode")
		}
		f, isConnected := frame.(pocketbot.ConnectedFrame)
		if !isConnected {
			t.Fatalf("expected ConnectedFrame, got %T", frame)
		}
		if f.SessionID != "s-42" {
			t.Fatalf("expected session id s-42, got %q", f.SessionID)
		}
	})

	t.Run("message", func(t *testing.T) {
		frame, ok := pocketbot.DecodeInbound([]byte(`{"type":"message","role":"assistant","content":"hi there","timestamp":"2026-01-01T00:00:00Z"}`))
		if !ok {
			t.Fatal("expected frame to decode")
		}
		f, isMessage := frame.(pocketbot.MessageFrame)
		if !isMessage {
			t.Fatalf("expected MessageFrame, got %T", frame)
		}
		if f.Role != "assistant" || f.Content != "hi there" {
			t.Fatalf("unexpected fields: %+v", f)
		}
		if f.Timestamp != "2026-01-01T00:00:00Z" {
			t.Fatalf("unexpected timestamp: %q", f.Timestamp)
		}
	})

	t.Run("typing true", func(t *testing.T) {
		frame, ok := pocketbot.DecodeInbound([]byte(`{"type":"typing","status":true}`))
		if !ok {
			t.Fatal("expected frame to decode")
		}
		if f := frame.(pocketbot.TypingFrame); !f.Status {
			t.Fatal("expected status true")
		}
	})

	t.Run("typing false", func(t *testing.T) {
		frame, ok := pocketbot.DecodeInbound([]byte(`{"type":"typing","status":false}`))
		if !ok {
			t.Fatal("expected frame to decode")
		}
		if f := frame.(pocketbot.TypingFrame); f.Status {
			t.Fatal("expected status false")
		}
	})

	t.Run("error", func(t *testing.T) {
		frame, ok := pocketbot.DecodeInbound([]byte(`{"type":"error","content":"model unavailable"}`))
		if !ok {
			t.Fatal("expected frame to decode")
		}
		if f := frame.(pocketbot.ErrorFrame); f.Content != "model unavailable" {
			t.Fatalf("unexpected content: %q", f.Content)
		}
	})

	t.Run("unknown tag ignored", func(t *testing.T) {
		if _, ok := pocketbot.DecodeInbound([]byte(`{"type":"pong"}`)); ok {
			t.Fatal("expected unknown tag to be ignored")
		}
	})

	t.Run("missing tag ignored", func(t *testing.T) {
		if _, ok := pocketbot.DecodeInbound([]byte(`{"content":"x"}`)); ok {
			t.Fatal("expected tagless frame to be ignored")
		}
	})

	t.Run("non-JSON ignored", func(t *testing.T) {
		if _, ok := pocketbot.DecodeInbound([]byte("not json at all")); ok {
			t.Fatal("expected junk to be ignored")
		}
	})

	t.Run("malformed payload ignored", func(t *testing.T) {
		if _, ok := pocketbot.DecodeInbound([]byte(`{"type":"typing","status":"yes"}`)); ok {
			t.Fatal("expected mistyped payload to be ignored")
		}
	})

	t.Run("empty input ignored", func(t *testing.T) {
		if _, ok := pocketbot.DecodeInbound(nil); ok {
			t.Fatal("expected empty input to be ignored")
		}
	})
}

func TestEncodeOutbound(t *testing.T) {
	data, err := pocketbot.EncodeOutbound(`hello "world"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["type"] != "message" {
		t.Fatalf("expected type message, got %q", decoded["type"])
	}
	if decoded["content"] != `hello "world"` {
		t.Fatalf("unexpected content: %q", decoded["content"])
	}
	if len(decoded) != 2 {
		t.Fatalf("expected exactly type and content, got %v", decoded)
	}
}
