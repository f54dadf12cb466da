package protocol

import (
	"errors"
	"testing"
)

// TestDecodeMessage тестирует разбор события message
func TestDecodeMessage(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"message","recipient_id":"7654321","text":"  hi  "}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}

	if ev.Type != TypeMessage {
		t.Errorf("Expected type %q, got %q", TypeMessage, ev.Type)
	}
	if ev.RecipientID != "7654321" {
		t.Errorf("Expected recipient 7654321, got %q", ev.RecipientID)
	}
	if ev.Text != "  hi  " {
		t.Errorf("Text must be decoded untrimmed, got %q", ev.Text)
	}
}

// TestDecodeTypingDefault тестирует значение is_typing по умолчанию
func TestDecodeTypingDefault(t *testing.T) {
	ev, err := Decode([]byte(`{"type":"typing","recipient_id":"1234567"}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if !ev.Typing() {
		t.Error("Absent is_typing must default to true")
	}

	ev, err = Decode([]byte(`{"type":"typing","recipient_id":"1234567","is_typing":false}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if ev.Typing() {
		t.Error("Explicit is_typing=false must be preserved")
	}
}

// TestDecodeMalformed тестирует отбрасывание битых кадров
func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"recipient_id":"1234567"}`,
		`{}`,
		``,
	}

	for _, c := range cases {
		if _, err := Decode([]byte(c)); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("Expected ErrInvalidEvent for %q, got %v", c, err)
		}
	}
}

// TestDecodeUnknownType тестирует, что незнакомый тег проходит декодер
func TestDecodeUnknownType(t *testing.T) {
	// Незнакомые теги отбрасывает диспетчер, а не декодер
	ev, err := Decode([]byte(`{"type":"dance"}`))
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if ev.Type != "dance" {
		t.Errorf("Expected type dance, got %q", ev.Type)
	}
}
