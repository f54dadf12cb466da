package server

import "testing"

// TestTypingSet тестирует установку и сброс флага набора
func TestTypingSet(t *testing.T) {
	tr := NewTypingTracker()

	if tr.IsTyping("a", "b") {
		t.Error("Fresh tracker must report no typing")
	}

	tr.Set("a", "b", true)
	if !tr.IsTyping("a", "b") {
		t.Error("Expected a to be typing to b")
	}
	if tr.IsTyping("b", "a") {
		t.Error("Typing is directional")
	}

	// Повторная установка идемпотентна
	tr.Set("a", "b", true)
	if !tr.IsTyping("a", "b") {
		t.Error("Repeated set must keep the flag")
	}

	tr.Set("a", "b", false)
	if tr.IsTyping("a", "b") {
		t.Error("Expected flag to be cleared")
	}

	// Сброс несуществующего флага — не ошибка
	tr.Set("x", "y", false)
	if tr.IsTyping("x", "y") {
		t.Error("Clearing an absent flag must stay absent")
	}
}

// TestTypingClearSender тестирует очистку всех флагов отправителя
func TestTypingClearSender(t *testing.T) {
	tr := NewTypingTracker()

	tr.Set("a", "b", true)
	tr.Set("a", "c", true)
	tr.Set("z", "b", true)

	tr.ClearSender("a")

	if tr.IsTyping("a", "b") || tr.IsTyping("a", "c") {
		t.Error("All flags of the cleared sender must be gone")
	}
	if !tr.IsTyping("z", "b") {
		t.Error("Other senders must be untouched")
	}
}
