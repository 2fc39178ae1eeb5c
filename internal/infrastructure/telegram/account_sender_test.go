package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
)

func TestInviteHash(t *testing.T) {
	tests := []struct {
		link     string
		hash     string
		isInvite bool
	}{
		{"https://t.me/+AbCdEf123", "AbCdEf123", true},
		{"https://t.me/joinchat/AbCdEf123", "AbCdEf123", true},
		{"t.me/+AbCdEf123", "AbCdEf123", true},
		{"t.me/joinchat/AbCdEf123", "AbCdEf123", true},
		{"https://t.me/public_chat", "", false},
		{"@public_chat", "", false},
	}

	for _, tt := range tests {
		hash, ok := inviteHash(tt.link)
		if ok != tt.isInvite || hash != tt.hash {
			t.Errorf("inviteHash(%q) = %q, %v; expected %q, %v", tt.link, hash, ok, tt.hash, tt.isInvite)
		}
	}
}

func TestExtractMessageID(t *testing.T) {
	if got := extractMessageID(&tg.UpdateShortSentMessage{ID: 42}); got != 42 {
		t.Errorf("Expected message ID 42 from short sent message, got %d", got)
	}

	full := &tg.Updates{Updates: []tg.UpdateClass{&tg.UpdateMessageID{ID: 7}}}
	if got := extractMessageID(full); got != 7 {
		t.Errorf("Expected message ID 7 from full updates, got %d", got)
	}

	if got := extractMessageID(&tg.UpdatesTooLong{}); got != 0 {
		t.Errorf("Expected zero ID for an unrecognized updates shape, got %d", got)
	}
}
