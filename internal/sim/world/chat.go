package world

import (
	"strings"
	"unicode"

	"haven.world/internal/protocol"
)

func (w *World) applyChat(playerID string, c *clientState, m protocol.Chat) {
	text := normalizeChat(m.Text, w.cfg.ChatMaxRunes)
	if text == "" {
		return
	}
	now := w.cfg.Now()
	if !c.chat.AllowN(now, 1) {
		w.sendError(playerID, protocol.ErrRateLimit, "slow down")
		return
	}
	w.broadcast(protocol.ChatMessageMsg{
		Type:      protocol.TypeChatMessage,
		Sender:    playerID,
		Text:      text,
		Timestamp: float64(now.UnixMilli()) / 1000,
	}, "")
}

// normalizeChat trims, drops control characters and caps the message at limit runes.
func normalizeChat(s string, limit int) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.TrimSpace(s)
	if limit > 0 {
		if r := []rune(s); len(r) > limit {
			s = strings.TrimSpace(string(r[:limit]))
		}
	}
	return s
}
