package helpers

import tele "gopkg.in/telebot.v4"

// Content kinds reported for inbound messages.
const (
	KindText      = "text"
	KindSticker   = "sticker"
	KindPhoto     = "photo"
	KindDocument  = "document"
	KindAudio     = "audio"
	KindVideo     = "video"
	KindVoice     = "voice"
	KindAnimation = "animation"
	KindOther     = "other"
)

// ContentKind classifies the message carried by the update.
func ContentKind(c tele.Context) string {
	msg := c.Message()
	if msg == nil {
		return KindOther
	}
	switch {
	case msg.Sticker != nil:
		return KindSticker
	case msg.Animation != nil:
		return KindAnimation
	case msg.Photo != nil:
		return KindPhoto
	case msg.Voice != nil:
		return KindVoice
	case msg.Audio != nil:
		return KindAudio
	case msg.Video != nil:
		return KindVideo
	case msg.Document != nil:
		return KindDocument
	case msg.Text != "":
		return KindText
	}
	return KindOther
}

const (
	messagesKey = "lunabot_messages"
	keyboardKey = "lunabot_kb"
)

// ResetCounters zeroes the outbound message counters for the current update.
func ResetCounters(c tele.Context) {
	c.Set(messagesKey, 0)
	c.Set(keyboardKey, false)
}

// Counters returns how many messages were queued for the update and whether any carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return n, kb
}

func countOutbound(c tele.Context, withKeyboard bool) {
	n, _ := c.Get(messagesKey).(int)
	c.Set(messagesKey, n+1)
	if withKeyboard {
		c.Set(keyboardKey, true)
	}
}
