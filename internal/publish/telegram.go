package publish

import (
	"context"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramMessageLimit is the longest text the Bot API accepts in one message.
const TelegramMessageLimit = 4096

// TelegramTimeout bounds each Bot API request when no Client is set. The bot
// library ignores contexts.
const TelegramTimeout = 15 * time.Second

// TelegramRelay sends published payloads to a maintainer chat through a bot.
type TelegramRelay struct {
	Token  string
	ChatID int64
	// Endpoint overrides tgbotapi.APIEndpoint.
	Endpoint string
	Client   *http.Client
}

func (t *TelegramRelay) Name() string { return "telegram" }

// Relay sends text as one or more messages, split on line boundaries.
func (t *TelegramRelay) Relay(ctx context.Context, text string) error {
	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(t.Token, endpoint, t.httpClient())
	if err != nil {
		return fmt.Errorf("publish: telegram login: %w", err)
	}

	for _, chunk := range SplitMessage(text, TelegramMessageLimit) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.ChatID, chunk)
		msg.DisableWebPagePreview = true
		if _, err := api.Send(msg); err != nil {
			return fmt.Errorf("publish: telegram send: %w", err)
		}
	}
	return nil
}

func (t *TelegramRelay) httpClient() *http.Client {
	if t.Client != nil {
		return t.Client
	}
	return &http.Client{Timeout: TelegramTimeout}
}

// SplitMessage cuts text into pieces of at most limit characters. It prefers
// to cut after a newline and never splits a UTF-8 sequence.
func SplitMessage(text string, limit int) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	for utf8.RuneCountInString(text) > limit {
		cut := byteOffset(text, limit)
		if nl := lastNewline(text[:cut]); nl > 0 {
			cut = nl + 1
		}
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// byteOffset returns the byte index just past the first n runes of s.
func byteOffset(s string, n int) int {
	i := 0
	for n > 0 && i < len(s) {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n--
	}
	return i
}

func lastNewline(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '\n' {
			return i
		}
	}
	return -1
}
