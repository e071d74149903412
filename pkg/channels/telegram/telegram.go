package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Deliverer sends finished transcripts to a single Telegram chat.
type Deliverer struct {
	token    string
	chatID   int64
	endpoint string
	log      zerolog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewDeliverer creates a deliverer for chatID. The bot connects on first use.
func NewDeliverer(token, chatID string, log zerolog.Logger) (*Deliverer, error) {
	id, err := ParseChatID(chatID)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, fmt.Errorf("missing Telegram bot token")
	}
	return &Deliverer{
		token:    token,
		chatID:   id,
		endpoint: tgbotapi.APIEndpoint,
		log:      log,
	}, nil
}

// WithEndpoint points the bot at another Bot API server (format as tgbotapi.APIEndpoint).
func (d *Deliverer) WithEndpoint(endpoint string) *Deliverer {
	d.endpoint = endpoint
	return d
}

// ParseChatID parses a numeric chat ID; group chats are negative.
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat ID %q: %w", s, err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid chat ID %q", s)
	}
	return id, nil
}

func (d *Deliverer) connect() (*tgbotapi.BotAPI, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bot != nil {
		return d.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(d.token, d.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to init bot: %w", err)
	}
	d.log.Debug().Str("bot", bot.Self.UserName).Msg("connected to Telegram")
	d.bot = bot
	return bot, nil
}

// Deliver uploads the file at path as a document with the given caption.
func (d *Deliverer) Deliver(ctx context.Context, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := d.connect()
	if err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(d.chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := bot.Send(doc); err != nil {
		return fmt.Errorf("failed to send %s: %w", path, err)
	}
	d.log.Info().Str("file", path).Int64("chat_id", d.chatID).Msg("delivered transcript")
	return nil
}

// SendMessage posts a plain text message to the chat.
func (d *Deliverer) SendMessage(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := d.connect()
	if err != nil {
		return err
	}
	_, err = bot.Send(tgbotapi.NewMessage(d.chatID, content))
	return err
}
