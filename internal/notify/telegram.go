package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/jobwatch/internal/domain"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

type TelegramConfig struct {
	Token           string
	PostingsChatID  int64
	CompaniesChatID int64
	OperatorChatID  int64
	// SendRate is messages per second across all chats.
	SendRate    float64
	HTTPTimeout time.Duration
}

// Telegram sends postings, summaries and status lines to three chats.
type Telegram struct {
	api     *tgbotapi.BotAPI
	cfg     TelegramConfig
	limiter *rate.Limiter
	log     logger.Logger
}

func NewTelegram(cfg TelegramConfig, log logger.Logger) (*Telegram, error) {
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = 1
	}

	client := &http.Client{Timeout: cfg.HTTPTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	log.Info("telegram bot ready", logger.String("bot", api.Self.UserName))

	return &Telegram{
		api:     api,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.SendRate), 1),
		log:     log.With(logger.String("sink", "telegram")),
	}, nil
}

func (t *Telegram) NotifyPosting(ctx context.Context, p domain.Posting) error {
	text := PostingHTML(p)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔎 Company", GoogleURL(p.Company)),
			tgbotapi.NewInlineKeyboardButtonURL("💰 Levels.fyi", LevelsURL(p.Company)),
		),
	)

	if p.ThumbnailURL != "" && p.Thumbnail() != domain.DefaultThumbnail {
		photo := tgbotapi.NewPhoto(t.cfg.PostingsChatID, tgbotapi.FileURL(p.Thumbnail()))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = keyboard
		return t.send(ctx, photo)
	}

	msg := tgbotapi.NewMessage(t.cfg.PostingsChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = keyboard
	return t.send(ctx, msg)
}

func (t *Telegram) NotifySummary(ctx context.Context, companies []string) error {
	if len(companies) == 0 {
		return nil
	}
	return t.send(ctx, tgbotapi.NewMessage(t.cfg.CompaniesChatID, SummaryText(companies)))
}

func (t *Telegram) NotifyOperator(ctx context.Context, msg string) error {
	return t.send(ctx, tgbotapi.NewMessage(t.cfg.OperatorChatID, msg))
}

// Reply sends plain text to an arbitrary chat.
func (t *Telegram) Reply(ctx context.Context, chatID int64, text string) error {
	return t.send(ctx, tgbotapi.NewMessage(chatID, text))
}

// send waits for the rate limiter and performs the request. The bot API
// call itself ignores ctx, so it runs in its own goroutine and ctx only
// bounds how long we wait for it; the HTTP client timeout reaps it.
func (t *Telegram) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		_, err := t.api.Send(c)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MessageHandler handles an incoming chat message and returns an optional reply.
type MessageHandler func(ctx context.Context, chatID int64, text string) (reply string)

// Listen long-polls bot updates and hands human-authored messages (and
// channel posts) to handler until ctx is done.
func (t *Telegram) Listen(ctx context.Context, handler MessageHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	t.log.Info("listening for bot commands")

	for {
		select {
		case <-ctx.Done():
			t.log.Info("command listener stopped")
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			msg := upd.Message
			if msg == nil {
				msg = upd.ChannelPost
			}
			if msg == nil || msg.Text == "" {
				continue
			}
			if msg.From != nil && msg.From.IsBot {
				continue
			}

			reply := handler(ctx, msg.Chat.ID, msg.Text)
			if reply == "" {
				continue
			}
			if err := t.Reply(ctx, msg.Chat.ID, reply); err != nil {
				t.log.Warn("failed to reply to command", logger.Error(err))
			}
		}
	}
}
