package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/teslastreamer/teslastreamer/internal/ratelimit"
	"github.com/teslastreamer/teslastreamer/internal/validate"
	"github.com/teslastreamer/teslastreamer/internal/video"
)

const (
	notURLText         = "Please send a direct video URL (e.g., .mp4 or .mkv)."
	addedText          = "Added: <b>%s</b>\nOpen your website in Tesla to play!"
	incompatibleText   = "\n\n⚠️ <b>Warning:</b> This link appears to be an HEVC/x265 video, which may not play in the Tesla browser. If it doesn't work, please find an H.264/x264 source."
	addFailedText      = "Error adding video. Please try again."
	throttledText      = "You're sending links too fast. Please wait a moment and try again."
	loginText          = "Click this link in your Tesla browser to log in and see your videos.\n\n➡️ <a href=\"%s\">%s</a>"
	loginFailedText    = "Error generating login link. Please try again."
	clearedText        = "✅ Successfully cleared %d video(s)."
	clearFailedText    = "❌ Error clearing videos. Please try again."
	unknownCommandText = "Unknown command. Send /help to see what I can do."
	genericErrorText   = "An error occurred. Please try again or contact support."
	helpText           = "Send me a direct video link (.mp4, .mkv) and open your website in the Tesla browser to play it.\n\n" +
		"/start - get your login link\n" +
		"/clear - remove your saved video\n" +
		"/help - show this message"

	// Each sender may submit a burst of links, then one every few seconds.
	submitRate  = 0.5
	submitBurst = 3
)

var urlTooLongText = fmt.Sprintf("That link is too long. Links must be %d characters or fewer.", validate.MaxURLLength)

// Sender is the part of *tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Store is the part of *video.Store the bot needs.
type Store interface {
	UpsertUser(ctx context.Context, id int64, displayName string) error
	ReplaceVideo(ctx context.Context, ownerID int64, url, title string) (video.Video, error)
	ClearVideos(ctx context.Context, ownerID int64) (int64, error)
}

type Bot struct {
	sender  Sender
	store   Store
	appURL  string
	limiter *ratelimit.Limiter
	wg      sync.WaitGroup
}

// New builds a dispatcher. appURL is the public web address used in login
// links, without a trailing slash.
func New(sender Sender, store Store, appURL string) *Bot {
	return &Bot{
		sender:  sender,
		store:   store,
		appURL:  appURL,
		limiter: ratelimit.NewLimiter(submitRate, submitBurst),
	}
}

// Run handles updates until ctx is canceled or updates is closed, then waits
// for handlers still in flight. Those handlers keep ctx's values but not its
// cancellation, so a shutdown does not abort a half-done replace.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()
	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.Handle(handlerCtx, update)
			}()
		}
	}
}

// Handle dispatches a single update. Anything other than a text message from
// a user is ignored.
func (b *Bot) Handle(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("bot: panic handling update", "update_id", update.UpdateID, "user_id", msg.From.ID, "panic", rec)
			b.reply(msg, genericErrorText)
		}
	}()

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.start(ctx, msg)
		case "clear":
			b.clear(ctx, msg)
		case "help":
			b.reply(msg, helpText)
		default:
			b.reply(msg, unknownCommandText)
		}
		return
	}
	b.addVideo(ctx, msg)
}

func (b *Bot) start(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	slog.Info("bot: start", "user_id", userID)

	if err := b.store.UpsertUser(ctx, userID, displayName(msg.From)); err != nil {
		slog.Error("bot: failed to register user", "user_id", userID, "error", err)
		b.reply(msg, loginFailedText)
		return
	}

	link := tgbotapi.EscapeText(tgbotapi.ModeHTML, b.appURL+"/login?user_id="+strconv.FormatInt(userID, 10))
	b.reply(msg, fmt.Sprintf(loginText, link, link))
}

func (b *Bot) clear(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	removed, err := b.store.ClearVideos(ctx, userID)
	if err != nil {
		slog.Error("bot: failed to clear videos", "user_id", userID, "error", err)
		b.reply(msg, clearFailedText)
		return
	}
	slog.Info("bot: cleared videos", "user_id", userID, "count", removed)
	b.reply(msg, fmt.Sprintf(clearedText, removed))
}

func (b *Bot) addVideo(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	sub, err := ParseSubmission(msg.Text)
	switch {
	case errors.Is(err, ErrURLTooLong):
		b.reply(msg, urlTooLongText)
		return
	case err != nil:
		b.reply(msg, notURLText)
		return
	}

	if !b.limiter.Allow(strconv.FormatInt(userID, 10)) {
		slog.Warn("bot: submission throttled", "user_id", userID)
		b.reply(msg, throttledText)
		return
	}

	if err := b.store.UpsertUser(ctx, userID, displayName(msg.From)); err != nil {
		slog.Error("bot: failed to register user", "user_id", userID, "error", err)
		b.reply(msg, addFailedText)
		return
	}
	v, err := b.store.ReplaceVideo(ctx, userID, sub.URL, sub.Title)
	if err != nil {
		slog.Error("bot: failed to add video", "user_id", userID, "error", err)
		b.reply(msg, addFailedText)
		return
	}
	slog.Info("bot: video added", "user_id", userID, "video_id", v.ID, "title", sub.Title, "incompatible", sub.Incompatible)

	text := fmt.Sprintf(addedText, tgbotapi.EscapeText(tgbotapi.ModeHTML, displayTitle(sub.Title)))
	if sub.Incompatible {
		text += incompatibleText
	}
	b.reply(msg, text)
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	if _, err := b.sender.Send(out); err != nil {
		slog.Error("bot: failed to send reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	return "Unknown"
}
