package bot

import (
	"Relay/core"
	"Relay/lib/sl"
	"Relay/relay"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/sourcegraph/conc"
)

const (
	commandStart  = "start"
	commandHelp   = "help"
	commandStatus = "status"

	typingInterval = 5 * time.Second
)

// Relay is the part of the pipeline the transport needs.
type Relay interface {
	Handle(ctx context.Context, profile core.Profile, text string) relay.Reply
	Start(ctx context.Context, profile core.Profile) relay.Reply
	Help() relay.Reply
	Status(ctx context.Context, userId int64) relay.Reply
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TgBot struct {
	api         *tgbotapi.BotAPI
	sender      sender
	relay       Relay
	log         *slog.Logger
	botUsername string
	wg          *conc.WaitGroup
	stopChan    chan struct{}
}

func NewTgBot(conf *core.Config, relay Relay, log *slog.Logger) (*TgBot, error) {
	api, err := tgbotapi.NewBotAPI(conf.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("creating bot api: %w", err)
	}

	username := conf.Username
	if username == "" {
		username = api.Self.UserName
	}

	tgBot := newTgBot(api, relay, log, username)
	tgBot.api = api
	tgBot.log.With(
		slog.String("username", username),
		sl.Secret(conf.TelegramToken),
	).Info("authorized")
	return tgBot, nil
}

func newTgBot(s sender, relay Relay, log *slog.Logger, username string) *TgBot {
	return &TgBot{
		sender:      s,
		relay:       relay,
		log:         log.With(sl.Module("tgbot")),
		botUsername: username,
		wg:          conc.NewWaitGroup(),
		stopChan:    make(chan struct{}),
	}
}

// Start polls for updates until Stop is called. Each message is handled on its own goroutine.
func (t *TgBot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates, err := t.api.GetUpdatesChan(u)
	if err != nil {
		return fmt.Errorf("getting updates: %w", err)
	}

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			message := update.Message
			t.wg.Go(func() {
				t.handleMessage(context.Background(), message)
			})
		case <-t.stopChan:
			return nil
		}
	}
}

// Stop ends polling and waits for messages in flight.
func (t *TgBot) Stop() {
	close(t.stopChan)
	if t.api != nil {
		t.api.StopReceivingUpdates()
	}
	if r := t.wg.WaitAndRecover(); r != nil {
		t.log.Error("handler panicked", sl.Err(r.AsError()))
	}
}

func (t *TgBot) handleMessage(ctx context.Context, incoming *tgbotapi.Message) {
	if incoming.From == nil || incoming.Chat == nil {
		return
	}
	chat := incoming.Chat
	profile := core.Profile{
		UserId:    int64(incoming.From.ID),
		Username:  incoming.From.UserName,
		FirstName: incoming.From.FirstName,
		LastName:  incoming.From.LastName,
	}

	if incoming.IsCommand() {
		var reply relay.Reply
		switch incoming.Command() {
		case commandStart:
			reply = t.relay.Start(ctx, profile)
		case commandStatus:
			reply = t.relay.Status(ctx, profile.UserId)
		default:
			reply = t.relay.Help()
		}
		t.send(chat.ID, reply)
		return
	}

	text := strings.TrimSpace(incoming.Text)
	if text == "" {
		return
	}
	if !chat.IsPrivate() && !t.isMentioned(text) && !t.isReplyToBot(incoming) {
		return
	}
	if t.botUsername != "" {
		text = strings.TrimSpace(strings.ReplaceAll(text, "@"+t.botUsername, ""))
	}

	stopTyping := make(chan struct{})
	go t.keepTyping(chat.ID, stopTyping)
	reply := t.relay.Handle(ctx, profile, text)
	close(stopTyping)

	t.send(chat.ID, reply)
}

// keepTyping shows the typing action until stop is closed
func (t *TgBot) keepTyping(chatId int64, stop <-chan struct{}) {
	ticker := time.NewTicker(typingInterval)
	defer ticker.Stop()

	for {
		if _, err := t.sender.Send(tgbotapi.NewChatAction(chatId, tgbotapi.ChatTyping)); err != nil {
			t.log.Debug("sending chat action", sl.Err(err))
		}
		select {
		case <-ticker.C:
		case <-stop:
			return
		}
	}
}

func (t *TgBot) send(chatId int64, reply relay.Reply) {
	if _, err := t.sender.Send(chattable(chatId, reply)); err != nil {
		t.log.With(slog.Int64("chat", chatId)).Error("sending reply", sl.Err(err))
	}
}

// chattable turns a reply into exactly one outgoing message
func chattable(chatId int64, reply relay.Reply) tgbotapi.Chattable {
	if reply.Kind == relay.ReplyPhoto {
		photo := tgbotapi.NewPhotoShare(chatId, reply.PhotoURL)
		photo.Caption = reply.Caption
		return photo
	}
	return tgbotapi.NewMessage(chatId, reply.Text)
}

// detect if we are mentioned in the message
func (t *TgBot) isMentioned(text string) bool {
	if t.botUsername != "" {
		return strings.Contains(text, "@"+t.botUsername)
	}
	return false
}

// detect if message is a reply to a message from the bot
func (t *TgBot) isReplyToBot(message *tgbotapi.Message) bool {
	if message.ReplyToMessage != nil && message.ReplyToMessage.From != nil {
		return message.ReplyToMessage.From.UserName == t.botUsername
	}
	return false
}
