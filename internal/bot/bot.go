package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/athenahq/scheduling-assistant/internal/agent"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// mailboxBuffer bounds how many unprocessed messages a single chat can
// queue before the update loop blocks on it.
const mailboxBuffer = 16

type Bot struct {
	api            *tgbotapi.BotAPI
	agent          *agent.Agent
	location       *time.Location
	requestTimeout time.Duration
	logger         *zap.Logger

	mu        sync.Mutex
	mailboxes map[int64]chan *tgbotapi.Message
}

func New(token string, a *agent.Agent, location *time.Location, requestTimeout time.Duration, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if location == nil {
		location = time.UTC
	}

	return &Bot{
		api:            api,
		agent:          a,
		location:       location,
		requestTimeout: requestTimeout,
		logger:         logger,
		mailboxes:      make(map[int64]chan *tgbotapi.Message),
	}, nil
}

// Start consumes updates until the channel closes. Messages from the
// same chat are processed in arrival order; different chats run in
// parallel on their own workers.
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		b.mailbox(update.Message.Chat.ID) <- update.Message
	}

	return nil
}

// mailbox returns the chat's message channel, starting its worker on
// first use.
func (b *Bot) mailbox(chatID int64) chan *tgbotapi.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	box, ok := b.mailboxes[chatID]
	if !ok {
		box = make(chan *tgbotapi.Message, mailboxBuffer)
		b.mailboxes[chatID] = box
		go b.worker(box)
	}
	return box
}

func (b *Bot) worker(box chan *tgbotapi.Message) {
	for message := range box {
		b.handleMessage(message)
	}
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	text := message.Text
	if message.Caption != "" {
		text = message.Caption
	}
	if text == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.requestTimeout)
	defer cancel()

	reply := b.agent.ProcessMessage(ctx, message.Chat.ID, text, time.Now(), b.location)

	b.logger.Debug("Processed message",
		zap.Int64("chat_id", message.Chat.ID),
		zap.String("intent", string(reply.Intent)),
		zap.Int("tool_results", len(reply.ToolResults)))

	b.sendMessage(message.Chat.ID, reply.Response)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Hi! I'm Athena, your scheduling assistant. 🗓

I can check when you're free, find open slots, book meetings, and answer questions about your calendar.

Try something like "am I free tomorrow afternoon?" or "schedule a sync with the team next Tuesday at 10am".
Use /help to see more examples.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the assistant
/help - Show this help message

Things you can ask me:
- "Am I available tomorrow at 2pm?"
- "Find a 45 minute slot next week"
- "Schedule a design review on Friday at 10am"
- "What's on my calendar this week?"
- "What time is it?"

I'll ask a follow-up question when I need more details.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
