package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Vodeneev/footstats/internal/search"
)

// Min interval between any two Telegram messages to the same chat to avoid 429 Too Many Requests (~30/min limit).
const telegramSendInterval = 2 * time.Second

const telegramQueueSize = 100

type messageType int

const (
	messageTypeStreak messageType = iota
	messageTypeTest
)

func (t messageType) String() string {
	switch t {
	case messageTypeStreak:
		return "streak"
	case messageTypeTest:
		return "test"
	}
	return "unknown"
}

type queuedMessage struct {
	msgType     messageType
	result      search.Result
	testMessage string
	queuedAt    time.Time
}

// TelegramNotifier sends streak alerts to one chat through a rate-limited queue.
type TelegramNotifier struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time

	// Async queue for sending messages
	queue     chan queuedMessage
	queueDone chan struct{}
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier connects the bot and starts the sender goroutine.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = false

	// Test bot connection
	if _, err := bot.GetMe(); err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	n := &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		queue:     make(chan queuedMessage, telegramQueueSize),
		queueDone: make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}

	n.wg.Add(1)
	go n.messageSender()

	slog.Info("Telegram notifier initialized", "chat_id", chatID, "bot", bot.Self.UserName)
	return n, nil
}

// QueueLen returns current number of messages in the send queue.
func (n *TelegramNotifier) QueueLen() int {
	if n == nil || n.queue == nil {
		return 0
	}
	return len(n.queue)
}

// messageSender runs in background and sends queued messages with proper intervals
func (n *TelegramNotifier) messageSender() {
	defer n.wg.Done()

	for {
		select {
		case <-n.ctx.Done():
			// Drain remaining messages before exit
			for {
				select {
				case msg := <-n.queue:
					n.sendQueuedMessage(msg)
				default:
					close(n.queueDone)
					return
				}
			}
		case msg := <-n.queue:
			n.sendQueuedMessage(msg)
		}
	}
}

func (n *TelegramNotifier) sendQueuedMessage(msg queuedMessage) {
	var text string
	switch msg.msgType {
	case messageTypeStreak:
		text = formatStreakAlert(msg.result)
	case messageTypeTest:
		text = msg.testMessage
	default:
		slog.Error("Unknown message type", "type", msg.msgType)
		return
	}

	tgMsg := tgbotapi.NewMessage(n.chatID, text)
	tgMsg.ParseMode = tgbotapi.ModeMarkdown

	// Ждём интервал между сообщениями
	n.mu.Lock()
	if elapsed := time.Since(n.lastSend); elapsed < telegramSendInterval {
		wait := telegramSendInterval - elapsed
		n.mu.Unlock()
		select {
		case <-n.ctx.Done():
			// При остановке досылаем очередь без ожидания
		case <-time.After(wait):
		}
		n.mu.Lock()
	}
	n.lastSend = time.Now()
	_, err := n.bot.Send(tgMsg)
	n.mu.Unlock()

	args := []any{
		"type", msg.msgType,
		"queued_for", time.Since(msg.queuedAt),
		"queue_length", len(n.queue),
	}
	if msg.msgType == messageTypeStreak {
		args = append(args, "team", msg.result.Name, "market", msg.result.Market)
	}
	if err != nil {
		slog.Error("Telegram send: failed", append(args, "error", err)...)
		return
	}
	slog.Info("Telegram send: success", args...)
}

func (n *TelegramNotifier) enqueue(ctx context.Context, msg queuedMessage) error {
	if n == nil || n.bot == nil {
		return fmt.Errorf("telegram notifier not initialized")
	}
	msg.queuedAt = time.Now()

	select {
	case <-n.ctx.Done():
		return fmt.Errorf("notifier stopped")
	case <-ctx.Done():
		return ctx.Err()
	case n.queue <- msg:
		return nil
	default:
		// Queue is full, log warning but don't block
		slog.Warn("Telegram message queue is full, dropping message", "type", msg.msgType)
		return fmt.Errorf("message queue is full")
	}
}

// SendStreakAlert queues an alert for one search result (non-blocking).
func (n *TelegramNotifier) SendStreakAlert(ctx context.Context, r search.Result) error {
	return n.enqueue(ctx, queuedMessage{msgType: messageTypeStreak, result: r})
}

// SendTestAlert queues a plain test message (non-blocking).
func (n *TelegramNotifier) SendTestAlert(ctx context.Context, message string) error {
	text := fmt.Sprintf("*Test Alert*\n\n%s\n\n_Time: %s_",
		escapeMarkdown(message), time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	return n.enqueue(ctx, queuedMessage{msgType: messageTypeTest, testMessage: text})
}

// Stop stops the notifier and waits for all queued messages to be sent
func (n *TelegramNotifier) Stop() {
	if n == nil {
		return
	}
	n.cancel()
	<-n.queueDone
	n.wg.Wait()
}

func formatStreakAlert(r search.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s* (%s)\n", escapeMarkdown(r.Name), escapeMarkdown(r.League))
	fmt.Fprintf(&b, "Next: vs %s, %s\n\n", escapeMarkdown(r.Opponent), formatTime(r.NextMatchDate))
	fmt.Fprintf(&b, "Market: %s\n", escapeMarkdown(formatMarket(string(r.Market))))
	fmt.Fprintf(&b, "Probability: %d%%", r.ProbGreen)
	if r.Streak > 0 {
		fmt.Fprintf(&b, " | streak %d (%d%%)", r.Streak, r.ProbBlue)
	}
	b.WriteString("\n")
	if r.FactStreak != nil {
		fmt.Fprintf(&b, "Fact streak: %d\n", *r.FactStreak)
	}
	if nb := r.NextBelow; nb != nil {
		fmt.Fprintf(&b, "Next below line: %d%% (%d/%d)\n", nb.Percent, nb.BelowNext, nb.Triggers)
	}
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

// formatMarket turns OVER_2_5 into "Over 2.5" and DC_1X into "Dc 1X".
func formatMarket(m string) string {
	parts := strings.Split(m, "_")
	for i, part := range parts {
		if len(part) > 1 && part[0] >= 'A' && part[0] <= 'Z' && part[1] >= 'A' && part[1] <= 'Z' {
			parts[i] = part[:1] + strings.ToLower(part[1:])
		}
	}
	out := strings.Join(parts, " ")
	for _, d := range []string{"0", "1", "2", "3", "4", "5"} {
		out = strings.ReplaceAll(out, " "+d+" 5", " "+d+".5")
	}
	return out
}

// escapeMarkdown escapes the characters legacy Markdown mode treats as markup.
func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return replacer.Replace(text)
}
