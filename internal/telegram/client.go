// Package telegram provides a client for sending risk alerts via Telegram Bot API.
// It formats an analysis into a short MarkdownV2 message and handles delivery
// with retry logic for reliability.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/tokenguard/internal/logger"
	"github.com/rewired-gh/tokenguard/internal/models"
)

// maxFactorLines caps the factor list in one alert.
const maxFactorLines = 8

// sender is the part of tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendAlert sends an alert for the analysis when its risk level is at least
// minLevel. It reports whether a message was sent.
func (c *Client) SendAlert(a *models.Analysis, minLevel models.RiskLevel) (bool, error) {
	if a.Risk.Level.Rank() < minLevel.Rank() {
		logger.Debug("SendAlert: %s is %s, below %s, not alerting", a.TokenAddress, a.Risk.Level, minLevel)
		return false, nil
	}

	// Create message
	msg := tgbotapi.NewMessage(c.chatID, formatMessage(a))
	msg.ParseMode = "MarkdownV2" // Use MarkdownV2 for better escaping support
	msg.DisableWebPagePreview = true

	// Send with retry
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			logger.Info("Sent %s alert for %s", a.Risk.Level, a.TokenAddress)
			return true, nil
		}
		lastErr = err
		logger.Warn("Telegram send failed (attempt %d/%d): %v", i+1, c.maxRetries, err)
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return false, fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatMessage formats an analysis into a Telegram message
func formatMessage(a *models.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s *Token Risk Alert: %s*\n\n", levelEmoji(a.Risk.Level), escapeMarkdownV2(string(a.Risk.Level)))

	name := a.Token.Name
	if a.Token.Symbol != "" {
		name = fmt.Sprintf("%s (%s)", a.Token.Name, a.Token.Symbol)
	}
	if strings.TrimSpace(name) != "" {
		fmt.Fprintf(&b, "🪙 %s\n", escapeMarkdownV2(name))
	}
	fmt.Fprintf(&b, "`%s`\n", escapeCode(a.TokenAddress))
	fmt.Fprintf(&b, "📊 Score: *%d/100*\n\n", a.Risk.TotalScore)

	if len(a.Risk.Factors) > 0 {
		b.WriteString("*Factors*\n")
		for i, f := range a.Risk.Factors {
			if i == maxFactorLines {
				fmt.Fprintf(&b, "• %s\n", escapeMarkdownV2(fmt.Sprintf("… and %d more", len(a.Risk.Factors)-i)))
				break
			}
			fmt.Fprintf(&b, "• %s %s\n",
				escapeMarkdownV2(f.Description), escapeMarkdownV2(fmt.Sprintf("(+%d)", f.Points)))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "👥 Wallets: %d, bots %s of txs\n",
		a.Traders.TotalWallets, escapeMarkdownV2(fmt.Sprintf("%.1f%%", a.Traders.BotPercentage)))
	fmt.Fprintf(&b, "📦 Bundles: %d \\(%d suspicious\\), %s of wallets bundled\n",
		a.Bundles.TotalBundles, a.Bundles.SuspiciousBundles,
		escapeMarkdownV2(fmt.Sprintf("%.1f%%", a.Bundles.BundledPercentage)))
	fmt.Fprintf(&b, "📅 %s", escapeMarkdownV2(a.AnalyzedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	return b.String()
}

func levelEmoji(l models.RiskLevel) string {
	switch l {
	case models.RiskCritical:
		return "🚨"
	case models.RiskHigh:
		return "⚠️"
	case models.RiskMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . ! \
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// escapeCode escapes text placed inside a `code` entity, where only ` and \
// are special.
func escapeCode(text string) string {
	return strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(text)
}
