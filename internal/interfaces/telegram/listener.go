// Package telegram implements the Telegram-facing interfaces: report
// delivery (C7) and the command listener (C8).
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/newsbot/cryptonews/internal/domain/entity"
	"github.com/newsbot/cryptonews/internal/domain/service"
	"github.com/newsbot/cryptonews/internal/infrastructure/config"
	"github.com/newsbot/cryptonews/pkg/safego"
)

// authEntry is one row of the authorized_users config table.
type authEntry struct {
	username    string
	permissions map[entity.Permission]bool
}

// userLimiter pairs a token-bucket limiter with the last accepted /run
// invocation time, so a per-user cooldown can be enforced alongside the
// hourly cap.
type userLimiter struct {
	limiter     *rate.Limiter
	lastRunAt   time.Time
}

// Listener implements TelegramCommandListener (C8): long-polls updates,
// authorizes, rate-limits, and dispatches /run, /status, /help, /history.
type Listener struct {
	bot        *tgbotapi.BotAPI
	controller service.ExecutionController
	repo       service.Repository
	logger     *zap.Logger

	authorized      map[string]authEntry
	cooldown        time.Duration
	maxPerHour      int

	mu       sync.Mutex
	limiters map[string]*userLimiter

	stop chan struct{}
	done chan struct{}
}

// NewListener constructs a Listener from the telegram_commands config.
func NewListener(bot *tgbotapi.BotAPI, controller service.ExecutionController, repo service.Repository, cfg config.TelegramCommandsConfig, logger *zap.Logger) *Listener {
	authorized := make(map[string]authEntry, len(cfg.AuthorizedUsers))
	for _, u := range cfg.AuthorizedUsers {
		perms := make(map[entity.Permission]bool, len(u.Permissions))
		for _, p := range u.Permissions {
			perms[entity.Permission(p)] = true
		}
		authorized[u.UserID] = authEntry{username: u.Username, permissions: perms}
	}

	return &Listener{
		bot:        bot,
		controller: controller,
		repo:       repo,
		logger:     logger.With(zap.String("component", "telegram_command_listener")),
		authorized: authorized,
		cooldown:   time.Duration(cfg.CommandRateLimit.CooldownMinutes) * time.Minute,
		maxPerHour: cfg.CommandRateLimit.MaxCommandsPerHour,
		limiters:   make(map[string]*userLimiter),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins long-polling for updates in a background goroutine.
func (l *Listener) Start() {
	safego.Go(l.logger, "telegram-command-listener-poll", l.poll)
}

// Stop signals the poll loop to stop, waits for in-flight replies to
// drain, then returns.
func (l *Listener) Stop() {
	close(l.stop)
	<-l.done
}

func (l *Listener) poll() {
	defer close(l.done)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := l.bot.GetUpdatesChan(u)

	for {
		select {
		case <-l.stop:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			l.handle(update.Message)
		}
	}
}

func (l *Listener) handle(msg *tgbotapi.Message) {
	invocation := entity.CommandInvocation{
		UserID:     strconv.FormatInt(msg.From.ID, 10),
		Username:   msg.From.UserName,
		ChatID:     msg.Chat.ID,
		Command:    entity.CommandKind(msg.Command()),
		Args:       msg.CommandArguments(),
		ReceivedAt: time.Now().UTC(),
	}

	entry, authorized := l.authorized[invocation.UserID]
	if !authorized {
		l.reply(invocation.ChatID, "unauthorized")
		return
	}

	switch invocation.Command {
	case entity.CommandRun:
		l.handleRun(invocation, entry)
	case entity.CommandStatus:
		l.handleStatus(invocation, entry)
	case entity.CommandHistory:
		l.handleHistory(invocation, entry)
	case entity.CommandHelp:
		l.handleHelp(invocation, entry)
	default:
		l.reply(invocation.ChatID, "unknown command")
	}
}

func (l *Listener) handleRun(inv entity.CommandInvocation, entry authEntry) {
	if !entry.permissions[entity.PermissionRun] {
		l.reply(inv.ChatID, "unauthorized")
		return
	}
	if wait, limited := l.checkRateLimit(inv.UserID); limited {
		l.reply(inv.ChatID, fmt.Sprintf("rejected: rate_limited, cooldown %ds", int(wait.Seconds())))
		return
	}

	outcome := l.controller.Trigger(entity.TriggerCommand)
	if outcome.Busy {
		l.reply(inv.ChatID, "rejected: busy")
		return
	}
	l.recordRun(inv.UserID)
	l.reply(inv.ChatID, "accepted")
}

func (l *Listener) handleStatus(inv entity.CommandInvocation, entry authEntry) {
	if !entry.permissions[entity.PermissionStatus] {
		l.reply(inv.ChatID, "unauthorized")
		return
	}
	run := l.controller.Status()
	if run.RunID == "" {
		l.reply(inv.ChatID, "idle, no run yet")
		return
	}
	elapsed := time.Since(run.StartedAt).Round(time.Second)
	l.reply(inv.ChatID, fmt.Sprintf("state=%s run_id=%s elapsed=%s fetched=%d analyzed=%d delivered=%d",
		run.State, run.RunID, elapsed, run.Counts.Fetched, run.Counts.Analyzed, run.Counts.Delivered))
}

func (l *Listener) handleHistory(inv entity.CommandInvocation, entry authEntry) {
	if !entry.permissions[entity.PermissionStatus] {
		l.reply(inv.ChatID, "unauthorized")
		return
	}
	const defaultHistoryLimit = 5
	runs, err := l.repo.ListRecentRuns(context.Background(), defaultHistoryLimit)
	if err != nil {
		l.logger.Error("list recent runs failed", zap.Error(err))
		l.reply(inv.ChatID, "failed to load history")
		return
	}
	if len(runs) == 0 {
		l.reply(inv.ChatID, "no runs yet")
		return
	}

	var b strings.Builder
	for _, run := range runs {
		fmt.Fprintf(&b, "%s | %s | analyzed=%d delivered=%d\n", run.RunID, run.State, run.Counts.Analyzed, run.Counts.Delivered)
	}
	l.reply(inv.ChatID, b.String())
}

func (l *Listener) handleHelp(inv entity.CommandInvocation, entry authEntry) {
	var commands []string
	if entry.permissions[entity.PermissionRun] {
		commands = append(commands, "/run")
	}
	if entry.permissions[entity.PermissionStatus] {
		commands = append(commands, "/status", "/history")
	}
	commands = append(commands, "/help")
	l.reply(inv.ChatID, "available commands: "+strings.Join(commands, " "))
}

// checkRateLimit enforces both the hourly token bucket and the explicit
// cooldown between two accepted /run invocations.
func (l *Listener) checkRateLimit(userID string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ul, ok := l.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(rate.Limit(float64(l.maxPerHour)/3600.0), l.maxPerHour)}
		l.limiters[userID] = ul
	}

	if !ul.lastRunAt.IsZero() {
		if wait := l.cooldown - time.Since(ul.lastRunAt); wait > 0 {
			return wait, true
		}
	}
	if !ul.limiter.Allow() {
		return time.Minute, true
	}
	return 0, false
}

func (l *Listener) recordRun(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ul, ok := l.limiters[userID]; ok {
		ul.lastRunAt = time.Now()
	}
}

func (l *Listener) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := l.bot.Send(msg); err != nil {
		l.logger.Warn("failed to send command reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
