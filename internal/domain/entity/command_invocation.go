package entity

import "time"

// CommandKind enumerates the Telegram bot's fixed command surface.
type CommandKind string

const (
	CommandRun     CommandKind = "run"
	CommandStatus  CommandKind = "status"
	CommandHelp    CommandKind = "help"
	CommandHistory CommandKind = "history"
)

// Permission names the capabilities a user may hold; CommandKind values
// double as permission names except for "history", which piggybacks on
// the "status" permission (see SPEC_FULL.md supplemented features).
type Permission string

const (
	PermissionRun    Permission = "run"
	PermissionStatus Permission = "status"
	PermissionHelp   Permission = "help"
)

// CommandInvocation records one inbound Telegram command for authorization,
// rate limiting, and dispatch.
type CommandInvocation struct {
	UserID     string
	Username   string
	ChatID     int64
	Command    CommandKind
	Args       string
	ReceivedAt time.Time
}
