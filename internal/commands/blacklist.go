// Package commands applies operator edits sent as chat messages.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/jobwatch/internal/ledger"
	"github.com/MrSnakeDoc/jobwatch/internal/logger"
)

type Action int

const (
	ActionNone Action = iota
	ActionBlacklist
	ActionUnblacklist
)

// Parse splits a message into an action and its arguments. The first line
// names the command ("!blacklist", "/blacklist", "!unblacklist",
// "/unblacklist"); every following non-blank line is one company.
func Parse(text string) (Action, []string) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 {
		return ActionNone, nil
	}

	head := strings.ToLower(strings.TrimSpace(lines[0]))
	// Telegram appends the bot name in groups: /blacklist@jobwatch_bot
	if i := strings.IndexByte(head, '@'); i > 0 {
		head = head[:i]
	}

	var action Action
	switch head {
	case "!blacklist", "/blacklist":
		action = ActionBlacklist
	case "!unblacklist", "/unblacklist":
		action = ActionUnblacklist
	default:
		return ActionNone, nil
	}

	var args []string
	for _, l := range lines[1:] {
		if l = strings.TrimSpace(l); l != "" {
			args = append(args, l)
		}
	}
	return action, args
}

// Blacklist edits the ledger blacklist through a Store.
type Blacklist struct {
	store ledger.Store
	log   logger.Logger
}

func NewBlacklist(store ledger.Store, log logger.Logger) *Blacklist {
	return &Blacklist{store: store, log: log}
}

// Add blacklists companies and returns the ones that were not already listed.
func (b *Blacklist) Add(ctx context.Context, companies []string) ([]string, error) {
	var added []string
	_, err := b.store.Update(ctx, func(s *ledger.State) error {
		added = s.AddBlacklisted(companies...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update blacklist: %w", err)
	}
	if len(added) > 0 {
		b.log.Info("companies blacklisted", logger.Strings("companies", added))
	}
	return added, nil
}

// Remove un-blacklists companies and returns the ones that were listed.
func (b *Blacklist) Remove(ctx context.Context, companies []string) ([]string, error) {
	var removed []string
	_, err := b.store.Update(ctx, func(s *ledger.State) error {
		removed = s.RemoveBlacklisted(companies...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update blacklist: %w", err)
	}
	if len(removed) > 0 {
		b.log.Info("companies removed from blacklist", logger.Strings("companies", removed))
	}
	return removed, nil
}

// List returns the current blacklist.
func (b *Blacklist) List(ctx context.Context) ([]string, error) {
	st, err := b.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return st.Blacklist, nil
}

// Handle runs a chat command and returns the confirmation to send back.
// Messages that are not commands return "".
func (b *Blacklist) Handle(ctx context.Context, _ int64, text string) string {
	action, companies := Parse(text)

	switch action {
	case ActionBlacklist:
		added, err := b.Add(ctx, companies)
		if err != nil {
			b.log.Error("blacklist command failed", logger.Error(err))
			return "❌ Could not update the blacklist: " + err.Error()
		}
		return AddedReply(added)

	case ActionUnblacklist:
		removed, err := b.Remove(ctx, companies)
		if err != nil {
			b.log.Error("unblacklist command failed", logger.Error(err))
			return "❌ Could not update the blacklist: " + err.Error()
		}
		return RemovedReply(removed)
	}

	return ""
}

func AddedReply(added []string) string {
	if len(added) == 0 {
		return "No companies were added to the blacklist."
	}
	return fmt.Sprintf("Added %s to the blacklist!", strings.Join(added, ", "))
}

func RemovedReply(removed []string) string {
	if len(removed) == 0 {
		return "No companies were removed from the blacklist."
	}
	return fmt.Sprintf("Removed %s from the blacklist!", strings.Join(removed, ", "))
}
