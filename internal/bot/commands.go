package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/rbtx/arena/internal/ident"
	"github.com/rbtx/arena/internal/models"
)

const (
	visitorHelp = `Available commands:
/live - Who is performing right now
/standings <competition> - Current standings
/news - Latest announcements
/help - Show this message`

	adminHelp = `Available commands:
/live - Who is performing right now
/standings <competition> - Current standings
/news - Latest announcements
/announce <title> | <body> - Publish an announcement
/help - Show this message

Examples:
/standings line_follower
/standings 3
/announce Lunch break | Arena reopens at 14:00`
)

type commandHandler func(*tgbotapi.Message) error

func (b *Bot) routeVisitorCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"start":     b.handleStart,
		"live":      b.handleLive,
		"standings": b.handleStandings,
		"news":      b.handleNews,
		"help":      b.handleHelp,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) routeAdminCommands(cmd string) (commandHandler, bool) {
	commands := map[string]commandHandler{
		"announce": b.handleAnnounce,
	}
	handler, found := commands[cmd]
	return handler, found
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.sendHelp(msg.Chat.ID)
		return
	}

	cmd := msg.Command()

	if handler, ok := b.routeVisitorCommands(cmd); ok {
		if err := handler(msg); err != nil {
			logger.Error.Printf("Command error: %v", err)
			b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
		}
		return
	}

	if b.admins[msg.From.ID] {
		if handler, ok := b.routeAdminCommands(cmd); ok {
			if err := handler(msg); err != nil {
				logger.Error.Printf("Command error: %v", err)
				b.sendMessage(msg.Chat.ID, fmt.Sprintf("Error: %v", err))
			}
		}
		return
	}

	b.sendHelp(msg.Chat.ID)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	var text string
	if b.admins[msg.From.ID] {
		text = adminHelp
	} else {
		text = visitorHelp
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) sendHelp(chatID int64) error {
	return b.sendMessage(chatID, "Send /help for the list of commands.")
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	text := "Hi! I answer questions about the tournament.\n\n"
	if b.admins[msg.From.ID] {
		text += "You are a tournament admin. Send /help for the list of commands."
	} else {
		text += "Try /live to see who is on the track right now."
	}

	return b.sendMessage(msg.Chat.ID, text)
}

func (b *Bot) handleLive(msg *tgbotapi.Message) error {
	sessions, err := b.store.ListLiveSessions()
	if err != nil {
		return fmt.Errorf("failed to fetch live sessions: %v", err)
	}

	if len(sessions) == 0 {
		return b.sendMessage(msg.Chat.ID, "Nothing is running right now")
	}

	var out strings.Builder
	out.WriteString("On the track right now:\n\n")
	for _, session := range sessions {
		name := session.Competition
		if category, ok := ident.Lookup(session.Competition); ok {
			name = category.Name
		}

		team := session.TeamID
		if t, err := b.store.GetTeam(session.TeamID); err == nil && t != nil {
			team = t.Name
		}

		out.WriteString(fmt.Sprintf("🤖 %s: %s", name, team))
		if session.Phase != "" {
			out.WriteString(fmt.Sprintf(" (%s)", session.Phase))
		}
		out.WriteString("\n")
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleStandings(msg *tgbotapi.Message) error {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		return fmt.Errorf("name a competition: /standings line_follower")
	}

	remote, err := b.store.ListCompetitions()
	if err != nil {
		logger.Debug.Printf("Failed to fetch remote competitions, resolving locally: %v", err)
		remote = nil
	}
	competition := ident.Canonicalize(ref, remote)

	rows, err := b.store.FetchStandings(competition)
	if err != nil {
		return fmt.Errorf("failed to fetch standings: %v", err)
	}

	if len(rows) == 0 {
		return b.sendMessage(msg.Chat.ID, fmt.Sprintf("No finalized scores for %s yet", competition))
	}

	var out strings.Builder
	out.WriteString(fmt.Sprintf("Standings for %s:\n\n", competition))
	for i, row := range rows {
		name := row.TeamName
		if name == "" {
			name = row.TeamID
		}
		out.WriteString(fmt.Sprintf("%d. %s — %d pts", i+1, name, row.BestPoints))
		if row.Club != "" {
			out.WriteString(fmt.Sprintf(" (%s)", row.Club))
		}
		out.WriteString("\n")
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

func (b *Bot) handleNews(msg *tgbotapi.Message) error {
	items, err := b.store.ListAnnouncements(5)
	if err != nil {
		return fmt.Errorf("failed to fetch announcements: %v", err)
	}

	if len(items) == 0 {
		return b.sendMessage(msg.Chat.ID, "No announcements yet")
	}

	var out strings.Builder
	for _, item := range items {
		out.WriteString(fmt.Sprintf("📣 %s\n%s\n\n", item.Title, item.Body))
	}

	return b.sendMessage(msg.Chat.ID, out.String())
}

// handleAnnounce stores the announcement; venue screens pick it up on the
// next periodic refresh since the bot does not hold a realtime publisher.
func (b *Bot) handleAnnounce(msg *tgbotapi.Message) error {
	parts := strings.SplitN(msg.CommandArguments(), "|", 2)
	title := strings.TrimSpace(parts[0])
	if title == "" {
		return fmt.Errorf("usage: /announce <title> | <body>")
	}

	body := ""
	if len(parts) == 2 {
		body = strings.TrimSpace(parts[1])
	}

	if err := b.store.CreateAnnouncement(&models.Announcement{Title: title, Body: body}); err != nil {
		return fmt.Errorf("failed to save announcement: %v", err)
	}

	return b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ Announcement published: %s", title))
}

func (b *Bot) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := b.api.Send(msg)
	return err
}
