package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"chatbuysell/internal/domain/entity"
	"chatbuysell/internal/usecase"
)

const roomPaneWidth = 30

var pricePrinter = message.NewPrinter(language.English)

func (model Model) View() string {
	switch model.state.Screen {
	case usecase.ScreenEntry:
		return model.renderEntry()
	case usecase.ScreenChat:
		return model.renderChat()
	default:
		return "Loading..."
	}
}

func (model Model) renderEntry() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground).
		Render("Chat Buy & Sell")
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	lines := []string{
		title,
		"",
		"Post what you want to buy or sell and chat with your best matches.",
		"",
		"Press Enter to sign in with Facebook.",
	}
	if model.loginURL != "" {
		lines = append(lines, "", faint.Render("Sign-in page: "+model.loginURL))
	}
	if model.status != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(model.theme.NoticeError).Render(model.status))
	}

	body := lipgloss.Place(model.width, max(model.height-3, 1),
		lipgloss.Center, lipgloss.Center,
		strings.Join(lines, "\n"))

	return strings.Join([]string{
		body,
		model.renderNotices(),
		model.renderHelp(model.keys.Login, model.keys.Dismiss, model.keys.Quit),
	}, "\n")
}

func (model Model) renderChat() string {
	var sections []string
	sections = append(sections, model.renderHeader())

	var right string
	if model.state.Overlay == usecase.OverlayMatchResults {
		right = model.renderResults()
	} else {
		right = model.renderConversation()
	}
	divider := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("│\n", max(model.contentHeight()-1, 0)) + "│")
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, model.renderRooms(), divider, right))

	sections = append(sections, lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", max(model.width, 1))))

	if line := model.renderPrompt(); line != "" {
		sections = append(sections, line)
	}
	if notices := model.renderNotices(); notices != "" {
		sections = append(sections, notices)
	}
	if model.status != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(model.theme.NoticeError).Render(model.status))
	}
	sections = append(sections, model.renderHelp(model.chatBindings()...))
	return strings.Join(sections, "\n")
}

func (model Model) contentHeight() int {
	return max(model.height-6, 3)
}

func (model Model) renderHeader() string {
	name := model.state.Identity.DisplayName()
	role := ""
	if model.state.Identity != nil && model.state.Identity.Type != "" {
		role = " (" + string(model.state.Identity.Type) + ")"
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground).
		Render("Chat Buy & Sell · " + name + role)
}

func (model Model) renderRooms() string {
	style := lipgloss.NewStyle().Width(roomPaneWidth)
	selected := style.
		Background(model.theme.SelectedBackground).
		Foreground(model.theme.SelectedForeground)
	faint := style.Foreground(model.theme.FaintText)

	var rows []string
	if len(model.state.Rooms) == 0 {
		rows = append(rows, faint.Render("No chats yet. Press p to post."))
	}
	activeID := ""
	if model.state.ActiveRoom != nil {
		activeID = model.state.ActiveRoom.ID
	}
	for i, room := range model.state.Rooms {
		marker := "  "
		switch room.ID {
		case model.state.ActivatingID:
			marker = "… "
		case activeID:
			marker = "● "
		}
		row := truncate(marker+room.DisplayTitle(), roomPaneWidth)
		if i == model.roomCursor && model.focus == FocusRooms {
			rows = append(rows, selected.Render(row))
		} else {
			rows = append(rows, style.Render(row))
		}
	}
	return lipgloss.NewStyle().Height(model.contentHeight()).Render(strings.Join(rows, "\n"))
}

func (model Model) renderConversation() string {
	width := max(model.width-roomPaneWidth-2, 20)
	pane := lipgloss.NewStyle().Width(width).Height(model.contentHeight()).PaddingLeft(1)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	if model.state.ActiveRoom == nil {
		return pane.Render(faint.Render("Select a chat on the left, or press / to find a match."))
	}

	lines := []string{lipgloss.NewStyle().Bold(true).Render(model.state.ActiveRoom.DisplayTitle())}
	if detail := model.state.ActiveDetail; detail != nil && detail.Post != nil {
		lines = append(lines, faint.Render(postSummary(*detail.Post)))
	}
	lines = append(lines, "")

	other := counterpartyName(model.state.ActiveDetail, model.state.Identity)
	rows := model.state.Messages
	// keep the newest messages on screen
	if limit := model.contentHeight() - len(lines); limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	for _, row := range rows {
		lines = append(lines, model.renderMessage(row, other))
	}
	if len(model.state.Messages) == 0 {
		lines = append(lines, faint.Render("No messages yet. Say hello!"))
	}
	return pane.Render(strings.Join(lines, "\n"))
}

func (model Model) renderMessage(row usecase.MessageRow, other string) string {
	sender := other
	color := model.theme.TheirsForeground
	if row.Mine {
		sender = "You"
		color = model.theme.MineForeground
	}
	text := lipgloss.NewStyle().Foreground(color).Render(sender+": ") + row.Content

	switch row.Status {
	case entity.MessagePending:
		text += lipgloss.NewStyle().Foreground(model.theme.PendingText).Render("  sending…")
	case entity.MessageFailed:
		text += lipgloss.NewStyle().Foreground(model.theme.FailedText).Render("  failed, press r to retry")
	}
	return text
}

func (model Model) renderResults() string {
	width := max(model.width-roomPaneWidth-2, 20)
	pane := lipgloss.NewStyle().Width(width).Height(model.contentHeight()).PaddingLeft(1)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	header := fmt.Sprintf("Matches for %q", model.state.Query)
	if model.state.TotalMatches > 0 {
		header += fmt.Sprintf(" (%d)", model.state.TotalMatches)
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render(header), ""}

	switch {
	case model.state.MatchState == usecase.MatchSearching:
		lines = append(lines, faint.Render("Searching…"))
	case len(model.state.Candidates) == 0:
		lines = append(lines, faint.Render("No matching results found"))
	}

	selected := lipgloss.NewStyle().
		Background(model.theme.SelectedBackground).
		Foreground(model.theme.SelectedForeground)
	for i, candidate := range model.state.Candidates {
		title := fmt.Sprintf("%s %s  %s",
			model.renderBadge(candidate.Post.Type),
			candidateName(candidate),
			faint.Render(fmt.Sprintf("%d%% match", scorePercent(candidate.Score))))
		if i == model.resultCursor {
			title = selected.Render("›") + " " + title
		} else {
			title = "  " + title
		}
		lines = append(lines, title, "    "+candidate.Post.Content)
		if summary := postSummary(candidate.Post); summary != "" {
			lines = append(lines, "    "+faint.Render(summary))
		}
		if model.state.Busy[candidate.Post.ID] {
			lines = append(lines, "    "+faint.Render("Creating chat..."))
		}
		lines = append(lines, "")
	}
	return pane.Render(strings.Join(lines, "\n"))
}

func (model Model) renderBadge(postType entity.PostType) string {
	label := "Buying"
	color := model.theme.BuyBadge
	if postType == entity.PostWantToSell {
		label = "Selling"
		color = model.theme.SellBadge
	}
	return lipgloss.NewStyle().Foreground(color).Render("[" + label + "]")
}

func (model Model) renderPrompt() string {
	switch model.focus {
	case FocusInput:
		return "> " + string(model.input) + "▏"
	case FocusComposer:
		return model.renderBadge(model.postType) + " " + string(model.composer) + "▏"
	case FocusSearch:
		return "Search: " + string(model.composer) + "▏"
	}
	return ""
}

func (model Model) renderNotices() string {
	var lines []string
	for _, notice := range model.state.Notices {
		color := model.theme.NoticeInfo
		if notice.Level == usecase.NoticeError {
			color = model.theme.NoticeError
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render("• "+notice.Message))
	}
	return strings.Join(lines, "\n")
}

func (model Model) chatBindings() []key.Binding {
	if model.state.Overlay == usecase.OverlayMatchResults {
		return []key.Binding{model.keys.Up, model.keys.Down, model.keys.Select, model.keys.Back}
	}
	switch model.focus {
	case FocusInput:
		return []key.Binding{model.keys.Select, model.keys.Back}
	case FocusComposer:
		return []key.Binding{model.keys.Select, model.keys.TogglePost, model.keys.Back}
	case FocusSearch:
		return []key.Binding{model.keys.Select, model.keys.Back}
	}
	return []key.Binding{
		model.keys.Select, model.keys.Focus, model.keys.NewPost, model.keys.Search,
		model.keys.Retry, model.keys.Reload, model.keys.Logout, model.keys.Quit,
	}
}

func (model Model) renderHelp(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		if help.Key == "" {
			continue
		}
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return lipgloss.NewStyle().Foreground(model.theme.HelpText).Render(strings.Join(parts, " · "))
}

func postSummary(post entity.Post) string {
	var parts []string
	if post.Category != "" {
		parts = append(parts, post.Category)
	}
	if post.Location != "" {
		parts = append(parts, "📍 "+post.Location)
	}
	if post.Price > 0 {
		parts = append(parts, "💰 "+formatPrice(post.Price))
	}
	return strings.Join(parts, "  ")
}

func formatPrice(price int64) string {
	return pricePrinter.Sprintf("%d VND", price)
}

func scorePercent(score float64) int {
	return int(math.Round(score * 100))
}

func candidateName(candidate entity.MatchCandidate) string {
	if candidate.User.Username != "" {
		return candidate.User.Username
	}
	return "User"
}

func counterpartyName(detail *entity.RoomDetail, identity *entity.Identity) string {
	if detail == nil {
		return "Them"
	}
	for _, party := range []*entity.Counterparty{detail.Buyer, detail.Seller} {
		if party == nil || party.Username == "" {
			continue
		}
		if identity != nil && party.ID == identity.ID {
			continue
		}
		return party.Username
	}
	return "Them"
}

func truncate(text string, width int) string {
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}
