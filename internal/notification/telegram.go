package notification

import (
	"context"
	"fmt"
	"strings"

	"ci-integration-agent/internal/model"
)

// MessageSender is the slice of telegram.Bot used here.
type MessageSender interface {
	SendMessageWithMode(ctx context.Context, chatID int64, text string, parseMode string) error
}

// Telegram posts a Markdown summary of each analysis to one chat.
type Telegram struct {
	bot    MessageSender
	chatID int64
}

func NewTelegram(bot MessageSender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(ctx context.Context, a model.FailureAnalysis) error {
	if err := t.bot.SendMessageWithMode(ctx, t.chatID, FormatMarkdown(a), "Markdown"); err != nil {
		return fmt.Errorf("telegram notify: %w", err)
	}
	return nil
}

// FormatMarkdown renders an analysis for Telegram's legacy Markdown mode.
func FormatMarkdown(a model.FailureAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*Build failure* in `%s`\n", escape(a.ProjectSlug))
	if a.WorkflowID != "" {
		fmt.Fprintf(&b, "Workflow: `%s`\n", escape(a.WorkflowID))
	}
	if a.JobID != "" {
		fmt.Fprintf(&b, "Job: `%s`\n", escape(a.JobID))
	}
	if branch := a.Context["branch"]; branch != "" {
		fmt.Fprintf(&b, "Branch: `%s`\n", escape(branch))
	}
	fmt.Fprintf(&b, "Type: *%s* (confidence %.0f%%)\n", escape(string(a.FailureType)), a.Confidence*100)

	if len(a.ErrorMessages) > 0 {
		b.WriteString("\n*Errors*\n")
		for _, m := range a.ErrorMessages {
			fmt.Fprintf(&b, "• %s\n", escape(m))
		}
	}
	if len(a.SuggestedFixes) > 0 {
		b.WriteString("\n*Suggested fixes*\n")
		for _, f := range a.SuggestedFixes {
			fmt.Fprintf(&b, "• %s\n", escape(f))
		}
	}
	if url := a.Context["job_url"]; url != "" {
		fmt.Fprintf(&b, "\n[Open job](%s)", url)
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
