package app

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/healthguard/healthguard"
)

const chatHistoryLimit = 100

type chatPanel struct {
	ui *uiState

	input      *widget.Entry
	transcript *widget.RichText
	askBtn     *widget.Button

	mu      sync.Mutex
	history []string
}

func newChatPanel(u *uiState) *chatPanel {
	c := &chatPanel{ui: u}
	c.input = widget.NewEntry()
	c.input.SetPlaceHolder("Type your health question here...")
	c.input.OnSubmitted = func(string) { c.onAsk() }
	c.askBtn = widget.NewButtonWithIcon("Ask", theme.MailSendIcon(), func() { c.onAsk() })
	c.transcript = widget.NewRichTextFromMarkdown("Ask me anything about health concerns or disease prevention!")
	c.transcript.Wrapping = fyne.TextWrapWord
	return c
}

func (c *chatPanel) content() fyne.CanvasObject {
	bar := container.NewBorder(nil, nil, nil, c.askBtn, c.input)
	return container.NewBorder(nil, bar, nil, nil, container.NewVScroll(c.transcript))
}

func (c *chatPanel) onAsk() {
	query := strings.TrimSpace(c.input.Text)
	if query == "" {
		return
	}
	c.input.SetText("")
	c.askBtn.Disable()
	go func() {
		ans := c.ui.service.Ask(context.Background(), query)
		if _, err := c.ui.service.KnowledgeBaseStatus(); err != nil {
			c.ui.setStatus("Failed to load the knowledge base. Please check the file path and format.")
		}
		md := c.record(query, ans.Text)
		fyne.Do(func() {
			c.transcript.ParseMarkdown(md)
			c.askBtn.Enable()
		})
	}()
}

// record appends one exchange and returns the transcript as Markdown. The query is
// user text and is escaped; answers come from the knowledge base and keep their markup.
func (c *chatPanel) record(query, answer string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, fmt.Sprintf("**You:** %s\n\n**Assistant:** %s", healthguard.EscapeMarkdown(query), answer))
	if len(c.history) > chatHistoryLimit {
		c.history = c.history[len(c.history)-chatHistoryLimit:]
	}
	return strings.Join(c.history, "\n\n---\n\n")
}
