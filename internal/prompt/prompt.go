// Package prompt renders the system context sent to the completion backend.
// The chat template can be overridden by a file on disk and hot-reloaded.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"tradechat/internal/types"
)

// SystemData is everything the chat system template can reference.
type SystemData struct {
	CurrentDate  string
	FocusSession *types.TradingSession
	Sessions     []types.TradingSession
	Trades       []types.Trade
	Stats        types.AggregateStats
	// TotalTrades is the size of the untruncated trade set the stats were
	// computed over; Trades above holds only the displayed sample.
	TotalTrades int
}

const defaultChatTemplate = `You are a trading assistant. You answer questions about the user's trading history, concisely and factually. Today is {{.CurrentDate}}.
{{if .FocusSession}}
Active session: {{.FocusSession.Name}} (initial capital {{money .FocusSession.InitialCapital}}, current capital {{money .FocusSession.CurrentCapital}}).
{{else}}{{if .Sessions}}
Recent sessions (newest first):
{{range .Sessions}}- {{.Name}}: initial {{money .InitialCapital}}, current {{money .CurrentCapital}}
{{end}}{{end}}{{end}}
Overall statistics across {{.TotalTrades}} trade(s):
- net P/L: {{money .Stats.NetProfitLoss}}
- win rate: {{pct .Stats.WinRatePercent}} ({{.Stats.WinningTrades}} wins / {{.Stats.LosingTrades}} losses)
- average ROI: {{pct .Stats.AverageROIPercent}}
- total margin used: {{money .Stats.TotalMarginUsed}}
{{if .Trades}}
Most recent trades (newest first, showing {{len .Trades}} of {{.TotalTrades}}):
{{range .Trades}}- {{.CreatedAt.Format "2006-01-02"}} {{.Side}} margin={{money .Margin}} roi={{pct .ROI}} pnl={{money .ProfitLoss}}{{with .Comment}} note: {{truncate . 120}}{{end}}
{{end}}{{end}}
Base every answer on the data above. If the data cannot answer the question, say so instead of guessing.`

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"pct": func(d decimal.Decimal) string {
		return d.StringFixed(2) + "%"
	},
	"truncate": func(s string, max int) string {
		if max <= 0 || len(s) <= max {
			return s
		}
		return s[:max] + "..."
	},
}

func parseChatTemplate(text string) (*template.Template, error) {
	tmpl, err := template.New("system").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing system template: %w", err)
	}
	return tmpl, nil
}

func renderTemplate(tmpl *template.Template, data SystemData) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering system template: %w", err)
	}
	return strings.TrimSpace(b.String()), nil
}

// SummarySections are the required headings of a session summary, in order.
var SummarySections = []string{
	"Performance Overview",
	"Key Insights",
	"Psychological Analysis",
	"Risk Assessment",
	"Recommendations",
}

// RenderSummary builds the batch summary prompt: aggregate stats plus the raw
// trade list, and an instruction requesting the five named sections. There is
// no user message for a summary; this whole text goes in the system role.
func RenderSummary(data SystemData) string {
	var b strings.Builder
	b.WriteString("You are a trading performance analyst. Today is " + data.CurrentDate + ".\n\n")
	if data.FocusSession != nil {
		s := data.FocusSession
		fmt.Fprintf(&b, "Session under review: %s\n", s.Name)
		fmt.Fprintf(&b, "Initial capital: %s, current capital: %s\n\n", s.InitialCapital.StringFixed(2), s.CurrentCapital.StringFixed(2))
	}
	fmt.Fprintf(&b, "Aggregate statistics over %d trade(s):\n", data.Stats.TotalTrades)
	fmt.Fprintf(&b, "- net P/L: %s\n", data.Stats.NetProfitLoss.StringFixed(2))
	fmt.Fprintf(&b, "- win rate: %s%% (%d wins / %d losses)\n",
		data.Stats.WinRatePercent.StringFixed(2), data.Stats.WinningTrades, data.Stats.LosingTrades)
	fmt.Fprintf(&b, "- average ROI: %s%%\n", data.Stats.AverageROIPercent.StringFixed(2))
	fmt.Fprintf(&b, "- total margin used: %s\n\n", data.Stats.TotalMarginUsed.StringFixed(2))
	if len(data.Trades) > 0 {
		b.WriteString("Trades (newest first):\n")
		for _, tr := range data.Trades {
			fmt.Fprintf(&b, "- %s %s margin=%s roi=%s%% pnl=%s",
				tr.CreatedAt.Format("2006-01-02 15:04"), tr.Side,
				tr.Margin.StringFixed(2), tr.ROI.StringFixed(2), tr.ProfitLoss.StringFixed(2))
			if strings.TrimSpace(tr.Comment) != "" {
				fmt.Fprintf(&b, " note: %s", tr.Comment)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Write a narrative summary of this session with exactly these sections:\n")
	for i, section := range SummarySections {
		fmt.Fprintf(&b, "%d. %s\n", i+1, section)
	}
	return b.String()
}
