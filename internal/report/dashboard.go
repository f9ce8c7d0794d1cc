package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rewired-gh/tokenguard/internal/models"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	goodStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	badStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	pointsStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func levelStyle(l models.RiskLevel) lipgloss.Style {
	switch l {
	case models.RiskCritical:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1"))
	case models.RiskHigh:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	case models.RiskMedium:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	}
}

func yesNo(b bool) string {
	if b {
		return goodStyle.Render("YES ✓")
	}
	return badStyle.Render("NO ✗")
}

// Dashboard renders the analysis for the terminal.
func Dashboard(a *models.Analysis) string {
	sections := []string{
		renderHeader(a),
		renderRisk(a),
		renderFactors(a),
		renderTraders(a),
		renderBundles(a),
	}
	if len(a.Warnings) > 0 {
		sections = append(sections, mutedStyle.Render(fmt.Sprintf("%d record(s) skipped, see the JSON report", len(a.Warnings))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// PrintDashboard writes the dashboard to w.
func PrintDashboard(w io.Writer, a *models.Analysis) error {
	_, err := fmt.Fprintln(w, Dashboard(a))
	return err
}

func renderHeader(a *models.Analysis) string {
	name := a.Token.Name
	if name == "" {
		name = "Unknown"
	}
	symbol := a.Token.Symbol
	if symbol == "" {
		symbol = "???"
	}
	return panelStyle.BorderForeground(lipgloss.Color("6")).Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("🛡 tokenguard"),
		fmt.Sprintf("%s (%s)", name, symbol),
		mutedStyle.Render(a.TokenAddress),
	))
}

func renderRisk(a *models.Analysis) string {
	r := a.Risk
	border := lipgloss.Color("3")
	if r.Level == models.RiskHigh || r.Level == models.RiskCritical {
		border = lipgloss.Color("1")
	}
	external := "n/a"
	if r.ExternalScore != nil {
		external = fmt.Sprintf("%d", *r.ExternalScore)
	}
	lines := []string{
		levelStyle(r.Level).Render(fmt.Sprintf("Risk Score: %d/100  ──  %s", r.TotalScore, r.Level)),
		fmt.Sprintf("Mint Authority Revoked: %s  │  Freeze Authority Revoked: %s  │  Liquidity Found: %s",
			yesNo(r.MintAuthorityRevoked), yesNo(r.FreezeAuthorityRevoked), yesNo(r.LiquidityPresent)),
		fmt.Sprintf("Top-10 Concentration: %.1f%%  │  Bot Activity: %.1f%%  │  Bundled Wallets: %.1f%%  │  External Score: %s",
			r.Top10Concentration, r.BotPercentage, r.BundledPercentage, external),
	}
	return panelStyle.BorderForeground(border).Render(strings.Join(lines, "\n"))
}

func renderFactors(a *models.Analysis) string {
	title := headerStyle.Render("Triggered Risk Factors")
	if len(a.Risk.Factors) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("none"))
	}
	width := 0
	for _, f := range a.Risk.Factors {
		width = max(width, len(f.Name))
	}
	lines := make([]string, 0, len(a.Risk.Factors))
	for _, f := range a.Risk.Factors {
		lines = append(lines, fmt.Sprintf("%-*s %s  %s",
			width, f.Name, pointsStyle.Render(fmt.Sprintf("%+4d", f.Points)), mutedStyle.Render(f.Description)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}

func renderTraders(a *models.Analysis) string {
	title := headerStyle.Render(fmt.Sprintf("Trader Classification (%d wallets)", a.Traders.TotalWallets))
	total := a.Traders.TotalWallets
	if total == 0 {
		total = 1
	}
	lines := make([]string, 0, len(models.AllLabels))
	for _, l := range models.AllLabels {
		n := a.Traders.Counts[l]
		lines = append(lines, fmt.Sprintf("%-12s %6d  %5.1f%%", l, n, float64(n)/float64(total)*100))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}

func renderBundles(a *models.Analysis) string {
	b := a.Bundles
	title := headerStyle.Render(fmt.Sprintf("Bundles: %d (%d suspicious), %.1f%% of wallets bundled",
		b.TotalBundles, b.SuspiciousBundles, b.BundledPercentage))
	if len(b.Groups) == 0 {
		return title
	}
	var lines []string
	for i, g := range b.Groups {
		if i == bundlePreview {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("… %d more", len(b.Groups)-i)))
			break
		}
		flag := ""
		if g.Suspicious {
			flag = badStyle.Render(" suspicious")
		}
		lines = append(lines, fmt.Sprintf("#%d  %d wallets  %d block(s)  cohesion %.2f%s",
			i+1, g.Size(), len(g.Blocks), g.Cohesion, flag))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}
