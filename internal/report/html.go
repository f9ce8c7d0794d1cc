package report

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/rewired-gh/tokenguard/internal/models"
	"github.com/rewired-gh/tokenguard/internal/storage"
)

var levelColors = map[models.RiskLevel]string{
	models.RiskLow:      "#4CAF50",
	models.RiskMedium:   "#FF9800",
	models.RiskHigh:     "#F44336",
	models.RiskCritical: "#B71C1C",
}

var pageTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"color": func(l models.RiskLevel) template.CSS {
		if c, ok := levelColors[l]; ok {
			return template.CSS(c)
		}
		return "#888"
	},
	"short": func(s string) string {
		if len(s) > 8 {
			return s[:8] + "…"
		}
		return s
	},
	"pct":    func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"deref":  func(p *int) int { return *p },
	"labels": func(a *models.Analysis) []LabelCount { return chartData(a).Labels },
	"yesno": func(b bool) string {
		if b {
			return "YES"
		}
		return "NO"
	},
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>tokenguard – {{.Token.Symbol}} ({{short .TokenAddress}})</title>
  <style>
    * { box-sizing: border-box; margin: 0; padding: 0; }
    body { font-family: 'Segoe UI', system-ui, sans-serif; background: #1e1e2e; color: #cdd6f4; padding: 24px; }
    header { border-bottom: 2px solid #313244; padding-bottom: 16px; margin-bottom: 24px; }
    header p { color: #a6adc8; font-size: 0.9rem; margin-top: 4px; }
    .badge { display: inline-block; padding: 4px 12px; border-radius: 20px; font-weight: 700; color: #1e1e2e; background: {{color .Risk.Level}}; }
    .score { font-size: 3rem; font-weight: 900; color: {{color .Risk.Level}}; }
    .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: 12px; margin: 24px 0; }
    .card { background: #313244; border-radius: 8px; padding: 14px; }
    .card .label { color: #a6adc8; font-size: 0.75rem; text-transform: uppercase; }
    .card .value { font-size: 1.1rem; font-weight: 600; margin-top: 4px; }
    table { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
    th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #313244; }
    th { color: #89b4fa; font-size: 0.8rem; text-transform: uppercase; }
    h2 { color: #89b4fa; margin: 24px 0 12px; font-size: 1.1rem; text-transform: uppercase; }
    .muted { color: #a6adc8; }
    footer { color: #585b70; font-size: 0.8rem; margin-top: 32px; text-align: center; }
  </style>
</head>
<body>
  <header>
    <h1>Token Risk Report <span class="badge">{{.Risk.Level}}</span></h1>
    <p>Token: <strong>{{.Token.Name}}</strong> ({{.Token.Symbol}}) · Address: {{.TokenAddress}}</p>
    <p>Generated: {{.AnalyzedAt.UTC.Format "2006-01-02 15:04 UTC"}}</p>
  </header>

  <div class="card"><span class="score">{{.Risk.TotalScore}}</span> / 100 <span class="muted">0 = safe · 100 = critical</span></div>

  <div class="grid">
    <div class="card"><div class="label">Mint authority revoked</div><div class="value">{{yesno .Risk.MintAuthorityRevoked}}</div></div>
    <div class="card"><div class="label">Freeze authority revoked</div><div class="value">{{yesno .Risk.FreezeAuthorityRevoked}}</div></div>
    <div class="card"><div class="label">Liquidity found</div><div class="value">{{yesno .Risk.LiquidityPresent}}</div></div>
    <div class="card"><div class="label">Top-10 concentration</div><div class="value">{{pct .Risk.Top10Concentration}}</div></div>
    <div class="card"><div class="label">Bot activity</div><div class="value">{{pct .Risk.BotPercentage}}</div></div>
    <div class="card"><div class="label">Bundled wallets</div><div class="value">{{pct .Risk.BundledPercentage}}</div></div>
    <div class="card"><div class="label">Bundles detected</div><div class="value">{{.Bundles.TotalBundles}} ({{.Bundles.SuspiciousBundles}} suspicious)</div></div>
    <div class="card"><div class="label">External score</div><div class="value">{{if .Risk.ExternalScore}}{{deref .Risk.ExternalScore}}{{else}}n/a{{end}}</div></div>
  </div>

  <h2>Triggered risk factors</h2>
  {{if .Risk.Factors}}
  <table>
    <thead><tr><th>Factor</th><th>Points</th><th>Description</th></tr></thead>
    <tbody>
    {{range .Risk.Factors}}<tr><td>{{.Name}}</td><td style="color:#ff6b6b">+{{.Points}}</td><td>{{.Description}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{else}}<p class="muted">No risk factors triggered.</p>{{end}}

  <h2>Trader classification</h2>
  <table>
    <thead><tr><th>Label</th><th>Wallets</th></tr></thead>
    <tbody>
    {{range labels .}}<tr><td>{{.Label}}</td><td>{{.Count}}</td></tr>
    {{end}}
    </tbody>
  </table>

  <h2>Bundles</h2>
  {{if .Bundles.Groups}}
  <table>
    <thead><tr><th>Wallets</th><th>Blocks</th><th>Cohesion</th><th>Suspicious</th></tr></thead>
    <tbody>
    {{range .Bundles.Groups}}<tr><td>{{.Size}}</td><td>{{len .Blocks}}</td><td>{{printf "%.2f" .Cohesion}}</td><td>{{yesno .Suspicious}}</td></tr>
    {{end}}
    </tbody>
  </table>
  {{else}}<p class="muted">No bundles detected.</p>{{end}}

  {{if .Warnings}}
  <h2>Warnings</h2>
  <ul class="muted">{{range .Warnings}}<li>{{.}}</li>{{end}}</ul>
  {{end}}

  <footer>tokenguard · analysis {{.ID}}</footer>
</body>
</html>
`))

// RenderHTML renders the analysis as a self-contained HTML page.
func RenderHTML(a *models.Analysis) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, a); err != nil {
		return nil, fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteHTML writes the HTML report into dir and returns its path.
func WriteHTML(dir string, a *models.Analysis) (string, error) {
	page, err := RenderHTML(a)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fileName(a, "html"))
	if err := storage.WriteFile(path, page); err != nil {
		return "", fmt.Errorf("failed to write html report: %w", err)
	}
	return path, nil
}
