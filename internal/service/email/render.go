package email

import (
	"bytes"
	"fmt"
	"html/template"

	"SalesPulse/internal/domain/models"
	"SalesPulse/pkg/util"
)

var riskColors = map[models.RiskLevel]string{
	models.RiskLow:    "#4CAF50",
	models.RiskMedium: "#FF9800",
	models.RiskHigh:   "#F44336",
}

const reportTemplate = `<html>
<body style="font-family: Arial, sans-serif;">
  <h2 style="color: #2196F3;">Sales Forecast Report</h2>

  <div style="background: #f5f5f5; padding: 15px; margin: 10px 0; border-left: 4px solid #2196F3;">
    <h3>Prediction for {{date .Date}}</h3>
    <p><strong>Expected Sales:</strong> {{money .Forecast.Ensemble}}</p>
    <p style="font-size: 14px; color: #666;">Source A: {{optMoney .Forecast.SourceA}} | Source B: {{optMoney .Forecast.SourceB}}</p>
  </div>

  <div style="background: {{color .Risk.RiskLevel}}20; padding: 15px; margin: 10px 0; border-left: 4px solid {{color .Risk.RiskLevel}};">
    <h3>Risk Assessment</h3>
    <p><strong>Risk Level:</strong> <span style="color: {{color .Risk.RiskLevel}}; font-weight: bold;">{{.Risk.RiskLevel}}</span> ({{.Risk.RiskScore}}/100)</p>
    <p><strong>Reliability:</strong> {{.Risk.Reliability}}</p>
    <p><strong>Deviation:</strong> {{signed .Risk.DeviationFromMean}}% from average</p>
    {{- if .Risk.Factors}}
    <p><strong>Factors:</strong>{{range .Risk.Factors}}<br>&bull; {{.}}{{end}}</p>
    {{- end}}
  </div>

  <div style="background: #e3f2fd; padding: 15px; margin: 10px 0; border-left: 4px solid #2196F3;">
    <h3>AI Analysis</h3>
    <p style="white-space: pre-line;">{{.Explanation}}</p>
  </div>

  <hr style="margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Generated: {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}<br>System: SalesPulse v1.0</p>
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"money": util.FormatMoney,
	"optMoney": func(v *float64) string {
		if v == nil {
			return "n/a"
		}
		return util.FormatMoney(*v)
	},
	"signed": func(v float64) template.HTML { return template.HTML(fmt.Sprintf("%+.1f", v)) },
	"date":   util.FormatDate,
	"color": func(l models.RiskLevel) template.CSS {
		if c, ok := riskColors[l]; ok {
			return template.CSS(c)
		}
		return template.CSS("#2196F3")
	},
}).Parse(reportTemplate))

// Render returns the subject and HTML body for a report.
func Render(r models.ForecastReport) (subject, body string, err error) {
	var b bytes.Buffer
	if err := reportTmpl.Execute(&b, r); err != nil {
		return "", "", fmt.Errorf("render report: %w", err)
	}
	return "Sales Forecast Alert - " + util.FormatDate(r.Date), b.String(), nil
}
