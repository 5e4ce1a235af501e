package main

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"custid/internal/config"
	"custid/internal/customer"
	"custid/internal/identity"
	"custid/internal/store"
)

type reportLinks struct {
	Office   string
	Contract string
	Search   string
}

type reportData struct {
	Input       string
	Result      *identity.Result
	Record      *customer.Record
	Links       reportLinks
	StoreCount  int
	LastUpdated string
	DataSources string
	GeneratedAt string
}

var reportFuncs = template.FuncMap{
	"orDefault": func(fallback, value string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	},
	"join": strings.Join,
}

var reportTemplate = template.Must(template.New("report").Funcs(reportFuncs).Parse(`{{- if .Record -}}
# Customer: {{ .Record.CompanyName }}

## Identity ({{ .Result.Tier }}{{ if .Result.Sources }} via {{ join .Result.Sources ", " }}{{ end }})
- **Company name**: {{ .Record.CompanyName }}
- **Tenant UID**: {{ .Record.TenantUID }}
- **Office ID**: {{ .Record.OfficeID }}
- **Corporate number**: {{ orDefault "unregistered" .Record.CorporateNumber }}
- **Identification code**: {{ orDefault "unset" .Record.IdentificationCode }}
{{- if .Record.CreatedAt }}
- **Registered**: {{ .Record.CreatedAt }}
{{- end }}

## Contract
- **Plan**: {{ orDefault "to confirm" .Record.PlanName }}
- **Payment method**: {{ orDefault "to confirm" .Record.PaymentMethod }}
- **Contract status**: {{ orDefault "to confirm" .Record.ContractStatus }}
{{- if or .Links.Office .Links.Contract }}

## Links
{{- if .Links.Office }}
- [Office detail]({{ .Links.Office }})
{{- end }}
{{- if .Links.Contract }}
- [Contract record]({{ .Links.Contract }})
{{- end }}
{{- end }}

## Notes
{{ orDefault "none" .Record.Notes }}

---

## Incident report (prefilled)
- Severity: {{"{{"}}level 1-4{{"}}"}}
- Company name: {{ .Record.CompanyName }}
- Tenant UID: {{ .Record.TenantUID }}
- Office ID: {{ .Record.OfficeID }}
- Affected user ID: {{"{{"}}optional{{"}}"}}
- Affected document ID: {{"{{"}}optional{{"}}"}}
- What happened: {{"{{"}}what happened{{"}}"}}
- Expected behavior: {{"{{"}}what should have happened{{"}}"}}
- Impact: {{"{{"}}users affected, frequency, business impact{{"}}"}}
- Occurred at: {{"{{"}}yyyy-mm-dd hh:mm{{"}}"}}
{{- else -}}
# Customer not found: {{ .Input }}

## Search
- **Input**: {{ .Input }}
- **Query kind**: {{ .Result.Query.Kind }}
- **Result**: no matching customer in the local store or remote sources

## Checks
- [ ] Spelling of the company name
- [ ] office_id / tenant_uid digits
- [ ] Customer is registered in the admin console
{{- if .Links.Search }}

## Manual search
- [Admin console search]({{ .Links.Search }})
{{- end }}

## Next steps
1. Collect the identity fields manually
2. Run ` + "`custid add --name ... --tenant-uid ... --office-id ...`" + `
3. The next lookup for this customer is served locally
{{- end }}

---

## Store
- **Records**: {{ .StoreCount }}
- **Last updated**: {{ orDefault "never" .LastUpdated }}
{{- if .DataSources }}
- **Data sources**: {{ .DataSources }}
{{- end }}
- **Generated**: {{ .GeneratedAt }}
`))

func buildReportData(cfg *config.Config, input string, res *identity.Result, snap *store.Snapshot, now time.Time) reportData {
	data := reportData{
		Input:       strings.TrimSpace(input),
		Result:      res,
		Record:      res.Record,
		GeneratedAt: now.Format("2006-01-02 15:04"),
	}
	if snap != nil {
		data.StoreCount = len(snap.Customers)
		if snap.LastUpdated != nil {
			data.LastUpdated = snap.LastUpdated.Local().Format(time.RFC3339)
		}
		data.DataSources = strings.Join(snap.DataSources, ", ")
	}

	escaped := url.QueryEscape(data.Input)
	data.Links.Search = config.RenderLink(cfg.Links.SearchURL, "", "", escaped)
	if rec := res.Record; rec != nil {
		if !customer.IsPlaceholder(rec.OfficeID) {
			data.Links.Office = config.RenderLink(cfg.Links.OfficeURL, rec.OfficeID, rec.TenantUID, escaped)
		}
		if !customer.IsPlaceholder(rec.TenantUID) {
			data.Links.Contract = config.RenderLink(cfg.Links.ContractURL, rec.OfficeID, rec.TenantUID, escaped)
		}
		if data.Links.Office == "" {
			data.Links.Office = legacyLink(rec, "aweb_url")
		}
		if data.Links.Contract == "" {
			data.Links.Contract = legacyLink(rec, "erp_url")
		}
	}
	return data
}

// legacyLink reads a link stored on older records.
func legacyLink(rec *customer.Record, key string) string {
	raw, ok := rec.Extra[key]
	if !ok {
		return ""
	}
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

func renderReport(data reportData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

func saveReport(dir string, content string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, "customer-info-"+now.Format("20060102-150405")+".md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
