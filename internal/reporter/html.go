package reporter

import (
	"html/template"

	"github.com/fenilsonani/cachescope/pkg/utils"
)

var htmlFuncs = template.FuncMap{
	"bytes": utils.FormatBytes,
	"ubytes": func(n uint64) string {
		return utils.FormatBytes(int64(n))
	},
	"categories": categoryRows,
}

var htmlReport = template.Must(template.New("report").Funcs(htmlFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Storage Inventory</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; background: #1F2937; color: #F3F4F6; margin: 2rem; }
h1 { color: #7C3AED; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { border-bottom: 1px solid #4B5563; padding: .4rem .6rem; text-align: left; }
th { color: #A78BFA; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
.safe { color: #10B981; } .moderate { color: #F59E0B; } .caution { color: #EF4444; }
.bar { background: #7C3AED; height: .6rem; }
.error { color: #EF4444; font-size: .85em; }
.meta { color: #9CA3AF; }
</style>
</head>
<body>
<h1>Storage Inventory</h1>
<p class="meta">
{{with .Metadata.Platform}}{{.Name}} {{.Version}}{{if .Hostname}} on {{.Hostname}}{{end}}{{if .Username}} ({{.Username}}){{end}}<br>{{end}}
Generated {{.GeneratedAt.Format "2006-01-02 15:04:05"}}.
Scanned {{.Metadata.PathsTotal}} locations: {{.Metadata.PathsFound}} found, {{.Metadata.PathsAbsent}} absent, {{.Metadata.PathsFailed}} failed.
</p>
{{with .Disk}}<p>Disk {{if .MountPoint}}{{.MountPoint}}{{else}}{{.Path}}{{end}}: {{ubytes .Used}} used of {{ubytes .Total}} ({{printf "%.1f" .UsedPercent}}%), {{ubytes .Free}} free</p>{{end}}
<p><strong>Total: {{.TotalSizeFormatted}}</strong> in {{.Stats.ItemCount}} locations, {{bytes .Stats.CleanableSize}} safe to clean, {{bytes .Stats.StaleSize}} stale.</p>

<h2>By category</h2>
<table>
<tr><th>Category</th><th>Locations</th><th>Size</th><th></th></tr>
{{range categories .Stats}}<tr><td>{{.Category}}</td><td class="num">{{.Count}}</td><td class="num">{{bytes .SizeBytes}}</td><td><div class="bar" style="width: {{printf "%.0f" .Percent}}%"></div></td></tr>
{{end}}</table>

<h2>Locations</h2>
<table>
<tr><th>Name</th><th>Category</th><th>Risk</th><th>Size</th><th>Files</th><th>Age</th><th>Path</th></tr>
{{range .Items}}<tr>
<td>{{.Name}}</td><td>{{.Category}}</td><td class="{{.RiskLevel}}">{{.RiskLevel}}</td>
<td class="num">{{bytes .SizeBytes}}</td><td class="num">{{.FileCount}}</td>
<td class="num">{{.AgeDays}}d{{if .IsStale}} (stale){{end}}</td>
<td>{{.Path}}{{with .ScanError}}<div class="error">{{.Error}}</div>{{end}}</td>
</tr>
{{end}}</table>
</body>
</html>
`))

// reportHTML renders a standalone page
func (r *Reporter) reportHTML(doc *InventoryReport) error {
	return htmlReport.Execute(r.writer, doc)
}
