package service

import (
	"html/template"
	"net/url"
	"time"

	"nryli/internal/dashboard"
	"nryli/internal/model"
)

type dashboardPage struct {
	EventName     string
	Cards         dashboard.Cards
	Filter        dashboard.Filter
	Regions       []model.Region
	Statuses      []model.Status
	Registrations []model.Registration
	Count         int
	ExportURL     string
	Location      *time.Location
}

// Date renders the submission day in the export time zone.
func (p dashboardPage) Date(reg model.Registration) string {
	return reg.CreatedAt.In(p.Location).Format("Jan 2, 2006")
}

func exportURL(f dashboard.Filter) string {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Region != "" {
		q.Set("region", f.Region)
	}
	if len(q) == 0 {
		return "/admin/registrations/export.csv"
	}
	return "/admin/registrations/export.csv?" + q.Encode()
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.EventName}} - Registrations</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 24px; color: #222; }
    .cards { display: flex; gap: 16px; margin-bottom: 24px; }
    .card { flex: 1; padding: 16px; border-radius: 8px; background: #f3f6fb; }
    .card strong { display: block; font-size: 28px; }
    table { width: 100%; border-collapse: collapse; }
    th, td { padding: 8px; border-bottom: 1px solid #ddd; text-align: left; }
    .status-pending { color: #b7791f; }
    .status-approved { color: #2f855a; }
    .status-rejected { color: #c53030; }
  </style>
</head>
<body>
  <h1>{{.EventName}}</h1>
  <div class="cards">
    <div class="card" id="card-total"><span>Total Registrations</span><strong>{{.Cards.Total}}</strong></div>
    <div class="card" id="card-ncr"><span>NCR</span><strong>{{.Cards.NCR}}</strong></div>
    <div class="card" id="card-luzon"><span>Luzon</span><strong>{{.Cards.Luzon}}</strong></div>
    <div class="card" id="card-visayas-mindanao"><span>Visayas &amp; Mindanao</span><strong>{{.Cards.VisayasMindanao}}</strong></div>
  </div>

  <form method="get" action="/admin" id="filters">
    <input type="search" name="search" value="{{.Filter.Search}}" placeholder="Search by ID, name or institution">
    <select name="region">
      <option value="">All Regions</option>
      {{- range .Regions}}
      <option value="{{.}}"{{if eq . $.Filter.Region}} selected{{end}}>{{.}}</option>
      {{- end}}
    </select>
    <button type="submit">Filter</button>
    <a id="export" href="{{.ExportURL}}">Export CSV</a>
  </form>

  <p id="count">{{.Count}} registration(s)</p>
  <table id="registrations">
    <thead>
      <tr><th>Registration ID</th><th>Date</th><th>Name</th><th>Delegate Type</th><th>Institution</th><th>Region</th><th>Status</th><th>Actions</th></tr>
    </thead>
    <tbody>
      {{- range .Registrations}}
      <tr data-id="{{.RegistrationID}}">
        <td>{{.RegistrationID}}</td>
        <td class="created">{{$.Date .}}</td>
        <td>{{.FullName}}</td>
        <td>{{.DelegateType}}</td>
        <td>{{.Institution}}</td>
        <td>{{.RegionCluster}}</td>
        <td class="status status-{{.Status}}">{{.Status}}</td>
        <td>
          {{- $id := .RegistrationID}}{{range $.Statuses}}
          <button type="button" class="set-status" data-id="{{$id}}" data-status="{{.}}">{{.}}</button>
          {{- end}}
        </td>
      </tr>
      {{- else}}
      <tr><td colspan="8" class="empty">No registrations found</td></tr>
      {{- end}}
    </tbody>
  </table>
  <script>
    document.querySelectorAll('button.set-status').forEach(function (btn) {
      btn.addEventListener('click', function () {
        fetch('/admin/registrations/' + encodeURIComponent(btn.dataset.id) + '/status', {
          method: 'PATCH',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ status: btn.dataset.status })
        }).then(function (res) {
          if (!res.ok) { return res.json().then(function (b) { throw new Error(b.error); }); }
          window.location.reload();
        }).catch(function (err) { alert('Error updating status: ' + err.message); });
      });
    });
  </script>
</body>
</html>
`))
