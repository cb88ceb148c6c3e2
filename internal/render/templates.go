package render

import "html/template"

type pageData struct {
	SiteTitle   string
	Description string
	Canonical   string // absolute page URL when a base URL is configured
	Title       string
	Docname     string
	Body        template.HTML
	Sidebar     []groupData
	Inline      []groupData
}

type groupData struct {
	Caption string
	Nodes   []nodeView
}

type nodeView struct {
	Title    string
	Href     string
	Children []nodeView
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} &mdash; {{.SiteTitle}}</title>
{{- if .Description}}
<meta name="description" content="{{.Description}}">
{{- end}}
{{- if .Canonical}}
<link rel="canonical" href="{{.Canonical}}">
{{- end}}
</head>
<body data-docname="{{.Docname}}">
<nav class="sidebar">
{{- range .Sidebar}}
{{- if .Caption}}
<p class="caption">{{.Caption}}</p>
{{- end}}
{{template "navlist" .Nodes}}
{{- end}}
</nav>
<main>
<article>
{{.Body}}
</article>
{{- range .Inline}}
<section class="toctree">
{{- if .Caption}}
<p class="caption">{{.Caption}}</p>
{{- end}}
{{template "navlist" .Nodes}}
</section>
{{- end}}
</main>
</body>
</html>
{{- define "navlist"}}
<ul>
{{- range .}}
<li><a href="{{.Href}}">{{.Title}}</a>
{{- if .Children}}{{template "navlist" .Children}}{{end}}</li>
{{- end}}
</ul>
{{- end}}
`))

var preTemplate = template.Must(template.New("pre").Parse(`<pre class="restructuredtext">{{.}}</pre>`))
