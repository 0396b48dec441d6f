package auth

import "html/template"

type deniedPageData struct {
	Email   string
	Allowed []string
}

var deniedPage = template.Must(template.New("denied").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Access denied</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 36rem; margin: 4rem auto; padding: 0 1rem; color: #222; }
h1 { font-size: 1.4rem; }
code { background: #f2f2f2; padding: 0 .25rem; }
</style>
</head>
<body>
<h1>Access denied</h1>
<p>The account <code>{{.Email}}</code> is not allowed to use this notes server.</p>
{{- if .Allowed}}
<p>Sign in with an account from {{if eq (len .Allowed) 1}}the domain{{else}}one of the domains{{end}}:
{{range $i, $d := .Allowed}}{{if $i}}, {{end}}<code>{{$d}}</code>{{end}}</p>
{{- end}}
<p>No access was granted. Close this window and try again with a different account.</p>
</body>
</html>
`))
