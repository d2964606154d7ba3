package boundary

import (
	"html/template"
	"net/http"
)

// ResetPath は回復画面の "Try Again" の送信先。
const ResetPath = "/reset"

var recoveryTemplate = template.Must(template.New("recovery").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Something went wrong.</title>
</head>
<body>
<main class="recovery">
<h1>Something went wrong.</h1>
<p class="error">{{.Message}}</p>
{{if .FaultID}}<p class="fault-id">Fault ID: {{.FaultID}}</p>{{end}}
<form method="post" action="{{.ResetPath}}">
<input type="hidden" name="return" value="{{.Return}}">
<button type="submit">Try Again</button>
</form>
</main>
</body>
</html>
`))

type recoveryView struct {
	Message   string
	FaultID   string
	ResetPath string
	Return    string
}

// renderRecovery は回復画面を描画する。
func (b *Boundary) renderRecovery(w http.ResponseWriter, r *http.Request) {
	info, err := b.Fault()
	view := recoveryView{
		FaultID:   info.FaultID,
		ResetPath: ResetPath,
		Return:    returnPath(r.URL.RequestURI()),
	}
	if err != nil {
		view.Message = err.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	_ = recoveryTemplate.Execute(w, view)
}
