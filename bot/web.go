// © 2019 the CatBase Authors under the WTFPL. See AUTHORS for the list of authors.

package bot

import (
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"
)

var rootIndex = `
<!DOCTYPE html>
<html>
	<head>
		<title>cardbase</title>
		<meta name="viewport" content="width=device-width, initial-scale=1">
	</head>
	<body>
	{{if .}}
		<ul>
		{{range .}}
			<li><a href="{{.URL}}">{{.Name}}</a></li>
		{{end}}
		</ul>
	{{end}}
	</body>
</html>
`

func (b *bot) setupHTTP() {
	b.router = chi.NewRouter()
	b.router.Use(httprate.LimitByIP(60, time.Minute))
	b.router.HandleFunc("/", b.serveRoot)

	addr := b.config.Get("HttpAddr", "127.0.0.1:1337")
	go func() {
		if err := http.ListenAndServe(addr, b.router); err != nil {
			log.Error().Err(err).Msg("web interface died")
		}
	}()
}

// RegisterWeb records a navigable endpoint served elsewhere on the router.
func (b *bot) RegisterWeb(root, name string) {
	b.httpEndPoints = append(b.httpEndPoints, EndPoint{name, root})
}

// RegisterWebName mounts a plugin's router at root and adds it to the nav.
func (b *bot) RegisterWebName(r http.Handler, root, name string) {
	b.router.Mount(root, r)
	b.RegisterWeb(root, name)
}

func (b *bot) GetWebNavigation() []EndPoint {
	return b.httpEndPoints
}

func (b *bot) serveRoot(w http.ResponseWriter, r *http.Request) {
	t, err := template.New("rootIndex").Parse(rootIndex)
	if err != nil {
		log.Error().Err(err).Msg("could not parse index template")
		w.WriteHeader(500)
		return
	}
	t.Execute(w, b.GetWebNavigation())
}
