package main

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/contracts"
)

// publishedContracts lists the contracts served under /openapi/{name}.json.
var publishedContracts = map[string]func() (*openapi3.T, error){
	"storefront": contracts.LoadStorefront,
}

var docsPage = template.Must(template.New("docs").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Storefront API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        urls: {{.}},
        dom_id: '#swagger-ui',
        deepLinking: true,
      });
    </script>
  </body>
</html>`))

type docsEntry struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

func registerDocsRoutes(router chi.Router, logger *zap.Logger) {
	router.Get("/docs", docsHandler(logger))
	router.Get("/openapi/{name}.json", contractHandler(logger))
}

func docsHandler(logger *zap.Logger) http.HandlerFunc {
	names := make([]string, 0, len(publishedContracts))
	for name := range publishedContracts {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]docsEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, docsEntry{URL: "/openapi/" + name + ".json", Name: name})
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := docsPage.Execute(w, entries); err != nil {
			logger.Error("render docs page", zap.Error(err))
		}
	}
}

func contractHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		load, ok := publishedContracts[name]
		if !ok {
			http.NotFound(w, r)
			return
		}

		doc, err := load()
		if err != nil {
			logger.Error("load openapi contract", zap.String("name", name), zap.Error(err))
			http.Error(w, "contract unavailable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			logger.Error("encode openapi contract", zap.String("name", name), zap.Error(err))
		}
	}
}
