package http

import (
	"embed"
	"html/template"

	"smarthealth-frontend/internal/domain"
	"smarthealth-frontend/internal/format"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.New("pages").Funcs(template.FuncMap{
	"clock": format.Clock,
	"isUser": func(m domain.Message) bool {
		return m.Role == domain.RoleUser
	},
}).ParseFS(templateFS, "templates/*.html"))

// documentOption es una opción del selector de tipo de documento.
type documentOption struct {
	ID       domain.DocumentType
	Name     string
	Selected bool
}

func documentOptions(selected domain.DocumentType) []documentOption {
	if !selected.Valid() {
		selected = domain.DocumentCC
	}
	types := []domain.DocumentType{domain.DocumentCC, domain.DocumentTI, domain.DocumentCE, domain.DocumentPA}
	out := make([]documentOption, 0, len(types))
	for _, t := range types {
		out = append(out, documentOption{ID: t, Name: t.Name(), Selected: t == selected})
	}
	return out
}
