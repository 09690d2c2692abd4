// Package render produces the HTML lookup page.
package render

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"transaction-lookup/logger"
	"transaction-lookup/model"
)

//go:embed templates/lookup.html
var templateFS embed.FS

var lookupTemplate = template.Must(template.ParseFS(templateFS, "templates/lookup.html"))

// LookupPage is the data behind the lookup form. Error and Transaction are optional.
type LookupPage struct {
	MaxID       int
	Query       string
	Error       string
	Transaction *model.Transaction
}

// Lookup renders the page. Every interpolated value is escaped by html/template.
func Lookup(page LookupPage) (string, error) {
	var buf bytes.Buffer
	if err := lookupTemplate.Execute(&buf, page); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteLookup renders the page and writes it with the given status.
func WriteLookup(w http.ResponseWriter, status int, page LookupPage) {
	body, err := Lookup(page)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to render lookup page")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
