package services

import (
	"pemiyos/internal/models"
	"pemiyos/internal/schema"
	"pemiyos/internal/utils"
)

// markdownFields maps a stored markdown field to its rendered counterpart.
var markdownFields = map[schema.Collection]map[string]string{
	schema.Candidates: {
		"profile":       "profile_html",
		"program_kerja": "program_kerja_html",
	},
}

// decorate adds the derived, read-only fields of a document.
func decorate(c schema.Collection, doc models.Document) {
	for src, dst := range markdownFields[c] {
		text, _ := doc[src].(string)
		if text == "" {
			continue
		}
		doc[dst] = utils.RenderMarkdown(text)
	}
}

// derivedField reports whether name is computed on read and never stored.
func derivedField(c schema.Collection, name string) bool {
	for _, dst := range markdownFields[c] {
		if dst == name {
			return true
		}
	}
	return false
}
