package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Humanize turns a dashed identifier such as "culture-trust" into "Culture Trust".
func Humanize(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
	return cases.Title(language.English).String(strings.Join(words, " "))
}
