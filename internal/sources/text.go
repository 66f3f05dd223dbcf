package sources

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxDescriptionLen = 4000

// plainText flattens an HTML fragment to whitespace-normalised text.
func plainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return collapse(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapse(fragment)
	}
	return collapse(doc.Text())
}

func collapse(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > maxDescriptionLen {
		s = string(r[:maxDescriptionLen])
	}
	return s
}
