package chatbot

import (
	"html"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// A Preprocessor rewrites input text before the chatbot sees it.
type Preprocessor func(text string) string

// DefaultPreprocessors are applied to every input in order.
// Entities are unescaped first so an encoded &nbsp; is collapsed too.
// ConvertToASCII is opt-in: it erases text written in non-Latin scripts.
var DefaultPreprocessors = []Preprocessor{
	UnescapeHTML,
	CleanWhitespace,
}

// CleanWhitespace collapses runs of whitespace into single spaces and trims the ends.
func CleanWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// UnescapeHTML turns entities such as &amp; back into characters.
func UnescapeHTML(text string) string {
	return html.UnescapeString(text)
}

// ConvertToASCII strips accents and drops anything still outside ASCII.
func ConvertToASCII(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func preprocess(text string, preprocessors []Preprocessor) string {
	for _, p := range preprocessors {
		text = p(text)
	}
	return text
}
