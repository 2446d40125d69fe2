package chatbot

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// A Tagger builds the search index string of a text.
// Statements whose index strings share a word are candidate matches.
type Tagger interface {
	IndexString(text string) string
}

// PosTagger indexes text as part-of-speech bigrams: each alphabetic,
// non-stop-word token is paired with the tag of the token before it.
type PosTagger struct {
	// model is the perceptron tagger, loaded once and shared by every call.
	model *prose.Model
}

func NewPosTagger() *PosTagger {
	t := &PosTagger{}
	doc, err := prose.NewDocument("", t.docOpts()...)
	if err == nil {
		t.model = doc.Model
	}
	return t
}

func (t *PosTagger) docOpts() []prose.DocOpt {
	opts := []prose.DocOpt{
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	}
	if t.model != nil {
		opts = append(opts, prose.UsingModel(t.model))
	}
	return opts
}

func (t *PosTagger) IndexString(text string) string {
	if len(text) <= 2 {
		if stripped := stripPunctuation(text); len(stripped) >= 1 {
			text = stripped
		}
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}

	doc, err := prose.NewDocument(text, t.docOpts()...)
	if err != nil {
		return strings.ToLower(text)
	}
	tokens := doc.Tokens()

	var pairs []string
	if len(text) > 2 {
		var kept []prose.Token
		for _, tok := range tokens {
			if isAlpha(tok.Text) && !isStopWord(tok.Text) {
				kept = append(kept, tok)
			}
		}
		if len(kept) < 2 {
			kept = kept[:0]
			for _, tok := range tokens {
				if isAlpha(tok.Text) {
					kept = append(kept, tok)
				}
			}
		}
		for i := 1; i < len(kept); i++ {
			pairs = append(pairs, kept[i-1].Tag+":"+strings.ToLower(kept[i].Text))
		}
	}

	if len(pairs) == 0 {
		for _, tok := range tokens {
			pairs = append(pairs, strings.ToLower(tok.Text))
		}
	}
	return strings.Join(pairs, " ")
}

func stripPunctuation(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, text)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func isStopWord(s string) bool {
	_, ok := stopWords[strings.ToLower(s)]
	return ok
}

var stopWords = func() map[string]struct{} {
	words := strings.Fields(`
		a about above after again against all am an and any are as at be
		because been before being below between both but by can could did do
		does doing down during each few for from further had has have having he
		her here hers herself him himself his how i if in into is it its itself
		just me more most my myself no nor not now of off on once only or other
		our ours ourselves out over own same she should so some such than that
		the their theirs them themselves then there these they this those
		through to too under until up very was we were what when where which
		while who whom why will with would you your yours yourself yourselves`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
