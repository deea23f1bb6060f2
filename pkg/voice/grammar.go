package voice

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ErrEmptyPhrase is returned when adding a phrase with no words.
var ErrEmptyPhrase = errors.New("voice: empty phrase")

// Grammar maps spoken phrases to command tokens. Phrases are matched word by
// word after normalization (lower case, punctuation removed). A "*" word in a
// phrase matches any single spoken word; exact words take precedence.
type Grammar struct {
	root node
}

type node struct {
	children map[string]*node
	any      *node
	set      bool
	token    string
}

// NewGrammar returns an empty grammar.
func NewGrammar() *Grammar {
	return &Grammar{}
}

// DefaultGrammar returns the built-in phrases for the three view tokens.
func DefaultGrammar() *Grammar {
	g := NewGrammar()
	for token, words := range map[string][]string{
		"Color":    {"color", "colour", "camera", "rgb"},
		"Depth":    {"depth", "distance"},
		"Skeleton": {"skeleton", "body", "bones"},
	} {
		for _, w := range words {
			for _, p := range []string{"%s", "show %s", "show the %s", "%s view", "switch to %s", "switch to * %s"} {
				// Phrases are fixed; Add cannot fail here.
				_ = g.Add(fmt.Sprintf(p, w), token)
			}
		}
	}
	return g
}

// Add registers phrase for token, replacing any previous token for the same
// phrase.
func (g *Grammar) Add(phrase, token string) error {
	words := normalize(phrase)
	if len(words) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyPhrase, phrase)
	}
	n := &g.root
	for _, w := range words {
		if w == "*" {
			if n.any == nil {
				n.any = &node{}
			}
			n = n.any
			continue
		}
		if n.children == nil {
			n.children = make(map[string]*node)
		}
		ch, ok := n.children[w]
		if !ok {
			ch = &node{}
			n.children[w] = ch
		}
		n = ch
	}
	n.set = true
	n.token = token
	return nil
}

// Match returns the token for a recognized utterance.
func (g *Grammar) Match(text string) (string, bool) {
	words := normalize(text)
	if len(words) == 0 {
		return "", false
	}
	return g.root.match(words)
}

func (n *node) match(words []string) (string, bool) {
	if len(words) == 0 {
		return n.token, n.set
	}
	if ch, ok := n.children[words[0]]; ok {
		if tok, ok := ch.match(words[1:]); ok {
			return tok, true
		}
	}
	if n.any != nil {
		return n.any.match(words[1:])
	}
	return "", false
}

// Phrases returns every registered phrase with its token.
func (g *Grammar) Phrases() map[string]string {
	out := make(map[string]string)
	g.root.walk(nil, func(path []string, tok string) {
		out[strings.Join(path, " ")] = tok
	})
	return out
}

// Tokens returns the distinct tokens of the grammar, sorted.
func (g *Grammar) Tokens() []string {
	seen := make(map[string]bool)
	for _, tok := range g.Phrases() {
		seen[tok] = true
	}
	out := make([]string, 0, len(seen))
	for tok := range seen {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

func (n *node) walk(path []string, f func([]string, string)) {
	if n.set {
		f(path, n.token)
	}
	for w, ch := range n.children {
		ch.walk(append(path[:len(path):len(path)], w), f)
	}
	if n.any != nil {
		n.any.walk(append(path[:len(path):len(path)], "*"), f)
	}
}

func normalize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '*'
	})
}
