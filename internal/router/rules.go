package router

import (
	"strings"
	"unicode"

	"github.com/npepeverse/pepebot/internal/responses"
)

// Rule maps trigger text to a reply category. Keywords match as substrings of
// the lowercased message; Words match whole tokens only, so short triggers
// like "ca" do not fire on "can".
type Rule struct {
	Name     string
	Category responses.Category
	Keywords []string
	Words    []string
	Markdown bool
	Menu     bool
}

// DefaultRules is the ordered keyword table. Order is significant: the first
// matching rule wins. Keywords match as substrings of the lowered text, but
// Words (short triggers such as "ca" or "gm") only match whole tokens, so
// "scam" does not hit the contract rule.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "contract_address",
			Category: responses.ContractAddress,
			Keywords: []string{"contract", "address"},
			Words:    []string{"ca"},
			Markdown: true,
			Menu:     true,
		},
		{
			Name:     "how_to_buy",
			Category: responses.HowToBuy,
			Keywords: []string{"how to buy", "where to buy", "how do i buy", "how can i buy", "where can i buy"},
			Markdown: true,
			Menu:     true,
		},
		{
			Name:     "who_are_you",
			Category: responses.WhoAreYou,
			Keywords: []string{"who are you", "what are you", "are you a bot", "are you ai"},
		},
		{
			Name:     "who_is_owner",
			Category: responses.WhoIsOwner,
			Keywords: []string{"owner", "founder", "who made", "who created", "who is the team"},
			Words:    []string{"dev", "devs"},
		},
		{
			Name:     "collab",
			Category: responses.Collab,
			Keywords: []string{"collab", "partnership", "partner with", "promotion", "marketing"},
		},
		{
			Name:     "links",
			Category: responses.Links,
			Keywords: []string{"website", "twitter", "social", "link"},
			Menu:     true,
		},
		{
			Name:     "moon",
			Category: responses.Moon,
			Keywords: []string{"moon", "pump"},
			Words:    []string{"wen"},
		},
		{
			Name:     "greeting",
			Category: responses.Greeting,
			Keywords: []string{"good morning", "hello"},
			Words:    []string{"hi", "hey", "gm", "yo", "sup"},
			Menu:     true,
		},
		{
			Name:     "thanks",
			Category: responses.Thanks,
			Keywords: []string{"thank"},
			Words:    []string{"ty", "thx"},
		},
	}
}

// matches reports whether the rule fires for lowercased text and its tokens.
func (r Rule) matches(lower string, tokens map[string]struct{}) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, w := range r.Words {
		if _, ok := tokens[w]; ok {
			return true
		}
	}
	return false
}

// tokenize splits lowercased text on anything that is not a letter or digit.
func tokenize(lower string) map[string]struct{} {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

var questionWords = []string{
	"what", "how", "when", "where", "why", "who", "can", "could",
	"is", "are", "do", "does", "explain",
}

// IsQuestion is the open-question heuristic: the text ends with "?" or its
// first word is an interrogative.
func IsQuestion(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if strings.HasSuffix(lower, "?") {
		return true
	}
	first := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(first) == 0 {
		return false
	}
	for _, w := range questionWords {
		if first[0] == w {
			return true
		}
	}
	return false
}
