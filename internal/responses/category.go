package responses

import (
	"fmt"
	"strings"
)

// Category names one canned reply list.
type Category int

const (
	Hype Category = iota
	MorningGreeting
	AfternoonGreeting
	EveningGreeting
	NightGreeting
	WeekendGreeting
	Wisdom
	ContractAddress
	HowToBuy
	WhoAreYou
	WhoIsOwner
	Collab
	Links
	Greeting
	Moon
	Thanks
	Welcome
	About
	FinalFallback
	NoAIFallback

	numCategories
)

var categoryNames = [numCategories]string{
	Hype:              "hype",
	MorningGreeting:   "morning_greeting",
	AfternoonGreeting: "afternoon_greeting",
	EveningGreeting:   "evening_greeting",
	NightGreeting:     "night_greeting",
	WeekendGreeting:   "weekend_greeting",
	Wisdom:            "wisdom",
	ContractAddress:   "contract_address",
	HowToBuy:          "how_to_buy",
	WhoAreYou:         "who_are_you",
	WhoIsOwner:        "who_is_owner",
	Collab:            "collab",
	Links:             "links",
	Greeting:          "greeting",
	Moon:              "moon",
	Thanks:            "thanks",
	Welcome:           "welcome",
	About:             "about",
	FinalFallback:     "final_fallback",
	NoAIFallback:      "no_ai_fallback",
}

func (c Category) String() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

// ParseCategory accepts the snake_case name (case-insensitive, dashes allowed).
func ParseCategory(s string) (Category, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range categoryNames {
		if name == key {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown response category %q", s)
}

// Categories lists every category in declaration order.
func Categories() []Category {
	out := make([]Category, numCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}
