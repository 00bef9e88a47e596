package session

import "strings"

// command is one parsed line of world input.
type command struct {
	Verb   string
	Object string
}

var verbAliases = map[string]string{
	"l":        "look",
	"walk":     "go",
	"run":      "go",
	"head":     "go",
	"travel":   "go",
	"enter":    "go",
	"visit":    "go",
	"speak":    "talk",
	"chat":     "talk",
	"greet":    "talk",
	"approach": "talk",
	"z":        "wait",
	"rest":     "wait",
	"i":        "inventory",
	"inv":      "inventory",
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// parse converts a line of world input into a command. Verb aliases are
// resolved, "to"/"with" after talk and "to" after go are dropped, and
// articles are stripped from the object.
func parse(input string) command {
	words := strings.Fields(strings.ToLower(input))
	if len(words) == 0 {
		return command{}
	}

	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}
	verb, rest := words[0], words[1:]

	if len(rest) > 0 {
		switch {
		case verb == "talk" && (rest[0] == "to" || rest[0] == "with"):
			rest = rest[1:]
		case verb == "go" && rest[0] == "to":
			rest = rest[1:]
		}
	}

	return command{Verb: verb, Object: strings.Join(stripArticles(rest), " ")}
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}

// bareName lowercases a display name and drops its articles so it can be
// compared with a parsed object.
func bareName(name string) string {
	return strings.Join(stripArticles(strings.Fields(strings.ToLower(name))), " ")
}
