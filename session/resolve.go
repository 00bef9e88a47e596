package session

import (
	"fmt"
	"strings"
)

// AmbiguityError indicates several candidates matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string // display names
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which %s? (%s)", e.Name, strings.Join(e.Candidates, ", "))
}

// NotFoundError indicates no candidate matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %q here", e.Name)
}

// resolveName maps a parsed object to one of ids. An exact id or full
// name match wins outright; otherwise a query matching one word of a
// name is accepted when it is unique.
func resolveName(ids []string, display func(string) string, query string) (string, error) {
	for _, id := range ids {
		if matchesExact(id, display(id), query) {
			return id, nil
		}
	}

	var matches []string
	for _, id := range ids {
		for _, word := range strings.Fields(bareName(display(id))) {
			if word == query {
				matches = append(matches, id)
				break
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: query}
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, id := range matches {
			names[i] = display(id)
		}
		return "", &AmbiguityError{Name: query, Candidates: names}
	}
}

// matchesExact compares the query with an id (allowing "old pier" for
// "old_pier") and with the article-free display name.
func matchesExact(id, name, query string) bool {
	idLower := strings.ToLower(id)
	if idLower == query || strings.ReplaceAll(query, " ", "_") == idLower {
		return true
	}
	return bareName(name) == query
}
