package deckimport

import (
	"strconv"
	"strings"
)

// DeckEntry is one "count name" line of a deck list.
type DeckEntry struct {
	Count int    `json:"count"`
	Name  string `json:"name"`
}

// ParsedDeck is a deck recovered from a model reply. A nil Sideboard means no sideboard was given.
type ParsedDeck struct {
	MainDeck    []DeckEntry `json:"main_deck"`
	Sideboard   []DeckEntry `json:"sideboard,omitempty"`
	Explanation string      `json:"explanation,omitempty"`
}

// ResultKind tags the outcome of parsing a reply.
type ResultKind int

const (
	// KindNoDeckFound means the reply had no recognizable Deck section with entries.
	KindNoDeckFound ResultKind = iota
	// KindOK means Deck holds a deck with a non-empty main deck.
	KindOK
)

func (k ResultKind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNoDeckFound:
		return "no_deck_found"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind as its string form in JSON.
func (k ResultKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ParseResult is the tagged outcome of ParseReply. Deck is set only when Kind is KindOK.
type ParseResult struct {
	Kind    ResultKind  `json:"kind"`
	Deck    *ParsedDeck `json:"deck,omitempty"`
	Skipped []string    `json:"skipped,omitempty"` // lines inside a list that were not entries
}

// OK reports whether a deck was found.
func (r *ParseResult) OK() bool {
	return r != nil && r.Kind == KindOK && r.Deck != nil
}

type parseState int

const (
	stateNone parseState = iota
	stateInDeck
	stateInSideboard
)

type tokenKind int

const (
	tokenBlank tokenKind = iota
	tokenDeckHeader
	tokenSideboardHeader
	tokenEntry
	tokenDecorative
	tokenText
)

type token struct {
	kind  tokenKind
	text  string // trimmed line
	entry DeckEntry
}

// classifyLine tokenizes one line. Headers must be the whole trimmed line so prose that
// merely mentions "deck" is never taken for a section start.
func classifyLine(line string) token {
	t := token{text: strings.TrimSpace(line)}

	switch {
	case t.text == "":
		t.kind = tokenBlank
	case strings.EqualFold(t.text, "deck"):
		t.kind = tokenDeckHeader
	case strings.EqualFold(t.text, "sideboard"):
		t.kind = tokenSideboardHeader
	case isDecorative(t.text):
		t.kind = tokenDecorative
	default:
		if entry, ok := parseEntry(t.text); ok {
			t.kind = tokenEntry
			t.entry = entry
		} else {
			t.kind = tokenText
		}
	}
	return t
}

// parseEntry matches "<digits>[x] <name>": a positive count, optional x, at least one
// space, and the rest of the line as the name.
func parseEntry(s string) (DeckEntry, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return DeckEntry{}, false
	}
	count, err := strconv.Atoi(s[:i])
	if err != nil || count <= 0 {
		return DeckEntry{}, false
	}

	rest := s[i:]
	if strings.HasPrefix(rest, "x") || strings.HasPrefix(rest, "X") {
		rest = rest[1:]
	}
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return DeckEntry{}, false
	}

	name := strings.TrimSpace(rest)
	if name == "" {
		return DeckEntry{}, false
	}
	return DeckEntry{Count: count, Name: name}, true
}

// isDecorative reports whether s is made only of '-' or only of '=' characters.
func isDecorative(s string) bool {
	return strings.Trim(s, "-") == "" || strings.Trim(s, "=") == ""
}

// ParseReply extracts a deck list from free-form model output.
//
// "Deck" and "Sideboard" lines switch sections; entry lines are recorded only inside
// a section. The first other non-decorative line after any entry has been recorded,
// outside the sideboard, starts the explanation, which then takes every remaining
// non-empty line. A blank line after sideboard entries closes the sideboard.
func ParseReply(text string) *ParseResult {
	state := stateNone
	var (
		main        []DeckEntry
		side        []DeckEntry
		explanation []string
		skipped     []string
		entries     int
		explaining  bool
	)

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		tok := classifyLine(line)

		if explaining {
			if tok.kind != tokenBlank {
				explanation = append(explanation, tok.text)
			}
			continue
		}

		switch tok.kind {
		case tokenBlank:
			if state == stateInSideboard && len(side) > 0 {
				state = stateNone
			}
		case tokenDeckHeader:
			state = stateInDeck
		case tokenSideboardHeader:
			state = stateInSideboard
		case tokenDecorative:
		case tokenEntry:
			switch state {
			case stateInDeck:
				main = append(main, tok.entry)
				entries++
				continue
			case stateInSideboard:
				side = append(side, tok.entry)
				entries++
				continue
			}
			// An entry-shaped line outside any section is plain text.
			if entries > 0 {
				explaining = true
				explanation = append(explanation, tok.text)
			}
		case tokenText:
			if entries > 0 && state != stateInSideboard {
				explaining = true
				explanation = append(explanation, tok.text)
			} else if state != stateNone {
				skipped = append(skipped, tok.text)
			}
		}
	}

	if len(main) == 0 {
		return &ParseResult{Kind: KindNoDeckFound, Skipped: skipped}
	}

	return &ParseResult{
		Kind: KindOK,
		Deck: &ParsedDeck{
			MainDeck:    main,
			Sideboard:   side,
			Explanation: strings.Join(explanation, "\n"),
		},
		Skipped: skipped,
	}
}
