// Package rules parses and applies the renaming rules used to group events.
//
// A rule is written /pattern/replacement/flags. Its pattern is matched against
// the start of an event name, and on a match the whole name is replaced by the
// replacement text. Rules are tried in order and the first match wins.
package rules

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"

	appLog "calhours/internal/log"
)

const (
	separator = '/'

	// Flags accepted after the third separator.
	validFlags = "iLsux"

	matchTimeout = 2 * time.Second
)

// Rule is a parsed, compiled renaming rule. The zero value matches nothing.
type Rule struct {
	Pattern     string
	Replacement string
	Flags       string

	re *regexp2.Regexp
}

// Expr is the expression the rule was compiled from: the pattern, prefixed
// with an inline (?flags) group when flags are present.
func (r Rule) Expr() string {
	if r.Flags == "" {
		return r.Pattern
	}
	return "(?" + r.Flags + ")" + r.Pattern
}

func (r Rule) String() string {
	return string(separator) + r.Pattern + string(separator) + r.Replacement + string(separator) + r.Flags
}

// Match reports whether the pattern matches at the start of name.
func (r Rule) Match(name string) bool {
	if r.re == nil {
		return false
	}
	m, err := r.re.FindStringMatch(name)
	if err != nil {
		appLog.Error("rule match aborted", err, "rule", r.String(), "name", name)
		return false
	}
	// Leftmost-first search: a match anchored at 0 is always the one found
	// when it exists.
	return m != nil && m.Index == 0
}

// Resolve returns the replacement of the first rule matching name, or name
// itself when none does.
func Resolve(rules []Rule, name string) string {
	for _, r := range rules {
		if r.Match(name) {
			return r.Replacement
		}
	}
	return name
}

// Parse parses every raw rule string in order. It stops at the first invalid
// one and returns a *ParseError for it; no rules are returned in that case.
func Parse(raw []string) ([]Rule, error) {
	out := make([]Rule, 0, len(raw))
	for _, s := range raw {
		r, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		appLog.Debug("rule parsed", "expr", r.Expr(), "replacement", r.Replacement)
		out = append(out, r)
	}
	return out, nil
}

// ParseRule parses and compiles a single /pattern/replacement/flags string.
func ParseRule(s string) (Rule, error) {
	runes := []rune(s)

	pos := 0
	if err := expectSeparator(s, runes, pos, "at start of rule"); err != nil {
		return Rule{}, err
	}
	pos++

	pattern, pos, err := field(s, runes, pos, "pattern")
	if err != nil {
		return Rule{}, err
	}
	if err := expectSeparator(s, runes, pos, "after pattern"); err != nil {
		return Rule{}, err
	}
	pos++

	replacement, pos, err := field(s, runes, pos, "replacement")
	if err != nil {
		return Rule{}, err
	}
	if err := expectSeparator(s, runes, pos, "after replacement"); err != nil {
		return Rule{}, err
	}
	pos++

	for i := pos; i < len(runes); i++ {
		if !strings.ContainsRune(validFlags, runes[i]) {
			return Rule{}, &ParseError{
				Rule:   s,
				Pos:    i,
				Reason: fmt.Sprintf("unexpected character %q, flags must be one of %q", runes[i], validFlags),
			}
		}
	}

	r := Rule{
		Pattern:     pattern,
		Replacement: replacement,
		Flags:       string(runes[pos:]),
	}

	hostExpr, err := engineExpr(r)
	if err != nil {
		return Rule{}, &ParseError{Rule: s, Pos: -1, Reason: "unsupported flags", Err: err}
	}
	re, err := regexp2.Compile(hostExpr, regexp2.None)
	if err != nil {
		return Rule{}, &ParseError{Rule: s, Pos: -1, Reason: "invalid pattern", Err: err}
	}
	re.MatchTimeout = matchTimeout
	r.re = re

	return r, nil
}

// engineExpr translates the rule's flags for regexp2. i, s and x have the same
// meaning there; u is a no-op since matching is always Unicode-aware; L
// (locale) only applies to byte patterns and is rejected for text.
func engineExpr(r Rule) (string, error) {
	var flags strings.Builder
	for _, f := range r.Flags {
		switch f {
		case 'i', 's', 'x':
			if !strings.ContainsRune(flags.String(), f) {
				flags.WriteRune(f)
			}
		case 'u':
		case 'L':
			return "", fmt.Errorf("flag 'L' cannot be used with a text pattern")
		}
	}
	pattern := namedGroups(r.Pattern)
	if flags.Len() == 0 {
		return pattern, nil
	}
	return "(?" + flags.String() + ")" + pattern, nil
}

// namedGroups rewrites (?P<name>...) and (?P=name) into the (?<name>...) and
// \k<name> forms regexp2 understands. Escapes and character classes are
// copied as is.
func namedGroups(p string) string {
	if !strings.Contains(p, "(?P") {
		return p
	}

	var b strings.Builder
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '\\' && i+1 < len(p):
			b.WriteByte(c)
			b.WriteByte(p[i+1])
			i++
			continue
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case strings.HasPrefix(p[i:], "(?P<"):
			b.WriteString("(?<")
			i += len("(?P<") - 1
			continue
		case strings.HasPrefix(p[i:], "(?P="):
			if end := strings.IndexByte(p[i:], ')'); end > 0 {
				b.WriteString(`\k<` + p[i+len("(?P="):i+end] + ">")
				i += end
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

func expectSeparator(s string, runes []rune, pos int, where string) error {
	if pos >= len(runes) {
		return &ParseError{Rule: s, Pos: pos, Reason: fmt.Sprintf("expected %q %s, got end of rule", separator, where)}
	}
	if runes[pos] != separator {
		return &ParseError{Rule: s, Pos: pos, Reason: fmt.Sprintf("expected %q %s, got %q", separator, where, runes[pos])}
	}
	return nil
}

// field reads a non-empty run of printable characters up to the next separator.
func field(s string, runes []rune, pos int, name string) (string, int, error) {
	start := pos
	for pos < len(runes) && runes[pos] != separator {
		if !printable(runes[pos]) {
			return "", pos, &ParseError{Rule: s, Pos: pos, Reason: fmt.Sprintf("non-printable character %q in %s", runes[pos], name)}
		}
		pos++
	}
	if pos == start {
		return "", pos, &ParseError{Rule: s, Pos: pos, Reason: "empty " + name}
	}
	return string(runes[start:pos]), pos, nil
}

func printable(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return unicode.IsPrint(r)
}
