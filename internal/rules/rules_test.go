package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRule(t *testing.T) {
	tests := []struct {
		name            string
		in              string
		wantPattern     string
		wantReplacement string
		wantFlags       string
		wantExpr        string
	}{
		{"no flags", "/foo/bar/", "foo", "bar", "", "foo"},
		{"single flag", "/foo/bar/i", "foo", "bar", "i", "(?i)foo"},
		{"all flags but locale", "/foo/bar/isux", "foo", "bar", "isux", "(?isux)foo"},
		{"spaces kept", "/Team sync.*/Meetings and calls/", "Team sync.*", "Meetings and calls", "", "Team sync.*"},
		{"tab and newline", "/a\tb/c\nd/", "a\tb", "c\nd", "", "a\tb"},
		{"non-ascii", "/Café.*/Pause/", "Café.*", "Pause", "", "Café.*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseRule(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPattern, r.Pattern)
			assert.Equal(t, tt.wantReplacement, r.Replacement)
			assert.Equal(t, tt.wantFlags, r.Flags)
			assert.Equal(t, tt.wantExpr, r.Expr())
		})
	}
}

func TestParseRuleErrors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantPos int
	}{
		{"empty string", "", 0},
		{"no leading separator", "foo/bar/", 0},
		{"missing final separator", "/onlyone/", 9},
		{"missing third separator", "/foo/bar", 8},
		{"empty pattern", "//bar/", 1},
		{"empty replacement", "/foo//", 5},
		{"unknown flag", "/foo/bar/q", 9},
		{"trailing garbage", "/foo/bar/i extra", 10},
		{"extra separator", "/foo/bar/i/", 10},
		{"control character", "/fo\x00o/bar/", 3},
		{"invalid regex", "/foo(/bar/", -1},
		{"locale flag", "/foo/bar/L", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRule(tt.in)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.in, perr.Rule)
			assert.Equal(t, tt.wantPos, perr.Pos)
			assert.Contains(t, err.Error(), "unable to parse rule")
		})
	}
}

func TestParseStopsAtFirstInvalidRule(t *testing.T) {
	rs, err := Parse([]string{"/Meeting.*/Work/", "/onlyone/", "/Lunch/Personal/"})
	require.Error(t, err)
	assert.Nil(t, rs)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "/onlyone/", perr.Rule)
}

func TestParseKeepsOrder(t *testing.T) {
	rs, err := Parse([]string{"/b/B/", "/a/A/", "/c/C/i"})
	require.NoError(t, err)
	require.Len(t, rs, 3)
	assert.Equal(t, "B", rs[0].Replacement)
	assert.Equal(t, "A", rs[1].Replacement)
	assert.Equal(t, "C", rs[2].Replacement)
}

func TestParseEmpty(t *testing.T) {
	rs, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestMatchIsAnchoredAtStart(t *testing.T) {
	r, err := ParseRule("/foo/bar/")
	require.NoError(t, err)

	assert.True(t, r.Match("foobaz"))
	assert.True(t, r.Match("foo"))
	assert.False(t, r.Match("xfoobaz"))
	assert.Equal(t, "bar", Resolve([]Rule{r}, "foobaz"))
	assert.Equal(t, "xfoobaz", Resolve([]Rule{r}, "xfoobaz"))
}

func TestMatchIsNotFullMatch(t *testing.T) {
	r, err := ParseRule("/Meet/Work/")
	require.NoError(t, err)
	assert.True(t, r.Match("Meeting with Bob"))
}

func TestMatchAlternationPrefersStart(t *testing.T) {
	r, err := ParseRule("/b|a/X/")
	require.NoError(t, err)
	assert.True(t, r.Match("ab"))
	assert.False(t, r.Match("cab"))
}

func TestFlags(t *testing.T) {
	tests := []struct {
		rule  string
		name  string
		match bool
	}{
		{"/meeting/Work/", "Meeting", false},
		{"/meeting/Work/i", "Meeting", true},
		{"/a.b/X/", "a\nb", false},
		{"/a.b/X/s", "a\nb", true},
		{"/a b/X/x", "ab", true},
		{"/a b/X/x", "a b", false},
		{"/é/X/iu", "É", true},
	}

	for _, tt := range tests {
		t.Run(tt.rule+" "+tt.name, func(t *testing.T) {
			r, err := ParseRule(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.match, r.Match(tt.name))
		})
	}
}

func TestNamedGroups(t *testing.T) {
	r, err := ParseRule("/(?P<m>Meet)ing/Work/")
	require.NoError(t, err)
	assert.Equal(t, "(?P<m>Meet)ing", r.Expr())
	assert.True(t, r.Match("Meeting"))

	r, err = ParseRule("/(?P<d>ab)(?P=d)/X/")
	require.NoError(t, err)
	assert.True(t, r.Match("abab"))
	assert.False(t, r.Match("abcd"))
}

func TestNamedGroupsRewrite(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"(?P<n>a)", "(?<n>a)"},
		{"(?P<n>a)(?P=n)", `(?<n>a)\k<n>`},
		{`\(?P<n>`, `\(?P<n>`},
		{`\\(?P<n>a)`, `\\(?<n>a)`},
		{"[(?P<]", "[(?P<]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, namedGroups(tt.in), tt.in)
	}
}

func TestResolveFirstMatchWins(t *testing.T) {
	rs, err := Parse([]string{"/Meeting.*/Work/", "/Meeting B/Other/", "/Lunch.*/Personal/"})
	require.NoError(t, err)

	assert.Equal(t, "Work", Resolve(rs, "Meeting B"))
	assert.Equal(t, "Personal", Resolve(rs, "Lunch"))
	assert.Equal(t, "Gym", Resolve(rs, "Gym"))
}

func TestResolveWithoutRules(t *testing.T) {
	assert.Equal(t, "Standup", Resolve(nil, "Standup"))
}

func TestReplacementIsLiteral(t *testing.T) {
	r, err := ParseRule("/(Meet)ing/$1 x/")
	require.NoError(t, err)
	assert.Equal(t, "$1 x", Resolve([]Rule{r}, "Meeting"))
}

func TestZeroRuleMatchesNothing(t *testing.T) {
	assert.False(t, Rule{}.Match("anything"))
}

func TestString(t *testing.T) {
	r, err := ParseRule("/foo/bar/i")
	require.NoError(t, err)
	assert.Equal(t, "/foo/bar/i", r.String())
}
