package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookwatch/internal/config"
)

func compileOne(t *testing.T, entry config.ChannelConfig) *ChannelRule {
	t.Helper()
	if len(entry.WatchChannelIDs) == 0 {
		entry.WatchChannelIDs = config.ChannelIDs{"100"}
	}
	table, err := Compile([]config.ChannelConfig{entry})
	require.NoError(t, err)
	rule, ok := table.Lookup(entry.WatchChannelIDs[0])
	require.True(t, ok)
	return rule
}

func TestCompile_Defaults(t *testing.T) {
	rule := compileOne(t, config.ChannelConfig{})

	assert.Equal(t, "100", rule.ChannelID())
	assert.Equal(t, FormatFull, rule.Format())
	assert.False(t, rule.PingAuthor())
	assert.Empty(t, rule.WebhookURL())
	assert.Empty(t, rule.Roles())
	assert.Empty(t, rule.Keywords())
	assert.Empty(t, rule.Authors())
}

func TestCompile_EmptyRuleNeverMatches(t *testing.T) {
	rule := compileOne(t, config.ChannelConfig{})

	for _, text := range []string{"", "a", "anything at all", "$-", "<@&111>", "\n"} {
		assert.False(t, rule.pattern.MatchString(text), "impossible pattern matched %q", text)
	}
}

func TestCompile_PatternCombinesRolesAndKeywords(t *testing.T) {
	rule := compileOne(t, config.ChannelConfig{
		Roles:    map[string]string{"111": "Alice"},
		Keywords: []string{"urgent"},
	})

	assert.True(t, rule.MatchString("ping <@&111>"))
	assert.True(t, rule.MatchString("URGENT update"))
	assert.False(t, rule.MatchString("Alice is here"), "role names only match with use_roles_as_keywords")
}

func TestCompile_UseRolesAsKeywords(t *testing.T) {
	rule := compileOne(t, config.ChannelConfig{
		Roles:              map[string]string{"111": "Night Shift", "222": "C++ Team"},
		Keywords:           []string{"deploy"},
		UseRolesAsKeywords: true,
	})

	assert.True(t, rule.MatchString("paging the night shift now"))
	assert.True(t, rule.MatchString("c++ team please look"))
	assert.False(t, rule.MatchString("c team"), "role names are matched literally")
	assert.ElementsMatch(t, []string{"deploy", "Night Shift", "C++ Team"}, rule.Keywords())
}

func TestCompile_KeywordsAreRegexFragments(t *testing.T) {
	rule := compileOne(t, config.ChannelConfig{
		Keywords: []string{`v\d+\.\d+`},
	})

	assert.True(t, rule.MatchString("released V2.10 today"))
	assert.False(t, rule.MatchString("version two"))
}

func TestCompile_LiteralKeywords(t *testing.T) {
	rule := compileOne(t, config.ChannelConfig{
		Keywords:        []string{"a.b", "(x)"},
		LiteralKeywords: true,
	})

	assert.True(t, rule.MatchString("see A.B"))
	assert.False(t, rule.MatchString("axb"))
	assert.True(t, rule.MatchString("(x) marks"))
}

func TestCompile_BlankKeywordIgnored(t *testing.T) {
	table, err := Compile([]config.ChannelConfig{
		{WatchChannelIDs: config.ChannelIDs{"1"}, Keywords: []string{""}},
	})
	require.NoError(t, err)

	rule, _ := table.Lookup("1")
	assert.False(t, rule.MatchString("anything"), "blank keyword must not match everything")
	require.Len(t, table.Warnings(), 1)
	assert.Contains(t, table.Warnings()[0], "blank keyword")
}

func TestCompile_InvalidKeyword(t *testing.T) {
	_, err := Compile([]config.ChannelConfig{
		{WatchChannelIDs: config.ChannelIDs{"1"}, Keywords: []string{"ok"}},
		{WatchChannelIDs: config.ChannelIDs{"2", "3"}, Keywords: []string{"broken("}},
	})
	require.Error(t, err)

	var compileErr *CompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, 1, compileErr.Index)
	assert.Equal(t, []string{"2", "3"}, compileErr.ChannelIDs)
	assert.True(t, errors.Is(err, ErrInvalidKeyword))

	var kwErr *KeywordError
	require.True(t, errors.As(err, &kwErr))
	assert.Equal(t, "broken(", kwErr.Keyword)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		entry config.ChannelConfig
		want  error
	}{
		{
			name:  "no channel ids",
			entry: config.ChannelConfig{Keywords: []string{"x"}},
			want:  ErrNoChannelIDs,
		},
		{
			name:  "blank channel id",
			entry: config.ChannelConfig{WatchChannelIDs: config.ChannelIDs{"1", " "}},
			want:  ErrEmptyChannelID,
		},
		{
			name:  "blank role id",
			entry: config.ChannelConfig{WatchChannelIDs: config.ChannelIDs{"1"}, Roles: map[string]string{"": "x"}},
			want:  ErrEmptyRoleID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Compile([]config.ChannelConfig{tt.entry})
			assert.Nil(t, table)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCompile_MultiChannelEntriesAreIndependent(t *testing.T) {
	table, err := Compile([]config.ChannelConfig{
		{
			WatchChannelIDs: config.ChannelIDs{"1", "2"},
			Roles:           map[string]string{"111": "Alice"},
			Keywords:        []string{"alert"},
			Authors:         []string{"42"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	one, _ := table.Lookup("1")
	two, _ := table.Lookup("2")
	assert.NotSame(t, one, two)
	assert.Equal(t, "1", one.ChannelID())
	assert.Equal(t, "2", two.ChannelID())

	// Mutating one record's containers must not leak into the other.
	one.roles["111"] = "Mallory"
	one.keywords[0] = "changed"
	delete(one.authors, "42")

	assert.Equal(t, "Alice", two.Roles()["111"])
	assert.Equal(t, []string{"alert"}, two.Keywords())
	assert.True(t, two.HasAuthor("42"))
}

func TestCompile_AccessorsReturnCopies(t *testing.T) {
	rule := compileOne(t, config.ChannelConfig{
		Roles:    map[string]string{"111": "Alice"},
		Keywords: []string{"alert"},
	})

	rule.Roles()["111"] = "Mallory"
	rule.Keywords()[0] = "changed"

	assert.Equal(t, "Alice", rule.Roles()["111"])
	assert.Equal(t, []string{"alert"}, rule.Keywords())
}

func TestCompile_DuplicateChannelLastWins(t *testing.T) {
	table, err := Compile([]config.ChannelConfig{
		{WatchChannelIDs: config.ChannelIDs{"1"}, Keywords: []string{"first"}},
		{WatchChannelIDs: config.ChannelIDs{"1"}, Keywords: []string{"second"}},
	})
	require.NoError(t, err)

	rule, ok := table.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, []string{"second"}, rule.Keywords())
	require.Len(t, table.Warnings(), 1)
	assert.Contains(t, table.Warnings()[0], "channels[1] wins")
}

func TestCompile_MessageFormat(t *testing.T) {
	tests := []struct {
		raw      string
		want     MessageFormat
		warnings int
	}{
		{"", FormatFull, 0},
		{"full", FormatFull, 0},
		{"short", FormatShort, 0},
		{"LINK", FormatLink, 0},
		{"link-tiny", FormatLinkTiny, 0},
		{"none", FormatNone, 0},
		{"fancy", MessageFormat("fancy"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			table, err := Compile([]config.ChannelConfig{
				{WatchChannelIDs: config.ChannelIDs{"1"}, MessageFormat: tt.raw},
			})
			require.NoError(t, err)
			rule, _ := table.Lookup("1")
			assert.Equal(t, tt.want, rule.Format())
			assert.Len(t, table.Warnings(), tt.warnings)
		})
	}
}

func TestTable_ChannelIDsSorted(t *testing.T) {
	table, err := Compile([]config.ChannelConfig{
		{WatchChannelIDs: config.ChannelIDs{"300", "100"}},
		{WatchChannelIDs: config.ChannelIDs{"200"}, WebhookURL: " https://example.com/hook "},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"100", "200", "300"}, table.ChannelIDs())
	rules := table.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "200", rules[1].ChannelID())
	assert.Equal(t, "https://example.com/hook", rules[1].WebhookURL())
}

func TestTable_NilSafe(t *testing.T) {
	var table *Table
	_, ok := table.Lookup("1")
	assert.False(t, ok)
	assert.Zero(t, table.Len())
	assert.Empty(t, table.ChannelIDs())
	assert.Empty(t, table.Warnings())
}
