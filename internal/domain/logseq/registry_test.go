package logseq

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func page(title string) NoteIdentity {
	return NoteIdentity{Kind: KindPage, RawTitle: title, SourcePath: "pages/" + title + ".md"}
}

func journal(token string) NoteIdentity {
	return NoteIdentity{Kind: KindJournal, RawTitle: token, SourcePath: "journals/" + token + ".md"}
}

func sequenceSuffix(values ...string) func() string {
	i := 0
	return func() string {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestBuildRegistryJournalDisplayTitle(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{journal("2025_01_01")}, RegistryOptions{})

	name, ok := reg.Lookup("2025_01_01")
	require.True(t, ok)
	assert.Equal(t, "2025年01月01日", name.DisplayTitle)
	assert.Equal(t, "2025年01月01日", name.FileStem)
	assert.Equal(t, "2025年01月01日.md", name.OutputFilename)
	assert.Empty(t, name.UniqueSuffix)
	assert.Empty(t, reg.Warnings())
}

func TestBuildRegistryJournalAliases(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{journal("2024-02-29")}, RegistryOptions{})

	for _, target := range []string{"2024-02-29", "2024年02月29日"} {
		name, ok := reg.Lookup(target)
		require.True(t, ok, target)
		assert.Equal(t, "2024年02月29日.md", name.OutputFilename)
	}
}

func TestBuildRegistryCustomJournalLayout(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{journal("2025_03_09")}, RegistryOptions{JournalLayout: "Jan 2, 2006"})

	name, ok := reg.ForSource("journals/2025_03_09.md")
	require.True(t, ok)
	assert.Equal(t, "Mar 9, 2025", name.DisplayTitle)
}

func TestBuildRegistryInvalidJournalKeepsToken(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{journal("2025_13_40")}, RegistryOptions{})

	name, ok := reg.Lookup("2025_13_40")
	require.True(t, ok)
	assert.Equal(t, "2025_13_40.md", name.OutputFilename)
	notices := reg.NoticesFor("journals/2025_13_40.md")
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "not a date token")
}

func TestBuildRegistrySanitizesFileStem(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page(`a/b: c*d?  "e" <f>|g`)}, RegistryOptions{})

	name, ok := reg.Lookup(`a/b: c*d?  "e" <f>|g`)
	require.True(t, ok)
	assert.Equal(t, "a_b_ c_d_ _e_ _f__g", name.FileStem)
	assert.Equal(t, `a/b: c*d?  "e" <f>|g`, name.DisplayTitle)
}

func TestBuildRegistryEmptyTitleFallsBackToUntitled(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{
		{Kind: KindPage, RawTitle: "???", SourcePath: "pages/q.md"},
	}, RegistryOptions{})

	name, ok := reg.ForSource("pages/q.md")
	require.True(t, ok)
	assert.Equal(t, "untitled.md", name.OutputFilename)
	require.Len(t, reg.NoticesFor("pages/q.md"), 1)
	assert.Len(t, reg.Warnings(), 1)
}

func TestBuildRegistryUniqueModeGivesDistinctNames(t *testing.T) {
	ids := []NoteIdentity{
		{Kind: KindPage, RawTitle: "笔记", SourcePath: "pages/笔记.md"},
		{Kind: KindPage, RawTitle: "笔记.", SourcePath: "pages/笔记..md"},
	}
	reg := BuildRegistry(ids, RegistryOptions{Unique: true})

	a, ok := reg.ForSource(ids[0].SourcePath)
	require.True(t, ok)
	b, ok := reg.ForSource(ids[1].SourcePath)
	require.True(t, ok)

	assert.Len(t, a.UniqueSuffix, 8)
	assert.Len(t, b.UniqueSuffix, 8)
	assert.NotEqual(t, a.UniqueSuffix, b.UniqueSuffix)
	assert.NotEqual(t, a.OutputFilename, b.OutputFilename)
	assert.Equal(t, "笔记 "+a.UniqueSuffix+".md", a.OutputFilename)
	assert.Equal(t, strings.ToLower(a.UniqueSuffix), a.UniqueSuffix)
	assert.Empty(t, reg.Warnings())
}

func TestBuildRegistryUniqueModeRedrawsRepeatedSuffix(t *testing.T) {
	ids := []NoteIdentity{page("a"), page("b"), page("c")}
	reg := BuildRegistry(ids, RegistryOptions{
		Unique: true,
		Suffix: sequenceSuffix("deadbeef", "deadbeef", "0badf00d", "deadbeef"),
	})

	seen := map[string]bool{}
	for _, id := range ids {
		name, ok := reg.ForSource(id.SourcePath)
		require.True(t, ok)
		assert.Len(t, name.UniqueSuffix, 8)
		assert.False(t, seen[name.UniqueSuffix], "suffix %s reused", name.UniqueSuffix)
		seen[name.UniqueSuffix] = true
	}
}

func TestBuildRegistryCollisionWithoutUniqueMode(t *testing.T) {
	ids := []NoteIdentity{
		{Kind: KindPage, RawTitle: "笔记", SourcePath: "pages/笔记.md"},
		{Kind: KindPage, RawTitle: "笔记?", SourcePath: "pages/笔记%3F.md"},
	}
	reg := BuildRegistry(ids, RegistryOptions{})

	a, _ := reg.ForSource(ids[0].SourcePath)
	b, _ := reg.ForSource(ids[1].SourcePath)
	assert.Equal(t, "笔记.md", a.OutputFilename)
	assert.Equal(t, "笔记_.md", b.OutputFilename)

	ids[1].RawTitle = "笔记."
	reg = BuildRegistry(ids, RegistryOptions{})
	a, _ = reg.ForSource(ids[0].SourcePath)
	b, _ = reg.ForSource(ids[1].SourcePath)
	assert.Equal(t, a.OutputFilename, b.OutputFilename)
	assert.Empty(t, reg.NoticesFor(ids[0].SourcePath))
	notices := reg.NoticesFor(ids[1].SourcePath)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "collides")
	assert.Len(t, reg.Warnings(), 1)
}

func TestBuildRegistryCollisionIsCaseInsensitive(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page("Go"), page("go")}, RegistryOptions{})

	assert.Len(t, reg.NoticesFor("pages/go.md"), 1)
}

func TestRegistryLookup(t *testing.T) {
	aliased := page("Programming Languages")
	aliased.Aliases = []string{"PL"}
	reg := BuildRegistry([]NoteIdentity{aliased, page("重要页面")}, RegistryOptions{})

	name, ok := reg.Lookup("重要页面")
	require.True(t, ok)
	assert.Equal(t, "重要页面.md", name.OutputFilename)

	name, ok = reg.Lookup("PL")
	require.True(t, ok)
	assert.Equal(t, "Programming Languages.md", name.OutputFilename)

	name, ok = reg.Lookup("programming languages")
	require.True(t, ok)
	assert.Equal(t, "Programming Languages.md", name.OutputFilename)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)
}

func TestRegistryNameMapIsSnapshot(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page("a"), journal("2025_01_01")}, RegistryOptions{})

	m := reg.NameMap()
	assert.Equal(t, map[string]string{"a": "a.md", "2025_01_01": "2025年01月01日.md"}, m)
	m["a"] = "changed.md"
	assert.Equal(t, "a.md", reg.NameMap()["a"])
	assert.Equal(t, []string{"a", "2025_01_01"}, reg.Titles())
}

func TestBuildRegistryDuplicateTitleFirstWinsLinks(t *testing.T) {
	first := NoteIdentity{Kind: KindPage, RawTitle: "dup", SourcePath: "pages/dup.md"}
	second := NoteIdentity{Kind: KindPage, RawTitle: "dup", SourcePath: "pages/other.md"}
	reg := BuildRegistry([]NoteIdentity{first, second}, RegistryOptions{Unique: true, Suffix: sequenceSuffix("11111111", "22222222")})

	name, ok := reg.Lookup("dup")
	require.True(t, ok)
	assert.Equal(t, "dup 11111111.md", name.OutputFilename)

	other, ok := reg.ForSource(second.SourcePath)
	require.True(t, ok)
	assert.Equal(t, "dup 22222222.md", other.OutputFilename)
	assert.Len(t, reg.NoticesFor(second.SourcePath), 1)
}

func TestBuildRegistryDuplicateTitleReportsOverwrite(t *testing.T) {
	first := NoteIdentity{Kind: KindPage, RawTitle: "笔记", SourcePath: "pages/笔记.md"}
	second := NoteIdentity{Kind: KindPage, RawTitle: "笔记", SourcePath: "pages/sub/笔记.md"}
	reg := BuildRegistry([]NoteIdentity{first, second}, RegistryOptions{})

	assert.Empty(t, reg.NoticesFor(first.SourcePath))
	notices := reg.NoticesFor(second.SourcePath)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0], "links resolve to the first one")
	assert.Contains(t, notices[0], "overwritten")
	assert.Contains(t, notices[0], first.SourcePath)
}

func TestRandomSuffix(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		s := RandomSuffix()
		require.Regexp(t, `^[0-9a-f]{8}$`, s)
		seen[s] = true
	}
	assert.Greater(t, len(seen), 90, fmt.Sprintf("%d distinct suffixes", len(seen)))
}
