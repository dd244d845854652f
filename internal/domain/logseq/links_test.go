package logseq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLinksPageLink(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page("重要页面")}, RegistryOptions{})

	res := ResolveLinks("这是一个[[重要页面]]的链接。", "pages/a.md", reg, nil)

	assert.Equal(t, "这是一个[重要页面](重要页面.md)的链接。", res.Content)
	assert.Equal(t, 1, res.LinksRewritten)
	assert.Empty(t, res.Unresolved)
	assert.Empty(t, res.Warnings)
}

func TestResolveLinksUnresolvedBecomesText(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page("known")}, RegistryOptions{})

	res := ResolveLinks("see [[missing]], [[known]] and [[missing]] again", "pages/a.md", reg, nil)

	assert.Equal(t, "see missing, [known](known.md) and missing again", res.Content)
	assert.Equal(t, []string{"missing"}, res.Unresolved)
	assert.Equal(t, 1, res.LinksRewritten)
}

func TestResolveLinksEscapesDestinationWithSpaces(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page("笔记")}, RegistryOptions{
		Unique: true,
		Suffix: sequenceSuffix("a1b2c3d4"),
	})

	res := ResolveLinks("[[笔记]]", "pages/a.md", reg, nil)

	assert.Equal(t, "[笔记](%E7%AC%94%E8%AE%B0%20a1b2c3d4.md)", res.Content)
}

func TestResolveLinksLabeledPageLink(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page("Go")}, RegistryOptions{})

	res := ResolveLinks("read [the docs]([[Go]]) or [x]([[Nope]])", "pages/a.md", reg, nil)

	assert.Equal(t, "read [the docs](Go.md) or x", res.Content)
	assert.Equal(t, []string{"Nope"}, res.Unresolved)
}

func TestResolveLinksJournalAlias(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{journal("2025_01_01")}, RegistryOptions{})

	res := ResolveLinks("on [[2025-01-01]]", "pages/a.md", reg, nil)

	assert.Equal(t, "on [2025-01-01](2025年01月01日.md)", res.Content)
}

func TestResolveLinksTagsPassThrough(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page("multi word")}, RegistryOptions{})

	in := "#tag and #[[multi word]]"
	res := ResolveLinks(in, "pages/a.md", reg, nil)

	assert.Equal(t, in, res.Content)
	assert.Zero(t, res.LinksRewritten)
	assert.Empty(t, res.Unresolved)
}

func TestResolveLinksAssetReference(t *testing.T) {
	assets := MapAssets([]string{"assets/image_1700000000000_0.png", "assets/my file.pdf"}, nil)

	res := ResolveLinks(
		"![shot](../assets/image_1700000000000_0.png)\n[doc](../assets/my%20file.pdf)",
		"pages/a.md", BuildRegistry(nil, RegistryOptions{}), assets)

	assert.Equal(t, "![shot](assets/image_1700000000000_0.png)\n[doc](assets/my%20file.pdf)", res.Content)
	assert.Equal(t, []string{"assets/image_1700000000000_0.png", "assets/my file.pdf"}, res.ReferencedAssets)
	assert.Empty(t, res.Warnings)
}

func TestResolveLinksAssetNameWithParentheses(t *testing.T) {
	assets := MapAssets([]string{"assets/img_(1).png"}, nil)

	res := ResolveLinks("![a](../assets/img_(1).png) and (aside)", "pages/a.md", BuildRegistry(nil, RegistryOptions{}), assets)

	assert.Equal(t, "![a](assets/img_%281%29.png) and (aside)", res.Content)
	assert.Equal(t, []string{"assets/img_(1).png"}, res.ReferencedAssets)
	assert.Empty(t, res.Warnings)
}

func TestResolveLinksIgnoresLookalikeAssetsDir(t *testing.T) {
	assets := MapAssets([]string{"assets/x.png"}, nil)
	in := "![a](myassets/x.png)"

	res := ResolveLinks(in, "pages/a.md", BuildRegistry(nil, RegistryOptions{}), assets)

	assert.Equal(t, in, res.Content)
	assert.Empty(t, res.ReferencedAssets)
	assert.Len(t, res.Warnings, 1)
}

func TestResolveLinksMissingAssetWarnsOnce(t *testing.T) {
	assets := MapAssets([]string{"assets/present.png"}, nil)
	in := "![gone](../assets/missing.png)"

	res := ResolveLinks(in, "pages/a.md", BuildRegistry(nil, RegistryOptions{}), assets)

	assert.Equal(t, in, res.Content)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "../assets/missing.png")
}

func TestResolveLinksIgnoresURLsAndCode(t *testing.T) {
	reg := BuildRegistry([]NoteIdentity{page("Go")}, RegistryOptions{})
	in := "![remote](https://example.com/a.png) [site](https://go.dev)\n```\n[[Go]]\n```\n"

	res := ResolveLinks(in, "pages/a.md", reg, MapAssets(nil, nil))

	assert.Equal(t, in, res.Content)
	assert.Empty(t, res.Warnings)
	assert.Zero(t, res.LinksRewritten)
}

func TestResolveLinksEveryRegisteredTitleResolves(t *testing.T) {
	ids := []NoteIdentity{
		page("重要页面"),
		page("a/b"),
		page("???"),
		page("Mixed Case"),
		journal("2025_01_01"),
		journal("2024-12-31"),
	}
	for _, unique := range []bool{false, true} {
		reg := BuildRegistry(ids, RegistryOptions{Unique: unique})
		for _, title := range reg.Titles() {
			res := ResolveLinks("[["+title+"]]", "pages/x.md", reg, nil)
			assert.Empty(t, res.Unresolved, title)
			assert.Equal(t, 1, res.LinksRewritten, title)
		}
	}
}
