package note

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		text     string
		want     string
	}{
		{"explicit wins", "  My Title ", "Buy milk", "My Title"},
		{"first line", "", "Buy milk\nand bread", "Buy milk"},
		{"skips blank lines", "", "\n\n   \nSecond", "Second"},
		{"strips heading", "", "## Weekly sync\nnotes", "Weekly sync"},
		{"empty text", "", "   ", "Untitled"},
		{"only hashes", "", "###", "Untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.explicit, tt.text))
		})
	}
}

func TestDeriveTitleTruncatesRunes(t *testing.T) {
	line := strings.Repeat("é", 70)
	title := DeriveTitle("", line)
	assert.Equal(t, strings.Repeat("é", 60)+"...", title)
}

func TestCounts(t *testing.T) {
	assert.Equal(t, 2, CountWords("Buy milk"))
	assert.Equal(t, 8, CountChars("Buy milk"))
	assert.Equal(t, 3, CountChars("日本語"))
	assert.Equal(t, 0, CountWords("  \n\t "))
}

func TestPreview(t *testing.T) {
	text := strings.Repeat("a", 250)
	assert.Len(t, Preview(text), 200)
	assert.Equal(t, "short", Preview("  short \n"))
}

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("#Work plan for #q3 and #work again, see http://x.com/#anchor\n#road-map #日本")
	assert.Equal(t, []string{"work", "q3", "road-map", "日本"}, tags)
	assert.Empty(t, ExtractHashtags("# Heading only"))
}

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs("Read https://go.dev/doc. Then [link](http://example.com/a?b=1), again https://go.dev/doc!")
	require.Len(t, urls, 2)
	assert.Equal(t, "https://go.dev/doc", urls[0])
	assert.Equal(t, "http://example.com/a?b=1", urls[1])
	assert.Empty(t, ExtractURLs("no links here"))
}

func TestMetadataValueEncoding(t *testing.T) {
	encoded := encodeMetadataValue("Café notes")
	for _, r := range encoded {
		assert.Less(t, r, rune(128))
	}
	assert.Equal(t, "Café notes", decodeMetadataValue(encoded))
}

func TestParseNoteType(t *testing.T) {
	nt, err := ParseNoteType("")
	require.NoError(t, err)
	assert.Equal(t, NoteTypeNote, nt)

	nt, err = ParseNoteType(" Task ")
	require.NoError(t, err)
	assert.Equal(t, NoteTypeTask, nt)

	_, err = ParseNoteType("diary")
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "u@x.com/", UserPrefix(" U@X.com "))
	assert.Equal(t, "u@x.com/abc.md", PrimaryKey("u@x.com", "abc"))
	assert.Equal(t, "u@x.com/.metadata/abc.json", SidecarKey("u@x.com", "abc"))
	assert.True(t, IsSidecarKey("u@x.com/.metadata/abc.json"))
	assert.False(t, IsSidecarKey("u@x.com/abc.md"))
	assert.True(t, IsPrimaryKey("u@x.com/abc.md"))
	assert.False(t, IsPrimaryKey("u@x.com/.metadata/abc.md"))
	assert.Equal(t, "abc", IDFromKey("u@x.com/.metadata/abc.json"))
	assert.Equal(t, "u@x.com/.metadata/", Folder("u@x.com/.metadata/abc.json"))
	assert.Equal(t, "", Folder("abc.md"))
}
