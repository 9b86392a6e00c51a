package textproc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\t&nbsp; ", ""},
		{"tags and entities", "<p>Tom &amp; Jerry&nbsp;ran</p><br/>home", "Tom & Jerry ran home"},
		{"quotes and angle entities", "&quot;a &lt; b&quot; &gt; c", `"a < b" > c`},
		{"script and style removed", "<style>p{}</style>before<script>var x = 1;</script> after", "before after"},
		{"whitespace collapsed", "  one\n\n two\t\tthree  ", "one two three"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"<div>Hello&nbsp;&nbsp;world</div>",
		"&lt;b&gt;bold&lt;/b&gt; text",
		"&amp;lt;p&amp;gt; nested",
		"plain text already",
		"<p> </p>",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeDeeplyNestedEntities(t *testing.T) {
	in := "&" + strings.Repeat("amp;", 10) + "lt;b&gt;word"
	assert.Equal(t, "word", Normalize(in))
}

func TestMaskProperNouns(t *testing.T) {
	assert.Equal(t, "PROPERNOUN walked into PROPERNOUN with Ron.",
		MaskProperNouns("Harry Potter walked into Diagon Alley with Ron."))
	assert.Equal(t, "a single Name stays", MaskProperNouns("a single Name stays"))
	assert.Equal(t, `said PROPERNOUN`, MaskProperNouns(`said "Élodie Moreau."`))
	assert.Equal(t, "", MaskProperNouns("   "))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"dont", "stop", "café", "42"}, Tokenize("Don't STOP -- Café, 42!"))
	assert.Empty(t, Tokenize("-- ... !!"))
}

func TestLiteralTokensMasksNames(t *testing.T) {
	a := LiteralTokens("Harry Potter opened the door slowly")
	b := LiteralTokens("Frodo Baggins opened the door slowly")
	assert.Equal(t, a, b)
	assert.Equal(t, "propernoun", a[0])
}

func TestChunkWordsConservesWords(t *testing.T) {
	words := make([]string, 450)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	text := strings.Join(words, " ")

	chunks := ChunkWords(text, 200)
	require.Len(t, chunks, 3)

	var rejoined []string
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		n := len(strings.Fields(c.Text))
		assert.LessOrEqual(t, n, 200)
		assert.Positive(t, n)
		rejoined = append(rejoined, c.Text)
	}
	assert.Equal(t, text, strings.Join(rejoined, " "))
	assert.Len(t, strings.Fields(chunks[2].Text), 50)
}

func TestChunkWordsEmpty(t *testing.T) {
	assert.Empty(t, ChunkWords("", 200))
	assert.Empty(t, ChunkWords("   ", 200))
	assert.Len(t, ChunkWords("a b c", 0), 1)
}

func TestContentHashStable(t *testing.T) {
	assert.Equal(t, ContentHash("abc"), ContentHash("abc"))
	assert.NotEqual(t, ContentHash("abc"), ContentHash("abd"))
	assert.Len(t, ContentHash(""), 64)
}
