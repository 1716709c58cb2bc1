// internal/extract/extract_test.go
package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty link token", "before [[]](https://x.test/a) after", "before after"},
		{"escaped empty link token", `see [\[\]](/b) here`, "see here"},
		{"space runs", "a    b  c", "a b c"},
		{"space before comma", "one , two ,three", "one, two,three"},
		{"space before period", "end .\nnext", "end.\nnext"},
		{"blank line runs", "p1\n\n\n\n\np2", "p1\n\np2"},
		{"trim", "\n\n  text  \n", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanMarkdown(tt.in))
		})
	}
}

func TestExtractor_Markdown(t *testing.T) {
	e := New(zaptest.NewLogger(t))

	out, err := e.Markdown(`<h2>Install</h2><p>Run the <a href="https://example.com/tool">tool</a> now.</p>` +
		`<a href="/icon"><img src="x.png"></a><pre><code>go build ./...</code></pre>` +
		`<p><del>old</del></p>`)
	require.NoError(t, err)

	assert.Contains(t, out, "## Install")
	assert.Contains(t, out, "[tool](https://example.com/tool)")
	assert.Contains(t, out, "```")
	assert.Contains(t, out, "go build ./...")
	assert.Contains(t, out, "~old~")
	assert.NotContains(t, out, "/icon", "anchors without text are dropped")
	assert.NotContains(t, out, "\n\n\n")
}

const articlePage = `<!DOCTYPE html>
<html><head><title>Field Notes on Rivers</title></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<article>
<h1>Field Notes on Rivers</h1>
<p>Rivers shape the land they cross. Over thousands of years a river carves valleys, deposits
sediment on its floodplain and builds deltas where it meets the sea. Each of these processes
depends on the volume of water the river carries and on the slope of its bed.</p>
<p>Where the slope is steep the water moves quickly and erodes its channel, carrying gravel and
sand downstream. Where the slope flattens the current slows, and the river drops what it was
carrying. Meanders form as the outer bank erodes while the inner bank gains new sediment.</p>
<p>People have settled along rivers for as long as there have been settlements. Rivers provide
drinking water, irrigation, transport and fish, and the fertile soils of floodplains have fed
some of the oldest civilisations in the world. Managing floods remains a central problem.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestExtractor_ContentReadable(t *testing.T) {
	e := New(zaptest.NewLogger(t))

	art, err := e.Content(articlePage, "https://rivers.example/notes")
	require.NoError(t, err)

	assert.True(t, art.Readable)
	assert.Equal(t, "https://rivers.example/notes", art.URL)
	assert.Equal(t, "Field Notes on Rivers", art.Title)
	assert.Contains(t, art.Markdown, "Meanders form as the outer bank erodes")
	assert.NotContains(t, art.Markdown, "Copyright")
}

func TestExtractor_Summary(t *testing.T) {
	e := New(zaptest.NewLogger(t))

	full, err := e.Summary(articlePage, "https://rivers.example/notes", 0)
	require.NoError(t, err)
	require.Greater(t, len([]rune(full)), 50)

	short, err := e.Summary(articlePage, "https://rivers.example/notes", 50)
	require.NoError(t, err)
	assert.Equal(t, 50, len([]rune(short)))
	assert.True(t, strings.HasPrefix(full, short))
}

func TestFallbackRegion(t *testing.T) {
	t.Run("main region preferred", func(t *testing.T) {
		doc, _, err := parseDocument(`<html><body><header>Site</header><div id="content"><p>Body text</p><script>x()</script></div><aside>Ad</aside></body></html>`)
		require.NoError(t, err)

		region := fallbackRegion(doc)
		assert.Equal(t, "Body text", strings.TrimSpace(region.Text()))
		assert.Equal(t, 0, doc.Find("script, header, aside").Length())
	})

	t.Run("body when no main region", func(t *testing.T) {
		doc, _, err := parseDocument(`<html><body><nav>Menu</nav><p>Just a paragraph</p></body></html>`)
		require.NoError(t, err)

		region := fallbackRegion(doc)
		assert.Equal(t, "Just a paragraph", strings.TrimSpace(region.Text()))
	})

	t.Run("first match in document order", func(t *testing.T) {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<body><div class="content">A</div><main>B</main></body>`))
		require.NoError(t, err)
		assert.Equal(t, "A", fallbackRegion(doc).Text())
	})
}

func TestDocumentTitle(t *testing.T) {
	_, root, err := parseDocument(`<html><head><title>  Hello
	World </title></head><body><svg><title>icon</title></svg></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", documentTitle(root))

	_, root, err = parseDocument(`<body><svg><title>icon</title></svg></body>`)
	require.NoError(t, err)
	assert.Equal(t, "", documentTitle(root))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "he", truncate("hello", 2))
	assert.Equal(t, "hello", truncate("hello", 0))
	assert.Equal(t, "ñö", truncate("ñöü", 2))
}
