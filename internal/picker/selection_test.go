// internal/picker/selection_test.go
package picker

import (
	"strings"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatParents(t *testing.T) {
	tests := []struct {
		name      string
		ancestors []Ancestor
		want      string
	}{
		{
			name: "nearest ancestor first",
			ancestors: []Ancestor{
				{Tag: "div", Class: "container"},
				{Tag: "section", ID: "main"},
			},
			want: "div.container > section#main",
		},
		{
			name:      "id and several classes",
			ancestors: []Ancestor{{Tag: "ul", ID: "nav", Class: "menu  primary\tdark"}},
			want:      "ul#nav.menu.primary.dark",
		},
		{
			name:      "whitespace-only class adds no fragment",
			ancestors: []Ancestor{{Tag: "span", Class: "   "}},
			want:      "span",
		},
		{
			name:      "tag is lower-cased",
			ancestors: []Ancestor{{Tag: "DIV"}},
			want:      "div",
		},
		{
			name: "direct child of body has no parents",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatParents(tt.ancestors))
		})
	}
}

func TestBuildSelection(t *testing.T) {
	t.Run("full element", func(t *testing.T) {
		sel := BuildSelection(RawElement{
			Tag:   "BUTTON",
			ID:    "submit",
			Class: "btn primary",
			Text:  "  Send  ",
			HTML:  `<button id="submit" class="btn primary">Send</button>`,
			Ancestors: []Ancestor{
				{Tag: "form", ID: "login"},
				{Tag: "div", Class: "card"},
			},
		})

		assert.Equal(t, "button", sel.Tag)
		require.NotNil(t, sel.ID)
		assert.Equal(t, "submit", *sel.ID)
		require.NotNil(t, sel.Class)
		assert.Equal(t, "btn primary", *sel.Class, "class is reported raw")
		require.NotNil(t, sel.Text)
		assert.Equal(t, "Send", *sel.Text)
		assert.Equal(t, "form#login > div.card", sel.Parents)
	})

	t.Run("empty attributes become null", func(t *testing.T) {
		sel := BuildSelection(RawElement{Tag: "div", Text: " \n\t ", HTML: "<div></div>"})
		assert.Nil(t, sel.ID)
		assert.Nil(t, sel.Class)
		assert.Nil(t, sel.Text)

		out, err := json.Marshal(sel)
		require.NoError(t, err)
		assert.JSONEq(t, `{"tag":"div","id":null,"class":null,"text":null,"html":"<div></div>","parents":""}`, string(out))
	})

	t.Run("text and html are truncated by characters", func(t *testing.T) {
		longText := strings.Repeat("é", 250)
		longHTML := "<p>" + strings.Repeat("日", 600) + "</p>"
		sel := BuildSelection(RawElement{Tag: "p", Text: longText, HTML: longHTML})

		require.NotNil(t, sel.Text)
		assert.Equal(t, strings.Repeat("é", 200), *sel.Text)
		assert.Equal(t, 500, len([]rune(sel.HTML)))
		assert.True(t, strings.HasPrefix(sel.HTML, "<p>日"))
	})

	t.Run("pure", func(t *testing.T) {
		raw := RawElement{Tag: "a", ID: "x", Ancestors: []Ancestor{{Tag: "nav"}}}
		assert.Equal(t, BuildSelection(raw), BuildSelection(raw))
	})
}

func TestSelectionFieldOrder(t *testing.T) {
	id := "main"
	out, err := json.Marshal(Selection{Tag: "div", ID: &id, HTML: "<div>", Parents: "body"})
	require.NoError(t, err)
	assert.Equal(t, `{"tag":"div","id":"main","class":null,"text":null,"html":"<div>","parents":"body"}`, string(out))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "", truncateRunes("abc", 0))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
}
