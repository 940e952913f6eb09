package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy(t *testing.T) {
	t.Parallel()

	policy := NewPolicy()

	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "keeps position attributes",
			input:    `<p data-source-start="1" data-source-end="4" data-text-start="2" data-text-end="3">x</p>`,
			contains: []string{`data-source-start="1"`, `data-source-end="4"`, `data-text-start="2"`, `data-text-end="3"`},
		},
		{
			name:     "drops non-numeric positions",
			input:    `<p data-source-start="1;x" data-source-end="4">x</p>`,
			contains: []string{`data-source-end="4"`},
			excludes: []string{"data-source-start"},
		},
		{
			name:     "drops unknown data attributes",
			input:    `<p data-foo="1">x</p>`,
			excludes: []string{"data-foo"},
		},
		{
			name:     "strips scripts and handlers",
			input:    `<p onclick="evil()">x<script>alert(1)</script></p>`,
			contains: []string{"<p>x</p>"},
			excludes: []string{"onclick", "script"},
		},
		{
			name:     "keeps sub-renderer marker",
			input:    `<div class="mdsync-sub" data-sub="mermaid"><pre><code>a</code></pre></div>`,
			contains: []string{`class="mdsync-sub"`, `data-sub="mermaid"`},
		},
		{
			name:     "keeps highlighting classes",
			input:    `<pre class="chroma"><code class="language-go"><span class="kd">func</span></code></pre>`,
			contains: []string{`class="chroma"`, `class="language-go"`, `class="kd"`},
		},
		{
			name:     "keeps task checkboxes",
			input:    `<li><input type="checkbox" checked="" disabled="">done</li>`,
			contains: []string{`type="checkbox"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := policy.Sanitize(tt.input)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}
