package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a.b!", `a\.b\!`},
		{"@some_user", `@some\_user`},
		{"1-2 (3) [4]", `1\-2 \(3\) \[4\]`},
		{`back\slash`, `back\\slash`},
		{"*_~`>#+=|{}", "\\*\\_\\~\\`\\>\\#\\+\\=\\|\\{\\}"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, escapeMarkdown(tt.in))
		})
	}
}

func TestEscapeCode(t *testing.T) {
	assert.Equal(t, "NZCP:/1/ABC-_.", escapeCode("NZCP:/1/ABC-_."))
	assert.Equal(t, "a\\`b\\\\c", escapeCode("a`b\\c"))
}

func TestRenderedText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`*Bold* text\.`, "Bold text."},
		{`Name: @ann\_smith`, "Name: @ann_smith"},
		{"code: `a_b-c.d`", "code: a_b-c.d"},
		{`Failed\! \(x\)`, "Failed! (x)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, renderedText(tt.in))
	}
}
