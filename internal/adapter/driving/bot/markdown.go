package bot

import "strings"

var (
	markdownEscaper = strings.NewReplacer(
		`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
		"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
		"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
	)
	codeEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`")
)

// escapeMarkdown escapes s for use as plain text in a MarkdownV2 message.
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// escapeCode escapes s for use inside a MarkdownV2 code span or pre block.
func escapeCode(s string) string {
	return codeEscaper.Replace(s)
}
