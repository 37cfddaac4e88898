package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Pasted incident dumps occasionally arrive as RTF exports from rich-text
// editors. stripRTF unwraps those into plain text; anything without the RTF
// signature passes through unchanged.

var (
	rtfParBreak   = regexp.MustCompile(`\\pard?\b ?`)
	rtfHexEscape  = regexp.MustCompile(`\\'([0-9a-fA-F]{2})`)
	rtfControlSeq = regexp.MustCompile(`\\[a-zA-Z]+-?\d* ?`)
)

func stripRTF(text string) string {
	if !strings.HasPrefix(strings.TrimSpace(text), `{\rtf`) {
		return text
	}

	// Paragraph breaks become newlines before the generic control-word
	// sweep removes the rest.
	out := rtfParBreak.ReplaceAllString(text, "\n")
	out = rtfHexEscape.ReplaceAllStringFunc(out, func(m string) string {
		code, err := strconv.ParseUint(m[2:], 16, 8)
		if err != nil {
			return ""
		}
		return string(rune(code))
	})
	out = rtfControlSeq.ReplaceAllString(out, "")
	out = strings.NewReplacer("{", "", "}", "").Replace(out)
	return out
}
