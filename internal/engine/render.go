package engine

import (
	"encoding/json"
	"html"
	"strings"
)

// RenderText shapes plain extracted text into the requested output format.
// Text-first backends (OCR, converters) share this instead of each growing
// its own ad hoc formatting.
func RenderText(text string, format OutputFormat) string {
	switch format {
	case FormatHTML:
		var b strings.Builder
		for _, para := range strings.Split(text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}
			b.WriteString("<p>")
			b.WriteString(html.EscapeString(para))
			b.WriteString("</p>\n")
		}
		return b.String()
	case FormatJSON:
		out, err := json.Marshal(map[string]string{"text": text})
		if err != nil {
			return `{"text":""}`
		}
		return string(out)
	default:
		// markdown and text are passthrough for plain-text producers
		return text
	}
}
