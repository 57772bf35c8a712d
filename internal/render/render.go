// internal/render/render.go
package render

import (
	"fmt"
	"strings"

	"github.com/pikarlabs/campaign-dispatch/internal/model"
)

const buttonStyle = "display:inline-block;padding:12px 24px;background-color:#2563eb;" +
	"color:#ffffff;text-decoration:none;border-radius:6px;font-weight:bold"

// preheader text is rendered before the body but hidden, so inbox clients
// pick it up as the preview line without showing it in the message.
const preheaderStyle = "display:none;max-height:0;overflow:hidden;font-size:1px;line-height:1px;color:#ffffff"

// Escape replaces the three HTML metacharacters in untrusted text.
// Ampersand first, or the later replacements would be double-escaped.
func Escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// Document renders a campaign's content into a complete, self-contained HTML
// message. Block order is preserved; all freeform text is escaped; button
// URLs are structural and pass through raw. The unsubscribe link appears only
// in footer blocks that ask for it, and only when a URL was supplied.
func Document(subject, previewText string, blocks []model.Block, unsubscribeURL string) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", Escape(subject))
	b.WriteString("</head>\n<body style=\"margin:0;padding:0;background-color:#f4f4f5;font-family:Arial,sans-serif\">\n")

	if previewText != "" {
		fmt.Fprintf(&b, "<div style=\"%s\">%s</div>\n", preheaderStyle, Escape(previewText))
	}

	b.WriteString("<div style=\"max-width:600px;margin:0 auto;padding:24px;background-color:#ffffff\">\n")

	for _, blk := range blocks {
		switch blk.Kind {
		case model.BlockText:
			fmt.Fprintf(&b, "<p style=\"color:#18181b;font-size:15px;line-height:1.6\">%s</p>\n", Escape(blk.Text))
		case model.BlockButton:
			fmt.Fprintf(&b, "<p><a href=\"%s\" style=\"%s\">%s</a></p>\n", blk.URL, buttonStyle, Escape(blk.Label))
		case model.BlockFooter:
			b.WriteString("<hr style=\"border:none;border-top:1px solid #e4e4e7;margin:24px 0\">\n")
			if blk.IncludeUnsubscribe && unsubscribeURL != "" {
				fmt.Fprintf(&b, "<p style=\"color:#71717a;font-size:12px\">No longer want these emails? <a href=\"%s\" style=\"color:#71717a\">Unsubscribe</a>.</p>\n", unsubscribeURL)
			}
		}
	}

	b.WriteString("</div>\n</body>\n</html>\n")
	return b.String()
}
