// internal/model/block.go
package model

// Block kinds. The renderer switches exhaustively over these; anything
// else is rejected at campaign creation.
const (
	BlockText   = "text"
	BlockButton = "button"
	BlockFooter = "footer"
)

// Block is one unit of campaign content. Which fields apply depends on Kind:
// text uses Text, button uses Label+URL, footer uses IncludeUnsubscribe.
type Block struct {
	Kind               string `json:"kind"`
	Text               string `json:"text,omitempty"`
	Label              string `json:"label,omitempty"`
	URL                string `json:"url,omitempty"`
	IncludeUnsubscribe bool   `json:"include_unsubscribe,omitempty"`
}

// ValidKind reports whether the block carries a known kind.
func (b Block) ValidKind() bool {
	switch b.Kind {
	case BlockText, BlockButton, BlockFooter:
		return true
	}
	return false
}
