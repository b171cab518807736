package messages

// ContentBlock is one block of an outbound user turn.
type ContentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource references an image by URL.
type ImageSource struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// TextBlock returns a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// ImageURLBlock returns an image content block referencing url.
func ImageURLBlock(url string) ContentBlock {
	return ContentBlock{Type: "image", Source: &ImageSource{Type: "url", URL: url}}
}

type userMessage struct {
	Type    string      `json:"type"`
	Message userPayload `json:"message"`
}

type userPayload struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// BuildUserMessage builds a user turn with a single text block.
func BuildUserMessage(prompt string) (string, error) {
	return BuildUserContentMessage([]ContentBlock{TextBlock(prompt)})
}

// BuildUserContentMessage builds a user turn from explicit blocks.
func BuildUserContentMessage(blocks []ContentBlock) (string, error) {
	if blocks == nil {
		blocks = []ContentBlock{}
	}

	return encode(TypeUser, userMessage{
		Type:    TypeUser,
		Message: userPayload{Role: "user", Content: blocks},
	})
}
