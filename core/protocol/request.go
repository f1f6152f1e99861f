package protocol

// ChatRequest is one user turn as received from a client.
type ChatRequest struct {
	Message   string          `json:"message"`
	SessionID string          `json:"sessionId,omitempty"`
	Context   *RequestContext `json:"context,omitempty"`
}

// RequestContext carries optional situational context about where the user is
// asking from. It is passed per request, folded into the system prompt, and
// never stored globally.
type RequestContext struct {
	Page        *PageInfo      `json:"page,omitempty"`
	PageContent *PageContent   `json:"pageContent,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// PageInfo describes the page the visitor is on.
type PageInfo struct {
	URL      string `json:"url"`
	Pathname string `json:"pathname"`
	Title    string `json:"title"`
	Referrer string `json:"referrer,omitempty"`
}

// PageContent is an extract of the visible page.
type PageContent struct {
	Headings   []string `json:"headings,omitempty"`
	Text       string   `json:"text,omitempty"`
	CodeBlocks []string `json:"codeBlocks,omitempty"`
}
