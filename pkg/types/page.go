package types

// Page is a wiki page with its storage-format body
type Page struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SpaceKey string `json:"spaceKey,omitempty"`
	Version  int    `json:"version"`
	Body     string `json:"body,omitempty"`
	URL      string `json:"url,omitempty"`
}

// PageRef is a search hit
type PageRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
	URL   string `json:"url,omitempty"`
}

// PageInput describes a page to create or update
type PageInput struct {
	SpaceKey string
	Title    string
	Body     string
	ParentID string
	// Version is the current version of the page being updated. Zero means
	// look it up first.
	Version int
}

// Space is a wiki space
type Space struct {
	ID   int64  `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}
