package models

// PageReport is the textual evidence extracted alongside the visual
// capture: main content as Markdown plus link, image and Open Graph
// inventories for the downstream generator.
type PageReport struct {
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	SiteName    string      `json:"site_name,omitempty"`
	Language    string      `json:"language,omitempty"`
	Markdown    string      `json:"markdown"`
	WordCount   int         `json:"word_count"`
	Links       LinksResult `json:"links"`
	Images      []Image     `json:"images"`
	OGMetadata  OGMetadata  `json:"og_metadata"`
}

// LinksResult separates extracted links into internal and external groups.
type LinksResult struct {
	Internal []Link `json:"internal"`
	External []Link `json:"external"`
}

// Link represents a hyperlink extracted from the page.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text,omitempty"`
}

// Image represents an image element extracted from the page.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

// OGMetadata contains Open Graph protocol meta tags.
type OGMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Type        string `json:"type,omitempty"`
}
