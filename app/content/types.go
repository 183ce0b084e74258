package content

// Metadata holds whatever could be extracted for a URL. Every field except
// URL and Platform is optional; the pipeline degrades to "URL only" when
// extraction fails.
type Metadata struct {
	URL      string
	Platform Platform
	Title    string
	Caption  string
	ImageURL string
	// Body holds readability-extracted article text for website sources,
	// used to give the summarizer richer input when OG tags are sparse.
	Body string
}
