package templates

// StatusPageData contains the dynamic values rendered on a status page.
type StatusPageData struct {
	// StatusLabel is the numeric code followed by its reason phrase, e.g. "404 Not Found".
	StatusLabel string
	// ImageURL is the absolute path of the bundled image shown below the heading.
	ImageURL string
}
