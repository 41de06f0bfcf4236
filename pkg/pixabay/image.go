package pixabay

// Image is one search hit, immutable once returned by Fetch.
type Image struct {
	ID           int
	ThumbnailURL string
	FullSizeURL  string
	PageURL      string
	Tags         string
	User         string
	Likes        int
	Views        int
	Comments     int
	Downloads    int
}

// Result is one page of a search.
type Result struct {
	Images []Image
	// Total is the number of matches Pixabay knows about.
	Total int
	// TotalHits is the number of matches reachable through the API (capped by Pixabay).
	TotalHits int
}

// hit mirrors an element of the "hits" array of the Pixabay search response.
type hit struct {
	ID            int    `json:"id"`
	PageURL       string `json:"pageURL"`
	Type          string `json:"type"`
	Tags          string `json:"tags"`
	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`
	Views         int    `json:"views"`
	Downloads     int    `json:"downloads"`
	Likes         int    `json:"likes"`
	Comments      int    `json:"comments"`
	User          string `json:"user"`
}

type searchResponse struct {
	Total     int   `json:"total"`
	TotalHits int   `json:"totalHits"`
	Hits      []hit `json:"hits"`
}

func (h hit) image() Image {
	return Image{
		ID:           h.ID,
		ThumbnailURL: h.WebformatURL,
		FullSizeURL:  h.LargeImageURL,
		PageURL:      h.PageURL,
		Tags:         h.Tags,
		User:         h.User,
		Likes:        nonNegative(h.Likes),
		Views:        nonNegative(h.Views),
		Comments:     nonNegative(h.Comments),
		Downloads:    nonNegative(h.Downloads),
	}
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
