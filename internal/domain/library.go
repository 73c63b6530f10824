package domain

// LibraryEntry is the listing view of a saved document: id, display name and
// creation time (unix seconds, fractional).
type LibraryEntry struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Created float64 `json:"created"`
}

// LibraryDocument is a loaded entry: its display name and the raw HTML body.
type LibraryDocument struct {
	Name string
	HTML string
}
