package source

import "fmt"

// Comic is the summary of a comic as returned by searches and favorite listings.
type Comic struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Cover   string   `json:"cover"`
	Authors []string `json:"author"`

	// Source is filled in by the dispatcher with the id of the source that produced the comic.
	Source ID `json:"source"`
}

func (c *Comic) String() string {
	return fmt.Sprintf("%s (%s/%s)", c.Name, c.Source, c.ID)
}

// Album is the detailed view of a comic on a single source.
type Album struct {
	Comic

	Description string         `json:"description,omitempty"`
	Chapters    []*Chapter     `json:"chapters,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Views       int            `json:"views,omitempty"`
	Favorites   int            `json:"favorites,omitempty"`
	Comments    int            `json:"comments,omitempty"`
	IsFinished  bool           `json:"is_finished"`
	IsFavorite  bool           `json:"is_favorite"`
	UpdatedAt   int64          `json:"updated_at,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
}

// Chapter is one readable unit of an album.
type Chapter struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Index int    `json:"index"`
}

func (c *Chapter) String() string {
	return c.Title
}

// Image is raw image data moving through an ImageShaper.
type Image struct {
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`

	// Meta carries source specific hints such as the scramble seed of a page.
	Meta map[string]string `json:"meta,omitempty"`
}
