package news

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Article represents a single search result as returned by the news search
// API. The publisher name is resolved once at decode time and compared
// verbatim by the selector.
type Article struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Publisher   string `json:"publisher"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Source is the "source" field of a search result. Depending on the API
// version it is either a plain string or an object with a name.
type Source struct {
	Name    string   `json:"name"`
	Icon    string   `json:"icon,omitempty"`
	Authors []string `json:"authors,omitempty"`
}

// UnmarshalJSON accepts both the string and the object representation.
// Anything else (null, numbers, arrays) leaves the name empty rather than
// failing the whole response.
func (s *Source) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return fmt.Errorf("failed to decode source name: %w", err)
		}
		*s = Source{Name: name}
	case '{':
		// Fields are decoded one by one so a badly typed icon or author list
		// never costs the name
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			*s = Source{}
			return nil
		}

		var src Source
		_ = json.Unmarshal(fields["name"], &src.Name)
		_ = json.Unmarshal(fields["icon"], &src.Icon)
		if err := json.Unmarshal(fields["authors"], &src.Authors); err != nil {
			src.Authors = nil
		}
		*s = src
	default:
		*s = Source{}
	}

	return nil
}

// String returns the publisher name.
func (s Source) String() string {
	return s.Name
}

// Label returns the display form of an article: "title (link)".
func (a Article) Label() string {
	return fmt.Sprintf("%s (%s)", a.Title, a.Link)
}

// IsZero reports whether the article carries neither a title nor a link.
func (a Article) IsZero() bool {
	return strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Link) == ""
}
