package drtv

import (
	"errors"
	"strings"
)

// Item identifies a single playable video.
type Item struct {
	Name string
	ID   string
}

// ParseItem derives the item identity from the last path segment of link,
// whose numeric suffix after the last '_' is the item id.
func ParseItem(link string) (Item, error) {
	link = SanitizeLink(link)

	slash := strings.LastIndexByte(link, '/')
	if slash < 0 {
		return Item{}, &URLError{URL: link, Err: errors.Join(ErrMalformedURL, errors.New("missing path separator"))}
	}
	name := link[slash+1:]

	underscore := strings.LastIndexByte(link, '_')
	if underscore < 0 {
		return Item{}, &URLError{URL: link, Err: errors.Join(ErrMalformedURL, errors.New("missing id separator"))}
	}
	id := link[underscore+1:]
	if !isDigits(id) {
		return Item{}, &URLError{URL: link, Err: errors.Join(ErrMalformedURL, errors.New("id is not numeric"))}
	}

	return Item{Name: name, ID: id}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
