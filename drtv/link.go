package drtv

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type Kind int

const (
	KindItem Kind = iota + 1
	KindShow
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindShow:
		return "show"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Site recognizes and builds public item and show URLs under a site root.
type Site struct {
	root    string
	rootURL *url.URL
	pattern *regexp.Regexp
}

func NewSite(base string) (*Site, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if nil != err {
		return nil, fmt.Errorf("failed to parse site base url: %v", err)
	}
	if u.Host == "" {
		return nil, errors.New("site base url has no host")
	}
	pattern, err := regexp.Compile(`^(https|http)://` + regexp.QuoteMeta(u.Host+u.Path) + `/.*_\d+`)
	if nil != err {
		return nil, fmt.Errorf("failed to compile site url pattern: %v", err)
	}
	return &Site{
		root:    u.Scheme + "://" + u.Host + u.Path,
		rootURL: u,
		pattern: pattern,
	}, nil
}

func (s *Site) Root() string {
	return s.root
}

// Verify fails with ErrUnverifiedURL unless link points below the site root
// and carries a numeric id suffix.
func (s *Site) Verify(link string) error {
	if !s.pattern.MatchString(link) {
		return &URLError{URL: link, Err: ErrUnverifiedURL}
	}
	return nil
}

// RelativePath returns the path of link below the site root, with a leading slash.
func (s *Site) RelativePath(link string) (string, error) {
	u, err := url.Parse(link)
	if nil != err {
		return "", &URLError{URL: link, Err: ErrMalformedURL}
	}
	rel, ok := strings.CutPrefix(u.Path, s.rootURL.Path)
	if !ok || u.Host != s.rootURL.Host || (rel != "" && !strings.HasPrefix(rel, "/")) {
		return "", &URLError{URL: link, Err: ErrUnverifiedURL}
	}
	if rel == "" {
		rel = "/"
	}
	return rel, nil
}

// Classify tells shows from items by the markers in the path below the site root.
func (s *Site) Classify(link string) (Kind, error) {
	rel, err := s.RelativePath(link)
	if nil != err {
		return 0, err
	}
	switch {
	case strings.Contains(rel, "saeson"), strings.Contains(rel, "serie"):
		return KindShow, nil
	case strings.Contains(rel, "episode"), strings.Contains(rel, "se"):
		return KindItem, nil
	default:
		return 0, &URLError{URL: link, Err: ErrUnrecognizedKind}
	}
}

// ItemURL joins a listing watch path onto the site root.
func (s *Site) ItemURL(watchPath string) string {
	return s.root + "/" + strings.TrimLeft(watchPath, "/")
}

// SanitizeLink strips trailing line terminators, e.g., from lines read on stdin.
func SanitizeLink(link string) string {
	return strings.TrimRight(link, "\r\n")
}
