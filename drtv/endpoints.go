package drtv

import (
	"net/url"
	"strings"
)

const (
	DefaultAPIBaseURL  = "https://isl.dr-massive.com/api"
	DefaultSiteBaseURL = "https://www.dr.dk/drtv"
)

// Query parameters the service expects on every catalog request.
const (
	paramDevice = "web_browser"
	paramFF     = "idp,ldp,rpt"
	paramLang   = "da"
	paramSub    = "Anonymous"
)

// Endpoints holds the service API root and the public site root.
type Endpoints struct {
	API  string
	Site string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		API:  DefaultAPIBaseURL,
		Site: DefaultSiteBaseURL,
	}
}

func (e Endpoints) api(path string, q url.Values) string {
	u := strings.TrimRight(e.API, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (e Endpoints) AnonymousSSOURL() string {
	q := make(url.Values, 3)
	q.Set("device", paramDevice)
	q.Set("ff", paramFF)
	q.Set("lang", paramLang)
	return e.api("/authorization/anonymous-sso", q)
}

func (e Endpoints) RefreshURL() string {
	q := make(url.Values, 2)
	q.Set("ff", paramFF)
	q.Set("lang", paramLang)
	return e.api("/authorization/refresh", q)
}

func (e Endpoints) ItemVideosURL(id string) string {
	q := make(url.Values, 6)
	q.Set("delivery", "stream")
	q.Set("device", paramDevice)
	q.Set("ff", paramFF)
	q.Set("lang", paramLang)
	q.Set("resolution", "HD-1080")
	q.Set("sub", paramSub)
	return e.api("/account/items/"+url.PathEscape(id)+"/videos", q)
}

// PageURL is the listing query for a site path relative to the site root.
func (e Endpoints) PageURL(path string) string {
	q := make(url.Values, 8)
	q.Set("device", paramDevice)
	q.Set("ff", paramFF)
	q.Set("geoLocation", "dk")
	q.Set("isDeviceAbroad", "false")
	q.Set("lang", paramLang)
	q.Set("segments", "drtv,optedout")
	q.Set("sub", paramSub)
	q.Set("path", path)
	return e.api("/page", q)
}
