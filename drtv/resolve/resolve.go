package resolve

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/xeptore/drtvd/drtv"
	"github.com/xeptore/drtvd/drtv/auth"
	"github.com/xeptore/drtvd/httputil"
	"github.com/xeptore/drtvd/log"
)

// maxAttempts bounds item lookups to the first request plus one retry after
// a token refresh.
const maxAttempts = 2

type Resolver struct {
	client    *http.Client
	session   *auth.Session
	endpoints drtv.Endpoints
	logger    zerolog.Logger
}

func New(client *http.Client, session *auth.Session, endpoints drtv.Endpoints, logger zerolog.Logger) *Resolver {
	return &Resolver{
		client:    client,
		session:   session,
		endpoints: endpoints,
		logger:    logger,
	}
}

// Resolve returns the stream URL of the item with the given id.
func (r *Resolver) Resolve(ctx context.Context, id string) (string, error) {
	reqURL := r.endpoints.ItemVideosURL(id)
	for attempt := 1; ; attempt++ {
		token := r.session.Current()
		res, err := r.lookup(ctx, reqURL, token)
		if nil != err {
			return "", err
		}

		switch code := res.StatusCode; {
		case code == http.StatusOK:
			mediaURL := gjson.GetBytes(res.Body, "0.url")
			if mediaURL.Type != gjson.String || mediaURL.Str == "" {
				return "", &drtv.ShapeError{Path: "0.url"}
			}
			return mediaURL.Str, nil
		case httputil.IsAuthRejected(code):
			if attempt >= maxAttempts {
				return "", fmt.Errorf("item %s lookup rejected after token refresh with status %d: %w", id, code, auth.ErrUnauthorized)
			}
			r.logger.Debug().Str("id", id).Int("status_code", code).Str("token", log.RedactString(token)).Msg("Token rejected. Refreshing")
			if err := r.session.Refresh(ctx, token); nil != err {
				return "", err
			}
		default:
			return "", &drtv.StatusError{StatusCode: code, Body: string(res.Body)}
		}
	}
}

func (r *Resolver) lookup(ctx context.Context, reqURL, token string) (*httputil.Response, error) {
	req, err := httputil.NewRequest(ctx, http.MethodGet, reqURL)
	if nil != err {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return httputil.Send(ctx, r.client, req)
}

// FetchPayload downloads the media payload at mediaURL.
func (r *Resolver) FetchPayload(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := httputil.NewRequest(ctx, http.MethodGet, mediaURL)
	if nil != err {
		return nil, err
	}

	res, err := httputil.Send(ctx, r.client, req)
	if nil != err {
		return nil, err
	}

	if code := res.StatusCode; code != http.StatusOK {
		return nil, &drtv.StatusError{StatusCode: code, Body: string(res.Body)}
	}
	return res.Body, nil
}
