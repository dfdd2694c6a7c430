package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/xeptore/drtvd/cache"
	"github.com/xeptore/drtvd/config"
	"github.com/xeptore/drtvd/drtv"
	"github.com/xeptore/drtvd/errutil"
	"github.com/xeptore/drtvd/httputil"
	"github.com/xeptore/drtvd/log"
)

const episodesPath = "item.episodes.items"

// Client enumerates the items of a show. Listing requests are anonymous.
type Client struct {
	client    *http.Client
	endpoints drtv.Endpoints
	site      *drtv.Site
	shows     *cache.Shows
	logger    zerolog.Logger
}

func New(client *http.Client, endpoints drtv.Endpoints, site *drtv.Site, shows *cache.Shows, logger zerolog.Logger) *Client {
	return &Client{
		client:    client,
		endpoints: endpoints,
		site:      site,
		shows:     shows,
		logger:    logger,
	}
}

// ShowEpisodes returns the item URLs of the show at showURL in display order.
func (c *Client) ShowEpisodes(ctx context.Context, showURL string) ([]string, error) {
	showURL = drtv.SanitizeLink(showURL)
	path, err := c.site.RelativePath(showURL)
	if nil != err {
		return nil, err
	}

	return c.shows.Fetch(showURL, func() ([]string, error) {
		return c.fetchWithRetry(ctx, path)
	})
}

func (c *Client) fetchWithRetry(ctx context.Context, path string) ([]string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = config.ShowListingRetryInterval
	b.MaxElapsedTime = config.ShowListingRetryElapsed

	attempt := 0
	operation := func() ([]string, error) {
		attempt++
		links, err := c.fetch(ctx, path)
		if nil != err {
			switch {
			case errutil.IsContext(ctx):
				return nil, backoff.Permanent(ctx.Err())
			case errors.Is(err, context.DeadlineExceeded):
				return nil, err
			case errors.Is(err, drtv.ErrUnexpectedShape):
				return nil, backoff.Permanent(err)
			case isTemporaryStatus(err):
				return nil, err
			case errutil.IsFlaw(err):
				return nil, err
			default:
				return nil, backoff.Permanent(err)
			}
		}
		return links, nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.
			Warn().
			Func(log.Flaw(err)).
			Str("path", path).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("Show listing request failed. Retrying")
	}

	return backoff.RetryNotifyWithData(operation, backoff.WithContext(b, ctx), notify)
}

func isTemporaryStatus(err error) bool {
	var statusErr *drtv.StatusError
	return errors.As(err, &statusErr) && statusErr.Temporary()
}

func (c *Client) fetch(ctx context.Context, path string) ([]string, error) {
	reqURL := c.endpoints.PageURL(path)
	req, err := httputil.NewRequest(ctx, http.MethodGet, reqURL)
	if nil != err {
		return nil, err
	}

	res, err := httputil.Send(ctx, c.client, req)
	if nil != err {
		return nil, err
	}

	if code := res.StatusCode; code != http.StatusOK {
		return nil, &drtv.StatusError{StatusCode: code, Body: string(res.Body)}
	}

	items := gjson.GetBytes(res.Body, episodesPath)
	if !items.IsArray() {
		return nil, &drtv.ShapeError{Path: episodesPath}
	}

	entries := items.Array()
	watchPaths := make([]string, 0, len(entries))
	for _, entry := range entries {
		watchPath := entry.Get("watchPath")
		if watchPath.Type != gjson.String || watchPath.Str == "" {
			return nil, &drtv.ShapeError{Path: episodesPath + ".#.watchPath"}
		}
		watchPaths = append(watchPaths, watchPath.Str)
	}

	return lo.Map(watchPaths, func(p string, _ int) string { return c.site.ItemURL(p) }), nil
}
