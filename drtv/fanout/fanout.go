package fanout

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/drtvd/drtv"
	"github.com/xeptore/drtvd/errutil"
	"github.com/xeptore/drtvd/log"
	"github.com/xeptore/drtvd/ratelimit"
)

// Outcome is the result of fetching a single item. Err is nil on success, in
// which case Item and Payload are set.
type Outcome struct {
	Index   int
	URL     string
	Item    drtv.Item
	Payload []byte
	Err     error
}

func (o Outcome) OK() bool {
	return nil == o.Err
}

// Failed returns the failed outcomes of outcomes.
func Failed(outcomes []Outcome) []Outcome {
	return lo.Filter(outcomes, func(o Outcome, _ int) bool { return !o.OK() })
}

type Lister interface {
	ShowEpisodes(ctx context.Context, showURL string) ([]string, error)
}

type Resolver interface {
	Resolve(ctx context.Context, id string) (string, error)
	FetchPayload(ctx context.Context, mediaURL string) ([]byte, error)
}

type Fetcher struct {
	site        *drtv.Site
	lister      Lister
	resolver    Resolver
	notifier    Notifier
	concurrency int
	logger      zerolog.Logger
}

// New returns a Fetcher running at most concurrency item fetches at once.
// A nil notifier is replaced by NopNotifier.
func New(site *drtv.Site, lister Lister, resolver Resolver, notifier Notifier, concurrency int, logger zerolog.Logger) *Fetcher {
	if nil == notifier {
		notifier = NopNotifier{}
	}
	return &Fetcher{
		site:        site,
		lister:      lister,
		resolver:    resolver,
		notifier:    notifier,
		concurrency: ratelimit.ClampConcurrency(concurrency),
		logger:      logger,
	}
}

// Fetch verifies and classifies rawURL and fetches the item, or every item of
// the show, it points to. URL errors are returned before anything is fetched.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]Outcome, error) {
	link := drtv.SanitizeLink(rawURL)
	if err := f.site.Verify(link); nil != err {
		return nil, err
	}

	kind, err := f.site.Classify(link)
	if nil != err {
		return nil, err
	}

	switch kind {
	case drtv.KindItem:
		return []Outcome{f.Item(ctx, link)}, nil
	case drtv.KindShow:
		return f.Show(ctx, link)
	default:
		panic("unsupported link kind to fetch: " + kind.String())
	}
}

// Show lists the items of showURL and fetches all of them concurrently. A
// listing failure fails the whole call. Otherwise the result holds exactly one
// outcome per listed item, in listing order, and item failures never stop
// other items.
func (f *Fetcher) Show(ctx context.Context, showURL string) ([]Outcome, error) {
	links, err := f.lister.ShowEpisodes(ctx, showURL)
	if nil != err {
		return nil, err
	}
	f.logger.Info().Str("show", showURL).Int("items", len(links)).Msg("Fetching show items")
	if n, ok := f.notifier.(ShowNotifier); ok {
		n.ShowListed(showURL, len(links))
	}

	outcomes := make([]Outcome, len(links))
	var wg errgroup.Group
	wg.SetLimit(f.concurrency)
	for i, link := range links {
		wg.Go(func() error {
			defer func() {
				if r := recover(); nil != r {
					f.logger.Error().Func(log.Panic(r)).Str("url", link).Int("index", i).Msg("Item fetch panicked")
					err := fmt.Errorf("item fetch panicked: %v", r)
					f.notifier.Failed(link, err)
					outcomes[i] = Outcome{Index: i, URL: link, Item: drtv.Item{}, Payload: nil, Err: err}
				}
			}()
			outcomes[i] = f.item(ctx, i, link)
			return nil
		})
	}
	_ = wg.Wait()

	failed := len(Failed(outcomes))
	f.logger.Info().Str("show", showURL).Int("succeeded", len(outcomes)-failed).Int("failed", failed).Msg("Show items fetched")
	return outcomes, nil
}

// Item fetches a single item. Failures are reported in the returned outcome.
func (f *Fetcher) Item(ctx context.Context, itemURL string) Outcome {
	return f.item(ctx, 0, itemURL)
}

func (f *Fetcher) item(ctx context.Context, index int, itemURL string) Outcome {
	itemURL = drtv.SanitizeLink(itemURL)
	logger := f.logger.With().Str("url", itemURL).Int("index", index).Logger()

	f.notifier.DownloadStarted(itemURL)
	item, payload, err := f.fetchItem(ctx, itemURL)
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			logger.Debug().Err(err).Msg("Item fetch ended by context")
		case errors.Is(err, context.DeadlineExceeded):
			logger.Error().Msg("Item fetch timed out")
		default:
			logger.Error().Func(log.Flaw(err)).Msg("Item fetch failed")
		}
		f.notifier.Failed(itemURL, err)
		return Outcome{Index: index, URL: itemURL, Item: item, Payload: nil, Err: err}
	}

	logger.Debug().Str("id", item.ID).Int("size", len(payload)).Msg("Item fetched")
	f.notifier.Finished(itemURL)
	return Outcome{Index: index, URL: itemURL, Item: item, Payload: payload, Err: nil}
}

func (f *Fetcher) fetchItem(ctx context.Context, itemURL string) (drtv.Item, []byte, error) {
	item, err := drtv.ParseItem(itemURL)
	if nil != err {
		return drtv.Item{}, nil, err
	}

	mediaURL, err := f.resolver.Resolve(ctx, item.ID)
	if nil != err {
		return item, nil, err
	}

	payload, err := f.resolver.FetchPayload(ctx, mediaURL)
	if nil != err {
		return item, nil, err
	}
	return item, payload, nil
}
