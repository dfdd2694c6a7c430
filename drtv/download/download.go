package download

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/xeptore/drtvd/drtv/fanout"
	"github.com/xeptore/drtvd/drtv/fs"
	"github.com/xeptore/drtvd/errutil"
	"github.com/xeptore/drtvd/log"
)

type Converter interface {
	Convert(ctx context.Context, payload []byte, outPath string) error
}

// ConvertNotifier is implemented by notifiers that also want to follow items
// being written to disk. Fetching already ended with Finished for these items,
// so conversion failures are reported here and never through Failed.
type ConvertNotifier interface {
	Converting(id, path string)
	ConvertFailed(id, path string, err error)
}

// Result is the outcome of saving a single fetched item.
type Result struct {
	URL  string
	Path string
	Err  error
}

type Saver struct {
	dir       fs.DownloadDir
	converter Converter
	notifier  fanout.Notifier
	logger    zerolog.Logger
}

func New(dir fs.DownloadDir, converter Converter, notifier fanout.Notifier, logger zerolog.Logger) *Saver {
	if nil == notifier {
		notifier = fanout.NopNotifier{}
	}
	return &Saver{
		dir:       dir,
		converter: converter,
		notifier:  notifier,
		logger:    logger,
	}
}

// Save converts the successful outcomes one at a time into the download
// directory. Failed outcomes are carried over without touching the disk.
func (s *Saver) Save(ctx context.Context, outcomes []fanout.Outcome) ([]Result, error) {
	if err := s.dir.Ensure(); nil != err {
		return nil, err
	}

	results := make([]Result, len(outcomes))
	for i, o := range outcomes {
		if !o.OK() {
			results[i] = Result{URL: o.URL, Path: "", Err: o.Err}
			continue
		}
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}

		path := s.dir.Video(o.Item.Name)
		cn, notifies := s.notifier.(ConvertNotifier)
		if notifies {
			cn.Converting(o.URL, path)
		}

		logger := s.logger.With().Str("url", o.URL).Str("path", path).Logger()
		if err := s.converter.Convert(ctx, o.Payload, path); nil != err {
			switch {
			case errutil.IsContext(ctx):
				return nil, ctx.Err()
			case errors.Is(err, context.DeadlineExceeded):
				logger.Error().Msg("Item conversion timed out")
			default:
				logger.Error().Func(log.Flaw(err)).Msg("Item conversion failed")
			}
			if notifies {
				cn.ConvertFailed(o.URL, path, err)
			}
			results[i] = Result{URL: o.URL, Path: "", Err: err}
			continue
		}

		logger.Info().Msg("Item saved")
		results[i] = Result{URL: o.URL, Path: path, Err: nil}
	}
	return results, nil
}
