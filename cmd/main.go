package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gotd/td/tg"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"github.com/xeptore/flaw/v8"
	"gopkg.in/matryer/try.v1"

	"github.com/xeptore/drtvd/cache"
	"github.com/xeptore/drtvd/config"
	"github.com/xeptore/drtvd/constant"
	"github.com/xeptore/drtvd/ctxutil"
	"github.com/xeptore/drtvd/drtv"
	"github.com/xeptore/drtvd/drtv/auth"
	"github.com/xeptore/drtvd/drtv/catalog"
	"github.com/xeptore/drtvd/drtv/convert"
	"github.com/xeptore/drtvd/drtv/download"
	"github.com/xeptore/drtvd/drtv/fanout"
	"github.com/xeptore/drtvd/drtv/fs"
	"github.com/xeptore/drtvd/drtv/resolve"
	"github.com/xeptore/drtvd/errutil"
	"github.com/xeptore/drtvd/log"
	"github.com/xeptore/drtvd/must"
	"github.com/xeptore/drtvd/notify"
	"github.com/xeptore/drtvd/ratelimit"
	"github.com/xeptore/drtvd/tgutil"
	"github.com/xeptore/drtvd/waitqueue"
)

const (
	flagConfigFilePath = "config"
	flagLogLevel       = "log-level"
	flagLogFormat      = "log-format"
	flagOutDir         = "out"
	flagToken          = "token"
)

func main() {
	logger := log.NewPretty(os.Stdout).Level(zerolog.InfoLevel)
	if err := godotenv.Load(); nil != err {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug().Msg(".env file was not found")
		} else {
			logger.Fatal().Err(err).Msg("Failed to load .env file")
		}
	}

	sharedFlags := []cli.Flag{
		//nolint:exhaustruct
		&cli.StringFlag{
			Name:    flagOutDir,
			Aliases: []string{"o"},
			Usage:   "Output directory, overrides download_dir of the config",
		},
		//nolint:exhaustruct
		&cli.StringFlag{
			Name:    flagToken,
			Usage:   "Bearer token to use instead of the stored one",
			EnvVars: []string{"DRTV_TOKEN"},
		},
	}

	//nolint:exhaustruct
	app := &cli.App{
		Name:     "drtvd",
		Version:  constant.Version,
		Compiled: constant.CompileTime,
		Suggest:  true,
		Usage:    "DR TV downloader",
		Flags: []cli.Flag{
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:    flagConfigFilePath,
				Aliases: []string{"c"},
				Usage:   "Config file path",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagLogFormat,
				Usage: "Log format, pretty or json",
				Value: "pretty",
			},
			//nolint:exhaustruct
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "Log level",
				Value: zerolog.InfoLevel.String(),
			},
		},
		Commands: []*cli.Command{
			//nolint:exhaustruct
			{
				Name:      "download",
				Aliases:   []string{"d"},
				Usage:     "Download the items or shows at the given URLs",
				ArgsUsage: "URL...",
				Flags:     sharedFlags,
				Action:    runDownload,
			},
			//nolint:exhaustruct
			{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Read URLs from standard input, one per line",
				Flags:   sharedFlags,
				Action:  runInteractive,
			},
			//nolint:exhaustruct
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(cliCtx *cli.Context) error {
					_, err := fmt.Fprintf(cliCtx.App.Writer, "%s (compiled at %s)\n", constant.Version, constant.CompileTime.Format(time.RFC3339))
					return err
				},
			},
		},
	}

	if err := app.Run(os.Args); nil != err {
		if errors.Is(err, context.Canceled) {
			logger.Trace().Msg("Application was canceled")
			return
		}
		if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
			logger.Fatal().Func(log.Flaw(flawErr)).Msg("Application exited with flaw")
			return
		}
		logger.Fatal().Err(err).Msg("Application exited with error")
	}
}

func newLogger(cliCtx *cli.Context) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cliCtx.String(flagLogLevel))
	if nil != err {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %v", err)
	}
	switch format := cliCtx.String(flagLogFormat); format {
	case "pretty":
		return log.NewPretty(os.Stdout).Level(level), nil
	case "json":
		return log.NewPacked(os.Stdout).Level(level), nil
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log format %q", format)
	}
}

func loadConfig(cliCtx *cli.Context, logger zerolog.Logger) (*config.Config, error) {
	cfgEnv := os.Getenv("CONFIG")
	cfgFilePath := cliCtx.String(flagConfigFilePath)
	switch {
	case cfgFilePath != "" && cfgEnv != "":
		return nil, errors.New("config file path and config environment variable are both set. specify only one")
	case cfgFilePath != "":
		logger.Debug().Str("config_file_path", cfgFilePath).Msg("Loading config from file")
		cfg, err := config.FromFile(cfgFilePath)
		if nil != err {
			return nil, fmt.Errorf("failed to load config file: %v", err)
		}
		return cfg, nil
	case cfgEnv != "":
		logger.Debug().Msg("Loading config from environment variable")
		cfg, err := config.FromString(cfgEnv)
		if nil != err {
			return nil, fmt.Errorf("failed to load config from environment variable: %v", err)
		}
		return cfg, nil
	default:
		logger.Debug().Msg("No config was given. Using defaults")
		return config.Default(), nil
	}
}

func runDownload(cliCtx *cli.Context) error {
	links := cliCtx.Args().Slice()
	if len(links) == 0 {
		return errors.New("at least one URL is required")
	}
	return run(cliCtx, func(ctx context.Context, w *Worker) error {
		failed := lo.CountBy(links, func(link string) bool {
			return nil != w.process(ctx, link)
		})
		if errutil.IsContext(ctx) {
			return ctx.Err()
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d URLs could not be downloaded", failed, len(links))
		}
		return nil
	})
}

func runInteractive(cliCtx *cli.Context) error {
	return run(cliCtx, func(ctx context.Context, w *Worker) error {
		lines := make(chan string)
		go readLines(os.Stdin, lines)

		for {
			fmt.Fprint(os.Stdout, "Enter url: ")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				link := strings.TrimSpace(drtv.SanitizeLink(line))
				if link == "" {
					continue
				}
				_ = w.process(ctx, link)
			}
		}
	})
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func run(cliCtx *cli.Context, fn func(ctx context.Context, w *Worker) error) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := newLogger(cliCtx)
	if nil != err {
		return err
	}

	cfg, err := loadConfig(cliCtx, logger)
	if nil != err {
		return err
	}
	if outDir := cliCtx.String(flagOutDir); outDir != "" {
		cfg.DownloadDir = outDir
	}

	return withNotifier(ctx, cfg, logger, func(ctx context.Context, notifier fanout.Notifier) error {
		w, err := newWorker(ctx, cfg, cliCtx.String(flagToken), notifier, logger)
		if nil != err {
			return err
		}
		defer w.close()
		return fn(ctx, w)
	})
}

// withNotifier calls fn with the log notifier, plus the Telegram notifier when
// it is configured. Telegram events are given a grace period to be posted
// after ctx is done.
func withNotifier(ctx context.Context, cfg *config.Config, logger zerolog.Logger, fn func(context.Context, fanout.Notifier) error) error {
	logNotifier := notify.NewLog(logger.With().Str("module", "notify").Logger())
	if nil == cfg.Telegram {
		return fn(ctx, logNotifier)
	}

	var (
		appHash  = os.Getenv("TELEGRAM_APP_HASH")
		botToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	)
	appID, err := strconv.Atoi(os.Getenv("TELEGRAM_APP_ID"))
	if nil != err {
		return errors.New("failed to parse TELEGRAM_APP_ID environment variable to integer")
	}
	if appHash == "" || botToken == "" {
		return errors.New("TELEGRAM_APP_HASH and TELEGRAM_BOT_TOKEN environment variables are required when telegram is configured")
	}

	clientCtx, cancel := ctxutil.WithGracePeriod(ctx, config.NotifierDrainTimeout)
	defer cancel()

	tgLogger := logger.With().Str("module", "telegram").Logger()
	client := tgutil.NewClient(clientCtx, appID, appHash, cfg.Telegram.SessionFile)
	tgLogger.Debug().Msg("Telegram client initialized.")

	// The client runs on clientCtx so that queued events can still be posted
	// for a while after ctx is canceled.
	return client.Run(clientCtx, func(_ context.Context) error {
		if err := tgutil.AuthorizeBot(ctx, client, botToken, tgLogger); nil != err {
			return err
		}

		wq := waitqueue.New(clientCtx, waitqueue.Limits{
			PerInterval: ratelimit.TelegramMessagesPerInterval,
			Interval:    ratelimit.TelegramInterval,
			Gap:         ratelimit.TelegramMessageGap,
		})
		defer wq.Close()

		sender := notify.NewPeerSender(tg.NewClient(client), cfg.Telegram.TargetPeerID)
		sink := notify.NewTelegram(sender, wq, config.TelegramNotifierQueueSize, tgLogger)
		go sink.Run(clientCtx)

		fnErr := fn(ctx, notify.Multi{logNotifier, sink})

		drainCtx, drainCancel := context.WithTimeout(clientCtx, config.NotifierDrainTimeout)
		defer drainCancel()
		if err := sink.Close(drainCtx); nil != err {
			tgLogger.Warn().Err(err).Msg("Gave up waiting for queued events to be posted")
		}
		if dropped := sink.Dropped(); dropped > 0 {
			tgLogger.Warn().Int64("dropped", dropped).Msg("Some events were not posted")
		}
		return fnErr
	})
}

type Worker struct {
	fetcher *fanout.Fetcher
	saver   *download.Saver
	shows   *cache.Shows
	logger  zerolog.Logger
}

func newWorker(ctx context.Context, cfg *config.Config, token string, notifier fanout.Notifier, logger zerolog.Logger) (*Worker, error) {
	client := &http.Client{Timeout: cfg.HTTPTimeout} //nolint:exhaustruct
	endpoints := drtv.Endpoints{API: cfg.APIBaseURL, Site: cfg.SiteBaseURL}
	site, err := drtv.NewSite(endpoints.Site)
	if nil != err {
		return nil, err
	}

	authLogger := logger.With().Str("module", "auth").Logger()
	store := fs.TokenFile(cfg.TokenFile)
	var session *auth.Session
	if token != "" {
		session = auth.New(token, client, store, endpoints, authLogger)
	} else {
		s, err := auth.Acquire(ctx, client, store, endpoints, authLogger)
		if nil != err {
			return nil, err
		}
		session = s
	}

	shows := cache.NewShows(cfg.ShowCacheTTL)
	lister := catalog.New(client, endpoints, site, shows, logger.With().Str("module", "catalog").Logger())
	resolver := resolve.New(client, session, endpoints, logger.With().Str("module", "resolve").Logger())
	fetcher := fanout.New(site, lister, resolver, notifier, cfg.Concurrency, logger.With().Str("module", "fanout").Logger())
	converter := convert.New(cfg.FFmpegPath, logger.With().Str("module", "convert").Logger())
	saver := download.New(fs.From(cfg.DownloadDir), converter, notifier, logger.With().Str("module", "download").Logger())

	return &Worker{
		fetcher: fetcher,
		saver:   saver,
		shows:   shows,
		logger:  logger.With().Str("module", "worker").Logger(),
	}, nil
}

func (w *Worker) close() {
	w.shows.Stop()
}

// process fetches and saves everything link points to. Show-level failures
// that may be transient are retried.
func (w *Worker) process(ctx context.Context, link string) error {
	logger := w.logger.With().Str("link", link).Logger()
	flawP := flaw.P{"link": link}

	var outcomes []fanout.Outcome
	err := try.Do(func(attempt int) (retry bool, err error) {
		const maxAttempts = 3
		attemptRemained := attempt < maxAttempts
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * 3 * time.Second):
			}
		}
		res, err := w.fetcher.Fetch(ctx, link)
		if nil != err {
			switch {
			case errutil.IsContext(ctx):
				return false, ctx.Err()
			case errors.Is(err, context.DeadlineExceeded):
				return attemptRemained, context.DeadlineExceeded
			case errors.Is(err, drtv.ErrTooManyRequests):
				return attemptRemained, err
			case errutil.IsFlaw(err):
				return false, must.BeFlaw(err).Append(flawP)
			default:
				return false, err
			}
		}
		outcomes = res
		return false, nil
	})
	if nil != err {
		logURLError(logger, err)
		return err
	}

	results, err := w.saver.Save(ctx, outcomes)
	if nil != err {
		logURLError(logger, err)
		return err
	}

	failed := lo.CountBy(results, func(r download.Result) bool { return nil != r.Err })
	logger.Info().Int("saved", len(results)-failed).Int("failed", failed).Msg("Finished")
	if failed > 0 {
		return fmt.Errorf("%d of %d items failed", failed, len(results))
	}
	return nil
}

func logURLError(logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		logger.Debug().Msg("Canceled")
	case isAny(err, drtv.ErrUnverifiedURL, drtv.ErrUnrecognizedKind, drtv.ErrMalformedURL):
		logger.Error().Err(err).Msg("Invalid URL")
	case isAny(err, auth.ErrHandshakeFailed, auth.ErrRefreshRejected, auth.ErrUnauthorized):
		logger.Error().Err(err).Msg("Authentication failed")
	default:
		logger.Error().Func(log.Flaw(err)).Msg("Download failed")
	}
}

func isAny(err, target error, targets ...error) bool {
	_, ok := errutil.IsAny(err, target, targets...)
	return ok
}
