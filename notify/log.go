package notify

import (
	"github.com/rs/zerolog"

	"github.com/xeptore/drtvd/log"
)

// Log writes a line per event.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) DownloadStarted(id string) {
	l.logger.Info().Str("id", id).Msg("Downloading")
}

func (l *Log) Converting(id, path string) {
	l.logger.Info().Str("id", id).Str("path", path).Msg("Converting")
}

func (l *Log) ConvertFailed(id, path string, err error) {
	l.logger.Error().Str("id", id).Str("path", path).Func(log.Flaw(err)).Msg("Conversion failed")
}

func (l *Log) ShowListed(showURL string, items int) {
	l.logger.Info().Str("show", showURL).Int("items", items).Msg("Listed show")
}

func (l *Log) Finished(id string) {
	l.logger.Info().Str("id", id).Msg("Downloaded")
}

func (l *Log) Failed(id string, err error) {
	l.logger.Error().Str("id", id).Func(log.Flaw(err)).Msg("Failed")
}
