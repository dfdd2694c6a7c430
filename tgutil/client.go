package tgutil

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/rs/zerolog"

	"github.com/xeptore/drtvd/constant"
)

var Device = telegram.DeviceConfig{
	DeviceModel:    "drtvd",
	SystemVersion:  runtime.GOOS + "/" + runtime.GOARCH,
	AppVersion:     constant.Version,
	SystemLangCode: "en",
	LangPack:       "",
	LangCode:       "en",
}

// NewClient returns a bot client persisting its session at sessionPath.
func NewClient(ctx context.Context, appID int, appHash, sessionPath string) *telegram.Client {
	//nolint:exhaustruct
	return telegram.NewClient(
		appID,
		appHash,
		telegram.Options{
			SessionStorage: &session.FileStorage{Path: sessionPath},
			MaxRetries:     -1,
			RetryInterval:  5 * time.Second,
			DialTimeout:    10 * time.Second,
			Device:         Device,
			Middlewares:    DefaultMiddlewares(ctx),
		},
	)
}

// AuthorizeBot logs client in as the bot identified by botToken unless the
// stored session is already authorized.
func AuthorizeBot(ctx context.Context, client *telegram.Client, botToken string, logger zerolog.Logger) error {
	status, err := client.Auth().Status(ctx)
	if nil != err {
		if errors.Is(ctx.Err(), context.Canceled) {
			return context.Canceled
		}
		return fmt.Errorf("failed to get Telegram client auth status: %v", err)
	}
	if status.Authorized {
		logger.Debug().Msg("Telegram client has already been authorized.")
		return nil
	}

	if _, err := client.Auth().Bot(ctx, botToken); nil != err {
		if errors.Is(ctx.Err(), context.Canceled) {
			return context.Canceled
		}
		return fmt.Errorf("failed to authorize Telegram bot: %v", err)
	}
	logger.Debug().Msg("Telegram client authorized.")
	return nil
}
