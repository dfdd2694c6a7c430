package auth

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/xeptore/drtvd/drtv"
	"github.com/xeptore/drtvd/errutil"
	"github.com/xeptore/drtvd/httputil"
	"github.com/xeptore/drtvd/log"
)

const deviceID = "632bdbff-d073-4b6c-85cb-76a0de00506d"

type TokenStore interface {
	// Load returns os.ErrNotExist when nothing was saved yet.
	Load() (string, error)
	Save(token string) error
}

// Session owns the bearer token shared by every component talking to the
// service. The token is only ever replaced by Refresh.
type Session struct {
	client    *http.Client
	store     TokenStore
	endpoints drtv.Endpoints
	logger    zerolog.Logger

	mux   sync.RWMutex
	token string

	refreshGate    sync.Mutex
	lastRefreshed  string
	lastRefreshErr error
}

func New(token string, client *http.Client, store TokenStore, endpoints drtv.Endpoints, logger zerolog.Logger) *Session {
	return &Session{
		client:         client,
		store:          store,
		endpoints:      endpoints,
		logger:         logger,
		mux:            sync.RWMutex{},
		token:          token,
		refreshGate:    sync.Mutex{},
		lastRefreshed:  "",
		lastRefreshErr: nil,
	}
}

// Acquire returns a session with the stored token, or with a token obtained
// from a fresh anonymous handshake when the store has none.
func Acquire(ctx context.Context, client *http.Client, store TokenStore, endpoints drtv.Endpoints, logger zerolog.Logger) (*Session, error) {
	token, err := store.Load()
	if nil == err {
		logger.Debug().Str("token", log.RedactString(token)).Msg("Loaded stored token")
		return New(token, client, store, endpoints, logger), nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Func(log.Flaw(err)).Msg("Failed to load stored token. Starting a new anonymous session")
	}

	token, err = handshake(ctx, client, endpoints)
	if nil != err {
		return nil, err
	}
	logger.Debug().Str("token", log.RedactString(token)).Msg("Started new anonymous session")

	if err := store.Save(token); nil != err {
		logger.Warn().Func(log.Flaw(err)).Msg("Failed to save token")
	}
	return New(token, client, store, endpoints, logger), nil
}

func (s *Session) Current() string {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.token
}

// Refresh replaces the token the service rejected. Concurrent callers
// rejecting the same token share a single refresh round trip and its result.
// A call whose rejected token was already replaced returns nil without
// contacting the service. On failure the held token is left untouched.
func (s *Session) Refresh(ctx context.Context, rejected string) error {
	if !s.refreshGate.TryLock() {
		s.refreshGate.Lock()
		if s.lastRefreshed == rejected {
			err := s.lastRefreshErr
			s.refreshGate.Unlock()
			return err
		}
		// The refresh we waited for replaced a different token, possibly
		// issuing the very token this caller got rejected with.
	}
	defer s.refreshGate.Unlock()

	s.mux.Lock()
	defer s.mux.Unlock()

	if s.token != rejected {
		return nil
	}

	token, err := refresh(ctx, s.client, s.endpoints, s.token)
	s.lastRefreshed, s.lastRefreshErr = rejected, err
	if nil != err {
		return err
	}
	s.token = token
	s.logger.Debug().Str("token", log.RedactString(token)).Msg("Token refreshed")

	if err := s.store.Save(token); nil != err {
		s.logger.Warn().Func(log.Flaw(err)).Msg("Failed to save refreshed token")
	}
	return nil
}

func handshake(ctx context.Context, client *http.Client, endpoints drtv.Endpoints) (string, error) {
	reqBody := map[string]any{
		"deviceId":   deviceID,
		"scopes":     []string{"Catalog"},
		"optout":     true,
		"cookieType": "Session",
	}
	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, endpoints.AnonymousSSOURL(), reqBody)
	if nil != err {
		if errutil.IsContext(ctx) {
			return "", err
		}
		return "", &HandshakeError{StatusCode: 0, Cause: err}
	}

	res, err := httputil.Send(ctx, client, req)
	if nil != err {
		if errutil.IsContext(ctx) {
			return "", err
		}
		return "", &HandshakeError{StatusCode: 0, Cause: err}
	}

	if code := res.StatusCode; code != http.StatusOK {
		return "", &HandshakeError{StatusCode: code, Cause: nil}
	}

	token := gjson.GetBytes(res.Body, "0.value")
	if token.Type != gjson.String || token.Str == "" {
		return "", &HandshakeError{StatusCode: res.StatusCode, Cause: &drtv.ShapeError{Path: "0.value"}}
	}
	return token.Str, nil
}

func refresh(ctx context.Context, client *http.Client, endpoints drtv.Endpoints, token string) (string, error) {
	req, err := httputil.NewJSONRequest(ctx, http.MethodPost, endpoints.RefreshURL(), map[string]string{"token": token})
	if nil != err {
		return "", err
	}

	res, err := httputil.Send(ctx, client, req)
	if nil != err {
		return "", err
	}

	if code := res.StatusCode; code != http.StatusOK {
		return "", &RefreshRejectedError{StatusCode: code, Body: string(res.Body)}
	}

	newToken := gjson.GetBytes(res.Body, "0.value")
	if newToken.Type != gjson.String || newToken.Str == "" {
		return "", &drtv.ShapeError{Path: "0.value"}
	}
	return newToken.Str, nil
}
