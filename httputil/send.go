package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/drtvd/errutil"
	"github.com/xeptore/drtvd/must"
)

// Response is a fully read HTTP response. FlawP describes the exchange and is
// meant to be appended to any flaw built from it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FlawP      flaw.P
}

func NewRequest(ctx context.Context, method, reqURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP := flaw.P{"url": reqURL, "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to create %s request: %v", method, err)).Append(flawP)
	}
	return req, nil
}

func NewJSONRequest(ctx context.Context, method, reqURL string, body any) (*http.Request, error) {
	b, err := json.Marshal(body)
	if nil != err {
		flawP := flaw.P{"url": reqURL, "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to encode request body: %v", err)).Append(flawP)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(b))
	if nil != err {
		if errutil.IsContext(ctx) {
			return nil, ctx.Err()
		}
		flawP := flaw.P{"url": reqURL, "err_debug_tree": errutil.Tree(err).FlawP()}
		return nil, flaw.From(fmt.Errorf("failed to create %s request: %v", method, err)).Append(flawP)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Send issues req and reads the whole response body regardless of the status
// code. Errors are ctx.Err(), context.DeadlineExceeded for client timeouts, or
// a *flaw.Flaw.
func Send(ctx context.Context, client *http.Client, req *http.Request) (res *Response, err error) {
	flawP := flaw.P{"request": errutil.HTTPRequestFlawPayload(req)}

	resp, err := client.Do(req)
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return nil, context.DeadlineExceeded
		default:
			flawP["err_debug_tree"] = errutil.Tree(err).FlawP()
			return nil, flaw.From(fmt.Errorf("failed to send request: %v", err)).Append(flawP)
		}
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			flawP["err_debug_tree"] = errutil.Tree(closeErr).FlawP()
			closeErr = flaw.From(fmt.Errorf("failed to close response body: %v", closeErr)).Append(flawP)
			switch {
			case nil == err:
				res, err = nil, closeErr
			case errutil.IsContext(ctx):
				err = flaw.From(errors.New("context was ended")).Join(closeErr)
			case errors.Is(err, context.DeadlineExceeded):
				err = flaw.From(errors.New("timeout has reached")).Join(closeErr)
			case errutil.IsFlaw(err):
				err = must.BeFlaw(err).Join(closeErr)
			default:
				panic(errutil.UnknownError(err))
			}
		}
	}()
	flawP["response"] = errutil.HTTPResponseFlawPayload(resp)

	respBytes, err := ReadOptionalResponseBody(ctx, resp)
	if nil != err {
		if errutil.IsFlaw(err) {
			return nil, must.BeFlaw(err).Append(flawP)
		}
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBytes,
		FlawP:      flawP,
	}, nil
}
