package errutil

import (
	"errors"
	"net/http"

	"github.com/xeptore/flaw/v8"
)

func HTTPResponseFlawPayload(res *http.Response) flaw.P {
	headers := make(flaw.P, len(res.Header))
	for k, v := range res.Header {
		headers[k] = v
	}
	return flaw.P{
		"status":         res.Status,
		"status_code":    res.StatusCode,
		"content_length": res.ContentLength,
		"proto":          res.Proto,
		"headers":        headers,
	}
}

// HTTPRequestFlawPayload never includes the Authorization header value.
func HTTPRequestFlawPayload(req *http.Request) flaw.P {
	_, hasAuth := req.Header["Authorization"]
	return flaw.P{
		"method":        req.Method,
		"url":           req.URL.String(),
		"authenticated": hasAuth,
	}
}

func IsFlaw(err error) bool {
	if flawErr := new(flaw.Flaw); errors.As(err, &flawErr) {
		return true
	}
	return false
}
