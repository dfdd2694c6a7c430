package fs

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/drtvd/errutil"
	"github.com/xeptore/drtvd/must"
)

// TokenFile persists the service bearer token across runs.
type TokenFile string

func (f TokenFile) path() string {
	return string(f)
}

type tokenFileContent struct {
	Token string `json:"token"`
}

// Load returns os.ErrNotExist when no token was saved yet.
func (f TokenFile) Load() (token string, err error) {
	file, err := os.OpenFile(f.path(), os.O_RDONLY, 0o0600)
	if nil != err {
		if errors.Is(err, os.ErrNotExist) {
			return "", os.ErrNotExist
		}
		flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
		return "", flaw.From(fmt.Errorf("failed to open token file: %v", err)).Append(flawP)
	}
	defer func() {
		if closeErr := file.Close(); nil != closeErr {
			flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(closeErr).FlawP()}
			closeErr = flaw.From(fmt.Errorf("failed to close token file: %v", closeErr)).Append(flawP)
			switch {
			case nil == err:
				token, err = "", closeErr
			default:
				err = must.BeFlaw(err).Join(closeErr)
			}
		}
	}()

	var c tokenFileContent
	if err := json.NewDecoder(file).Decode(&c); nil != err {
		flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
		return "", flaw.From(fmt.Errorf("failed to decode token file: %v", err)).Append(flawP)
	}
	if c.Token == "" {
		return "", flaw.From(errors.New("token file contains an empty token")).Append(flaw.P{"path": f.path()})
	}

	return c.Token, nil
}

func (f TokenFile) Save(token string) (err error) {
	file, err := os.OpenFile(f.path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_SYNC, 0o0600)
	if nil != err {
		flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to open token file: %v", err)).Append(flawP)
	}
	defer func() {
		if closeErr := file.Close(); nil != closeErr {
			flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(closeErr).FlawP()}
			closeErr = flaw.From(fmt.Errorf("failed to close token file: %v", closeErr)).Append(flawP)
			if nil != err {
				err = must.BeFlaw(err).Join(closeErr)
			} else {
				err = closeErr
			}
		}
	}()

	if err := json.NewEncoder(file).Encode(tokenFileContent{Token: token}); nil != err {
		flawP := flaw.P{"path": f.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to encode token file: %v", err)).Append(flawP)
	}
	return nil
}
