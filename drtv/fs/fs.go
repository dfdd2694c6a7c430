package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/drtvd/errutil"
)

type DownloadDir string

func From(d string) DownloadDir {
	return DownloadDir(d)
}

func (dir DownloadDir) path() string {
	return string(dir)
}

// Ensure creates the directory when it does not exist yet.
func (dir DownloadDir) Ensure() error {
	if err := os.MkdirAll(dir.path(), 0o0755); nil != err {
		flawP := flaw.P{"path": dir.path(), "err_debug_tree": errutil.Tree(err).FlawP()}
		return flaw.From(fmt.Errorf("failed to create download directory: %v", err)).Append(flawP)
	}
	return nil
}

// Video returns the output path of a converted item named name.
func (dir DownloadDir) Video(name string) string {
	return filepath.Join(dir.path(), LegalizeFilename(name)+".mp4")
}

var illegalFilenameChars = strings.NewReplacer(
	"<", "",
	">", "",
	":", "",
	`"`, "",
	"/", "",
	`\`, "",
	"|", "",
	"?", "",
	"*", "",
)

// LegalizeFilename drops characters that are not allowed in file names on
// common filesystems.
func LegalizeFilename(name string) string {
	return illegalFilenameChars.Replace(name)
}
