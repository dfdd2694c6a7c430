package constant

import (
	_ "embed"
	"fmt"
	"strings"
	"time"
)

var (
	//go:embed version
	version     string
	Version     = strings.TrimSpace(version)
	compileTime = "2026-10-19T00:00:00Z" // overridden with -ldflags "-X github.com/xeptore/drtvd/constant.compileTime=..."
	CompileTime time.Time
)

func init() {
	t, err := time.Parse(time.RFC3339, compileTime)
	if nil != err {
		panic(fmt.Errorf("could not parse CompileTime constant %q. Make sure it is set in RFC3339 format at build time", compileTime))
	}
	CompileTime = t
}
