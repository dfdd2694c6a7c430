package notify

import (
	"github.com/xeptore/drtvd/drtv/download"
	"github.com/xeptore/drtvd/drtv/fanout"
)

// Multi forwards every event to each of its notifiers in order.
type Multi []fanout.Notifier

func (m Multi) DownloadStarted(id string) {
	for _, n := range m {
		n.DownloadStarted(id)
	}
}

func (m Multi) Converting(id, path string) {
	for _, n := range m {
		if cn, ok := n.(download.ConvertNotifier); ok {
			cn.Converting(id, path)
		}
	}
}

func (m Multi) ConvertFailed(id, path string, err error) {
	for _, n := range m {
		if cn, ok := n.(download.ConvertNotifier); ok {
			cn.ConvertFailed(id, path, err)
		}
	}
}

func (m Multi) ShowListed(showURL string, items int) {
	for _, n := range m {
		if sn, ok := n.(fanout.ShowNotifier); ok {
			sn.ShowListed(showURL, items)
		}
	}
}

func (m Multi) Finished(id string) {
	for _, n := range m {
		n.Finished(id)
	}
}

func (m Multi) Failed(id string, err error) {
	for _, n := range m {
		n.Failed(id, err)
	}
}
