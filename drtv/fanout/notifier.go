package fanout

// Notifier observes per-item progress. Methods are called synchronously from
// the fetching goroutines and must not block.
type Notifier interface {
	DownloadStarted(id string)
	Finished(id string)
	Failed(id string, err error)
}

// ShowNotifier is implemented by notifiers that also want to know about a show
// once its items were listed, before any of them is fetched.
type ShowNotifier interface {
	ShowListed(showURL string, items int)
}

type NopNotifier struct{}

func (NopNotifier) DownloadStarted(string) {}
func (NopNotifier) Finished(string)        {}
func (NopNotifier) Failed(string, error)   {}

func (NopNotifier) ShowListed(string, int) {}
