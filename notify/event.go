package notify

import "fmt"

type Kind int

const (
	KindDownloadStarted Kind = iota + 1
	KindConverting
	KindFinished
	KindFailed
	KindConvertFailed
	KindShowListed
)

func (k Kind) String() string {
	switch k {
	case KindDownloadStarted:
		return "Downloading"
	case KindConverting:
		return "Converting"
	case KindFinished:
		return "Downloaded"
	case KindFailed:
		return "Failed"
	case KindConvertFailed:
		return "Conversion failed"
	case KindShowListed:
		return "Listed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is a single progress notification. ID is an item URL, or the show
// URL for KindShowListed events, which also carry the number of listed items.
type Event struct {
	Kind  Kind
	ID    string
	Path  string
	Items int
	Err   error
}

func (e Event) String() string {
	switch {
	case e.Kind == KindShowListed:
		return fmt.Sprintf("%s %s: %d items", e.Kind, e.ID, e.Items)
	case nil != e.Err:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.ID, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s %s to %s", e.Kind, e.ID, e.Path)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.ID)
	}
}
