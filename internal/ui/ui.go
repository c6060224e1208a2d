// Package ui defines the small surface of the browser session that the
// community engine drives. The real implementation lives in internal/browser;
// tests use internal/ui/uitest.
package ui

// QueryKind selects the locator language of a Query
type QueryKind int

const (
	CSS QueryKind = iota
	XPath
)

func (k QueryKind) String() string {
	if k == XPath {
		return "xpath"
	}
	return "css"
}

// Query is a single locator expression evaluated against the current DOM
type Query struct {
	Kind QueryKind
	Expr string
}

// Key is a named keyboard key the engine can press on the focused element
type Key string

const (
	KeyEnter     Key = "Enter"
	KeyEscape    Key = "Escape"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
)

// Element is a node returned by a Query
type Element interface {
	Visible() (bool, error)
	Attribute(name string) (string, bool, error)
	Text() (string, error)

	Click() error
	DoubleClick() error
	// ActivateScript triggers the element's click handler from page script
	ActivateScript() error

	Focus() error
	Type(text string) error
}

// Page is the live messaging client tab.
//
// Query must not wait or retry: it returns whatever matches at the instant
// of the call, possibly nothing.
type Page interface {
	Query(q Query) ([]Element, error)
	Press(key Key) error
	// SelectAll selects the full content of the focused field
	SelectAll() error
	Screenshot(path string) error
}
