// Package uitest provides an in-memory ui.Page for exercising the engine
// without a browser.
//
// By default every query matches exactly one visible element, so a whole
// flow succeeds. Tests carve out failures by blocking query expressions
// (substring match) or by configuring elements as they are created.
package uitest

import (
	"errors"
	"strings"
	"sync"

	"github.com/yourusername/community-manager/internal/ui"
)

// Page is a fake ui.Page
type Page struct {
	mu sync.Mutex

	blocked  []string
	hidden   []string
	elements map[string]*Element
	order    []string

	// Configure, when set, is called once for every newly created element.
	// It runs under the page lock and must not call back into the Page.
	Configure func(e *Element)
	// OnPress, when set, is called after every key press
	OnPress func(k ui.Key)

	Queries     []ui.Query
	Presses     []ui.Key
	SelectAlls  int
	Screenshots []string
}

// NewPage returns a page on which every query matches
func NewPage() *Page {
	return &Page{elements: make(map[string]*Element)}
}

// Block makes queries whose expression contains any of substrs match nothing
func (p *Page) Block(substrs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blocked = append(p.blocked, substrs...)
}

// Unblock removes a previously blocked substring
func (p *Page) Unblock(substr string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.blocked[:0]
	for _, b := range p.blocked {
		if b != substr {
			kept = append(kept, b)
		}
	}
	p.blocked = kept
}

// Hide makes elements for matching expressions present but not visible
func (p *Page) Hide(substrs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hidden = append(p.hidden, substrs...)
}

// Element returns the element bound to expr, creating it on first use
func (p *Page) Element(expr string) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elementLocked(expr)
}

func (p *Page) elementLocked(expr string) *Element {
	if e, ok := p.elements[expr]; ok {
		return e
	}
	e := &Element{Expr: expr, page: p, Attrs: map[string]string{}}
	for _, h := range p.hidden {
		if strings.Contains(expr, h) {
			e.Hidden = true
		}
	}
	p.elements[expr] = e
	p.order = append(p.order, expr)
	if p.Configure != nil {
		p.Configure(e)
	}
	return e
}

// Elements returns every element created so far, in creation order
func (p *Page) Elements() []*Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Element, 0, len(p.order))
	for _, expr := range p.order {
		out = append(out, p.elements[expr])
	}
	return out
}

// Find returns the first created element whose expression contains substr
func (p *Page) Find(substr string) *Element {
	for _, e := range p.Elements() {
		if strings.Contains(e.Expr, substr) {
			return e
		}
	}
	return nil
}

// Query implements ui.Page
func (p *Page) Query(q ui.Query) ([]ui.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Queries = append(p.Queries, q)
	for _, b := range p.blocked {
		if strings.Contains(q.Expr, b) {
			return nil, nil
		}
	}
	return []ui.Element{p.elementLocked(q.Expr)}, nil
}

// Press implements ui.Page
func (p *Page) Press(k ui.Key) error {
	p.mu.Lock()
	p.Presses = append(p.Presses, k)
	hook := p.OnPress
	p.mu.Unlock()
	if hook != nil {
		hook(k)
	}
	return nil
}

// SelectAll implements ui.Page
func (p *Page) SelectAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SelectAlls++
	return nil
}

// Screenshot implements ui.Page
func (p *Page) Screenshot(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Screenshots = append(p.Screenshots, path)
	return nil
}

// PressCount counts presses of k
func (p *Page) PressCount(k ui.Key) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, pk := range p.Presses {
		if pk == k {
			n++
		}
	}
	return n
}

// Element is a fake ui.Element
type Element struct {
	Expr   string
	Hidden bool
	Label  string
	Attrs  map[string]string

	ClickErr       error
	DoubleClickErr error
	ScriptErr      error

	// OnActivate runs after any successful click variant
	OnActivate func()

	Clicks       int
	DoubleClicks int
	ScriptClicks int
	Focuses      int
	Typed        string

	page *Page
}

var errDetached = errors.New("element detached")

// Visible implements ui.Element
func (e *Element) Visible() (bool, error) {
	return !e.Hidden, nil
}

// Attribute implements ui.Element
func (e *Element) Attribute(name string) (string, bool, error) {
	v, ok := e.Attrs[name]
	return v, ok, nil
}

// Text implements ui.Element
func (e *Element) Text() (string, error) {
	return e.Label, nil
}

// Click implements ui.Element
func (e *Element) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	e.activated()
	return nil
}

// DoubleClick implements ui.Element
func (e *Element) DoubleClick() error {
	if e.DoubleClickErr != nil {
		return e.DoubleClickErr
	}
	e.DoubleClicks++
	e.activated()
	return nil
}

// ActivateScript implements ui.Element
func (e *Element) ActivateScript() error {
	if e.ScriptErr != nil {
		return e.ScriptErr
	}
	e.ScriptClicks++
	e.activated()
	return nil
}

// Focus implements ui.Element
func (e *Element) Focus() error {
	if e.page == nil {
		return errDetached
	}
	e.Focuses++
	return nil
}

// Type implements ui.Element
func (e *Element) Type(text string) error {
	e.Typed += text
	return nil
}

// Activations is the total of all click variants that succeeded
func (e *Element) Activations() int {
	return e.Clicks + e.DoubleClicks + e.ScriptClicks
}

func (e *Element) activated() {
	if e.OnActivate != nil {
		e.OnActivate()
	}
}
