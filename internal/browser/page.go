package browser

import (
	"fmt"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	st "github.com/yourusername/community-manager/internal/stealth"
	"github.com/yourusername/community-manager/internal/ui"
)

// Page adapts a rod tab to ui.Page. Pointer moves go through one shared
// cursor so consecutive clicks start where the last one ended.
type Page struct {
	page   *rod.Page
	cursor *st.Cursor
}

func newPage(page *rod.Page) *Page {
	return &Page{page: page, cursor: st.NewCursor()}
}

// Query evaluates q once against the current DOM
func (p *Page) Query(q ui.Query) ([]ui.Element, error) {
	var (
		found rod.Elements
		err   error
	)
	switch q.Kind {
	case ui.XPath:
		found, err = p.page.ElementsX(q.Expr)
	default:
		found, err = p.page.Elements(q.Expr)
	}
	if err != nil {
		return nil, fmt.Errorf("%s query %q: %w", q.Kind, q.Expr, err)
	}

	els := make([]ui.Element, 0, len(found))
	for _, el := range found {
		els = append(els, &element{el: el, page: p})
	}
	return els, nil
}

// Press sends a single key to the focused element
func (p *Page) Press(key ui.Key) error {
	k, err := keyFor(key)
	if err != nil {
		return err
	}
	return p.page.Keyboard.Press(k)
}

// SelectAll sends Ctrl+A
func (p *Page) SelectAll() error {
	return p.page.KeyActions().Press(input.ControlLeft).Type(input.KeyA).Do()
}

// Screenshot writes a PNG of the viewport to path
func (p *Page) Screenshot(path string) error {
	data, err := p.page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func keyFor(key ui.Key) (input.Key, error) {
	switch key {
	case ui.KeyEnter:
		return input.Enter, nil
	case ui.KeyEscape:
		return input.Escape, nil
	case ui.KeyDelete:
		return input.Delete, nil
	case ui.KeyBackspace:
		return input.Backspace, nil
	}
	return 0, fmt.Errorf("unsupported key: %q", key)
}

type element struct {
	el   *rod.Element
	page *Page
}

func (e *element) Visible() (bool, error) {
	return e.el.Visible()
}

func (e *element) Attribute(name string) (string, bool, error) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (e *element) Text() (string, error) {
	return e.el.Text()
}

func (e *element) Click() error {
	return e.click(1)
}

func (e *element) DoubleClick() error {
	return e.click(2)
}

// click glides the cursor onto the element before pressing. A failed glide
// is not fatal; rod's own click still moves the pointer there.
func (e *element) click(count int) error {
	if err := e.el.ScrollIntoView(); err != nil {
		return fmt.Errorf("failed to scroll into view: %w", err)
	}
	if shape, err := e.el.Shape(); err == nil {
		if box := shape.Box(); box != nil {
			_ = e.page.cursor.MoveTo(e.page.page, center(box))
		}
	}
	return e.el.Click(proto.InputMouseButtonLeft, count)
}

func (e *element) ActivateScript() error {
	_, err := e.el.Eval(`() => this.click()`)
	return err
}

func (e *element) Focus() error {
	return e.el.Focus()
}

func (e *element) Type(text string) error {
	return e.el.Input(text)
}

func center(box *proto.DOMRect) st.Point {
	return st.Point{X: box.X + box.Width/2, Y: box.Y + box.Height/2}
}
