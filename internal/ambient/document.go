package ambient

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

// Target names one of the two watched host page elements.
type Target int

const (
	Root Target = iota // <html>
	Body               // <body>
)

// ParseTarget parses "root"/"html" or "body".
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "root", "html", "":
		return Root, nil
	case "body":
		return Body, nil
	}
	return Root, fmt.Errorf("ambient: unknown element %q (want root or body)", s)
}

// Document tracks the class attributes of a host page's <html> and <body>
// elements. Markup is parsed with goquery; classes can also be toggled
// directly the way a theme switch on the page would. Subscribers are
// notified only when a class list actually changes.
type Document struct {
	mu   sync.RWMutex
	root []string
	body []string
	subs subscribers
}

// NewDocument returns a document with no classes set.
func NewDocument() *Document {
	return &Document{}
}

// ParseDocument reads host page markup into a new Document.
func ParseDocument(r io.Reader) (*Document, error) {
	d := NewDocument()
	if err := d.SetHTML(r); err != nil {
		return nil, err
	}
	return d, nil
}

// SetHTML replaces the tracked classes with those found in the markup.
func (d *Document) SetHTML(r io.Reader) error {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("ambient: parse host page: %w", err)
	}
	root := strings.Fields(doc.Find("html").First().AttrOr("class", ""))
	body := strings.Fields(doc.Find("body").First().AttrOr("class", ""))
	d.replace(root, body)
	return nil
}

// Load reads host page markup from a file.
func (d *Document) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ambient: open host page: %w", err)
	}
	defer f.Close()
	return d.SetHTML(f)
}

// Classes implements ClassSource. The returned slices are copies.
func (d *Document) Classes() (root, body []string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.root), slices.Clone(d.body)
}

// SetClasses replaces the class list of one element.
func (d *Document) SetClasses(t Target, classes []string) {
	d.update(func(root, body []string) ([]string, []string) {
		if t == Body {
			return root, normalize(classes)
		}
		return normalize(classes), body
	})
}

// Replace sets both class lists in one step, notifying at most once.
func (d *Document) Replace(root, body []string) {
	d.replace(normalize(root), normalize(body))
}

// SetClass adds or removes a single class on one element.
func (d *Document) SetClass(t Target, class string, on bool) {
	toggle := func(list []string) []string {
		list = slices.DeleteFunc(list, func(c string) bool { return c == class })
		if on {
			list = append(list, class)
		}
		return list
	}
	d.update(func(root, body []string) ([]string, []string) {
		if t == Body {
			return root, toggle(body)
		}
		return toggle(root), body
	})
}

// ClearThemeClasses removes the dark and light markers from both elements,
// handing the decision back to the OS preference.
func (d *Document) ClearThemeClasses() {
	isMarker := func(c string) bool { return c == DarkClass || c == LightClass }
	d.update(func(root, body []string) ([]string, []string) {
		return slices.DeleteFunc(root, isMarker), slices.DeleteFunc(body, isMarker)
	})
}

// Subscribe implements ClassSource.
func (d *Document) Subscribe(fn func()) func() {
	return d.subs.add(fn)
}

// ActiveSubscriptions returns the number of live subscriptions.
func (d *Document) ActiveSubscriptions() int {
	return d.subs.count()
}

func (d *Document) replace(root, body []string) {
	d.update(func(_, _ []string) ([]string, []string) { return root, body })
}

// update applies fn to copies of the class lists under the lock and
// notifies subscribers afterwards if anything changed.
func (d *Document) update(fn func(root, body []string) ([]string, []string)) {
	d.mu.Lock()
	root, body := fn(slices.Clone(d.root), slices.Clone(d.body))
	changed := !slices.Equal(d.root, root) || !slices.Equal(d.body, body)
	d.root, d.body = root, body
	d.mu.Unlock()

	if changed {
		d.subs.notify()
	}
}

// normalize splits class attribute values and drops blanks.
func normalize(classes []string) []string {
	var out []string
	for _, c := range classes {
		out = append(out, strings.Fields(c)...)
	}
	return out
}
