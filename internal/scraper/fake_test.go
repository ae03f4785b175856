package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/octobees/leads-extractor/internal/browser"
)

// fakeNode is an in-memory browser.Element.
type fakeNode struct {
	text           string
	attrs          map[string]string
	props          map[string]string
	children       map[string]*fakeNode
	onClick        func()
	onScrollBottom func()
}

func (n *fakeNode) Text(ctx context.Context) (string, error) { return n.text, nil }

func (n *fakeNode) Attribute(ctx context.Context, name string) (string, error) {
	if v, ok := n.attrs[name]; ok {
		return v, nil
	}
	return "", browser.ErrNotFound
}

func (n *fakeNode) Property(ctx context.Context, name string) (string, error) {
	if v, ok := n.props[name]; ok {
		return v, nil
	}
	return "", browser.ErrNotFound
}

func (n *fakeNode) Query(ctx context.Context, selector string) (browser.Element, error) {
	if child, ok := n.children[selector]; ok {
		return child, nil
	}
	return nil, browser.ErrNotFound
}

func (n *fakeNode) Click(ctx context.Context) error {
	if n.onClick != nil {
		n.onClick()
	}
	return nil
}

func (n *fakeNode) ScrollIntoView(ctx context.Context) error { return nil }

func (n *fakeNode) ScrollToBottom(ctx context.Context) error {
	if n.onScrollBottom != nil {
		n.onScrollBottom()
	}
	return nil
}

// fakeCard describes one listing: its compact entry and its detail panel.
type fakeCard struct {
	attrs   map[string]string
	href    string
	name    string
	rating  string
	reviews string
	text    string

	address   string
	phoneAria string
	telHref   string
	panel     string
	website   string

	// the panel keeps showing another listing for this many clicks
	mismatchClicks int
	clicks         int
}

// fakePage is an in-memory browser.Page over a list of cards.
type fakePage struct {
	cards   []*fakeCard
	growth  []int
	hasFeed bool
	navErr  error

	scrolls      int
	selected     *fakeCard
	navigatedTo  string
	closed       int
	onFirstClick func(p *fakePage)
	clicked      bool
}

func newFakePage(cards ...*fakeCard) *fakePage {
	return &fakePage{cards: cards, hasFeed: true}
}

func (p *fakePage) visible() int {
	if len(p.growth) == 0 {
		return len(p.cards)
	}
	idx := p.scrolls - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(p.growth) {
		idx = len(p.growth) - 1
	}
	return min(p.growth[idx], len(p.cards))
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.navErr != nil {
		return p.navErr
	}
	p.navigatedTo = url
	return nil
}

func (p *fakePage) cardNode(c *fakeCard) *fakeNode {
	children := map[string]*fakeNode{}
	if c.name != "" {
		children[CardNameSelector] = &fakeNode{text: c.name}
	}
	if c.rating != "" {
		children[CardRatingSelector] = &fakeNode{text: c.rating}
	}
	if c.reviews != "" {
		children[CardReviewSelector] = &fakeNode{text: c.reviews}
	}
	if c.href != "" {
		for _, sel := range cardLinkSelectors {
			children[sel] = &fakeNode{props: map[string]string{"href": c.href}}
		}
	}
	return &fakeNode{
		text:     c.text,
		attrs:    c.attrs,
		children: children,
		onClick: func() {
			c.clicks++
			p.selected = c
			if !p.clicked {
				p.clicked = true
				if p.onFirstClick != nil {
					p.onFirstClick(p)
				}
			}
		},
	}
}

func (p *fakePage) Query(ctx context.Context, selector string) (browser.Element, error) {
	if selector == FeedSelector {
		if !p.hasFeed {
			return nil, browser.ErrNotFound
		}
		return &fakeNode{onScrollBottom: func() { p.scrolls++ }}, nil
	}

	c := p.selected
	if c == nil {
		return nil, browser.ErrNotFound
	}
	switch selector {
	case detailHeadingSelectors[0]:
		if c.clicks > c.mismatchClicks {
			return &fakeNode{text: c.name}, nil
		}
		return &fakeNode{text: "Somewhere Else Entirely"}, nil
	case DetailAddressSelector:
		if c.address != "" {
			return &fakeNode{attrs: map[string]string{"aria-label": "Address: " + c.address}}, nil
		}
	case phoneSelectors[0]:
		if c.phoneAria != "" {
			return &fakeNode{
				attrs: map[string]string{"aria-label": c.phoneAria},
				props: map[string]string{"tagName": "BUTTON"},
			}, nil
		}
	case `a[href^="tel:"]`:
		if c.telHref != "" {
			return &fakeNode{props: map[string]string{"tagName": "A", "href": c.telHref}}, nil
		}
	case DetailPanelSelector:
		if c.panel != "" {
			return &fakeNode{text: c.panel}, nil
		}
	case DetailWebsiteSelector:
		if c.website != "" {
			return &fakeNode{props: map[string]string{"href": c.website}}, nil
		}
	}
	return nil, browser.ErrNotFound
}

func (p *fakePage) QueryAll(ctx context.Context, selector string) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if selector != CardSelector {
		return nil, nil
	}
	n := p.visible()
	out := make([]browser.Element, 0, n)
	for _, c := range p.cards[:n] {
		out = append(out, p.cardNode(c))
	}
	return out, nil
}

func (p *fakePage) ScrollViewport(ctx context.Context, dy int) error {
	p.scrolls++
	return nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if _, err := p.Query(ctx, selector); err != nil {
		return fmt.Errorf("wait visible %q: %w", selector, err)
	}
	return nil
}

func (p *fakePage) Close() error {
	p.closed++
	return nil
}

type fakeProvider struct {
	page     *fakePage
	err      error
	acquired int
}

func (f *fakeProvider) Acquire(ctx context.Context) (browser.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return f.page, nil
}

// recordingSleeper records requested delays without waiting.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func (r *recordingSleeper) count(d time.Duration) int {
	n := 0
	for _, got := range r.delays {
		if got == d {
			n++
		}
	}
	return n
}

func newTestEngine(page *fakePage) (*Engine, *recordingSleeper) {
	rec := &recordingSleeper{}
	engine := NewEngine(&fakeProvider{page: page}, DefaultOptions(), nil)
	engine.sleep = rec.sleep
	return engine, rec
}

// listing builds a card with an id, a structured address and a phone control.
func listing(cid, name, address, phone string) *fakeCard {
	c := &fakeCard{
		name:    name,
		rating:  "4.5",
		reviews: "(12)",
		address: address,
		text:    strings.Join([]string{name, "4.5(12)", address}, "\n"),
	}
	if cid != "" {
		c.attrs = map[string]string{"data-cid": cid}
	}
	if phone != "" {
		c.phoneAria = phone
	}
	return c
}
