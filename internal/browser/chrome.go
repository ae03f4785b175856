package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const (
	textFn           = `function() { return this.innerText || this.textContent || ''; }`
	clickFn          = `function() { this.click(); return true; }`
	scrollIntoViewFn = `function() { this.scrollIntoView({block: 'center'}); return true; }`
	scrollBottomFn   = `function() { this.scrollTo(0, this.scrollHeight); return true; }`
)

// chromePage implements Page on top of a chromedp tab context.
type chromePage struct {
	tabCtx  context.Context
	release func()
	once    sync.Once
}

func newChromePage(tabCtx context.Context, release func()) *chromePage {
	return &chromePage{tabCtx: tabCtx, release: release}
}

// run executes actions on the tab, aborting them when either the caller's
// context or the tab itself is done.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(p.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (p *chromePage) Query(ctx context.Context, selector string) (Element, error) {
	nodes, err := p.nodes(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return &chromeElement{page: p, node: nodes[0]}, nil
}

func (p *chromePage) QueryAll(ctx context.Context, selector string) ([]Element, error) {
	nodes, err := p.nodes(ctx, selector, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &chromeElement{page: p, node: n})
	}
	return out, nil
}

func (p *chromePage) nodes(ctx context.Context, selector string, from *cdp.Node) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if from != nil {
		opts = append(opts, chromedp.FromNode(from))
	}
	if err := p.run(ctx, chromedp.Nodes(selector, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return nodes, nil
}

func (p *chromePage) ScrollViewport(ctx context.Context, dy int) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, 640, 400).
			WithDeltaX(0).
			WithDeltaY(float64(dy)).
			Do(ctx)
	}))
}

func (p *chromePage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.run(waitCtx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait visible %q: %w", selector, err)
	}
	return nil
}

func (p *chromePage) Close() error {
	p.once.Do(func() {
		if p.release != nil {
			p.release()
		}
	})
	return nil
}

// chromeElement implements Element for a node resolved on a chromePage.
type chromeElement struct {
	page *chromePage
	node *cdp.Node
}

// call invokes fn with `this` bound to the node and decodes the returned value into out.
func (e *chromeElement) call(ctx context.Context, fn string, out any) error {
	return e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("resolve node: %w", err)
		}
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("call function: %w", err)
		}
		if exc != nil {
			return fmt.Errorf("script exception: %s", exc.Text)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(res.Value), out)
	}))
}

func (e *chromeElement) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.call(ctx, textFn, &text); err != nil {
		return "", err
	}
	return text, nil
}

func (e *chromeElement) Attribute(ctx context.Context, name string) (string, error) {
	var value *string
	fn := fmt.Sprintf(`function() { return this.getAttribute(%q); }`, name)
	if err := e.call(ctx, fn, &value); err != nil {
		return "", err
	}
	if value == nil {
		return "", ErrNotFound
	}
	return *value, nil
}

func (e *chromeElement) Property(ctx context.Context, name string) (string, error) {
	var value *string
	fn := fmt.Sprintf(`function() { const v = this[%q]; return v == null ? null : String(v); }`, name)
	if err := e.call(ctx, fn, &value); err != nil {
		return "", err
	}
	if value == nil {
		return "", ErrNotFound
	}
	return *value, nil
}

func (e *chromeElement) Query(ctx context.Context, selector string) (Element, error) {
	nodes, err := e.page.nodes(ctx, selector, e.node)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return &chromeElement{page: e.page, node: nodes[0]}, nil
}

func (e *chromeElement) Click(ctx context.Context) error {
	return e.call(ctx, clickFn, nil)
}

func (e *chromeElement) ScrollIntoView(ctx context.Context) error {
	return e.call(ctx, scrollIntoViewFn, nil)
}

func (e *chromeElement) ScrollToBottom(ctx context.Context) error {
	return e.call(ctx, scrollBottomFn, nil)
}

var (
	_ Page    = (*chromePage)(nil)
	_ Element = (*chromeElement)(nil)
)
