// Package browser defines the page-automation boundary used by the extraction
// engine and provides a chromedp-backed implementation with a bounded pool of
// isolated browser contexts.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a selector matches nothing or an attribute is absent.
var ErrNotFound = errors.New("element not found")

// Element is a handle to one DOM node on a page.
type Element interface {
	// Text returns the rendered text of the node.
	Text(ctx context.Context) (string, error)
	// Attribute returns the raw attribute value, or ErrNotFound when absent.
	Attribute(ctx context.Context, name string) (string, error)
	// Property reads a DOM property such as the resolved href of an anchor.
	Property(ctx context.Context, name string) (string, error)
	// Query returns the first descendant matching selector, or ErrNotFound.
	Query(ctx context.Context, selector string) (Element, error)
	Click(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	// ScrollToBottom scrolls a scrollable container to its full height.
	ScrollToBottom(ctx context.Context) error
}

// Page is one isolated browser tab owned by a single extraction session.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Query returns the first element matching selector, or ErrNotFound.
	Query(ctx context.Context, selector string) (Element, error)
	QueryAll(ctx context.Context, selector string) ([]Element, error)
	// ScrollViewport wheels the page by dy pixels.
	ScrollViewport(ctx context.Context, dy int) error
	// WaitVisible blocks until selector is visible or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Close releases the tab and returns its slot to the pool. It is safe to call twice.
	Close() error
}

// Provider hands out pages. Callers must Close every page they acquire.
type Provider interface {
	Acquire(ctx context.Context) (Page, error)
}
