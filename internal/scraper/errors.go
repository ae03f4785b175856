package scraper

import "errors"

var (
	// ErrBrowserUnavailable means no page could be acquired for the session.
	ErrBrowserUnavailable = errors.New("browser unavailable")
	// ErrNavigation means the search page could not be opened. It aborts the session.
	ErrNavigation = errors.New("navigation failed")
	// ErrListUnavailable means the results list could not be enumerated after scrolling.
	ErrListUnavailable = errors.New("results list unavailable")
)
