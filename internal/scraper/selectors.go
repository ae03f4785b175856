package scraper

// CSS selectors for the maps results list and detail panel.
const (
	FeedSelector       = `div[role="feed"]`
	CardSelector       = `.Nv2PK`
	CardNameSelector   = `.qBF1Pd`
	CardRatingSelector = `.MW4etd`
	CardReviewSelector = `.UY7F9`

	DetailPanelSelector   = `div[role="main"]`
	DetailAddressSelector = `button[data-item-id="address"]`
	DetailWebsiteSelector = `a[data-item-id="authority"]`
)

// cardIDAttributes are checked in order before falling back to the card's link.
var cardIDAttributes = []string{"data-result-id", "data-entity-id", "data-cid", "data-place-id"}

// cardLinkSelectors locate the anchor pointing at the place page.
var cardLinkSelectors = []string{
	`a[href*="/maps/place/"]`,
	`a[href*="maps/place"]`,
	`a[href*="maps?"]`,
	`a[href]`,
}

// detailHeadingSelectors locate the business name in the detail panel.
var detailHeadingSelectors = []string{
	`h1.DUwDvf`,
	`h1[class*="DUwDvf"]`,
	`div[role="main"] h1`,
}

// phoneSelectors are the structured phone controls, most specific first.
var phoneSelectors = []string{
	`button[data-item-id^="phone"]`,
	`button[data-item-id="phone"]`,
	`button[aria-label^="Phone"]`,
	`a[href^="tel:"]`,
	`div[data-item-id^="phone"]`,
}
