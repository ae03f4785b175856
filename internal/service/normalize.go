package service

import (
	"errors"
	"net/url"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/leads-extractor/internal/scraper"
)

var idnaProfile = idna.Lookup

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "ID"
)

// LeadNormalizer derives canonical forms of the contact fields of a lead.
type LeadNormalizer struct {
	DefaultRegion string
}

// NewLeadNormalizer builds a normalizer parsing local numbers in defaultRegion.
func NewLeadNormalizer(defaultRegion string) *LeadNormalizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	return &LeadNormalizer{DefaultRegion: region}
}

// Apply fills the derived fields of lead in place. Extracted values are kept as is.
func (n *LeadNormalizer) Apply(lead *scraper.Lead) {
	lead.PhoneE164 = normalizePhone(lead.Phone, n.DefaultRegion)
}

// CanonicalWebsite returns the website with tracking parameters removed and
// the host in its ASCII form, or "" when raw is not a usable URL.
func (n *LeadNormalizer) CanonicalWebsite(raw string) string {
	u, err := sanitizeURL(raw)
	if err != nil {
		return ""
	}
	stripTracking(u)
	return u.String()
}

// WebsiteHost returns the lower-case ASCII host of a website without a leading "www.".
func (n *LeadNormalizer) WebsiteHost(raw string) string {
	u, err := sanitizeURL(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("invalid url")
	}
	host, err := idnaProfile.ToASCII(strings.ToLower(strings.Trim(u.Hostname(), ".")))
	if err != nil || host == "" {
		return nil, errors.New("invalid host")
	}
	if port := u.Port(); port != "" {
		host += ":" + port
	}
	u.Host = host
	return u, nil
}

func stripTracking(u *url.URL) {
	if u == nil {
		return
	}
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}
