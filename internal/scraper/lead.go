package scraper

// Lead is one extracted business listing.
type Lead struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Rating    string `json:"rating,omitempty"`
	Reviews   string `json:"reviews"`
	Phone     string `json:"phone"`
	PhoneE164 string `json:"phone_e164,omitempty"`
	Address   string `json:"address"`
	Website   string `json:"website,omitempty"`
	Keyword   string `json:"keyword"`
	Location  string `json:"location"`
	// DetailMatched is false when the detail panel never showed this lead's name,
	// so address, phone and website may belong to a neighbouring listing.
	DetailMatched bool `json:"detail_matched"`
}

// Meta summarises how much of the results list a session covered.
type Meta struct {
	TotalCards     int `json:"totalCards"`
	ProcessedCount int `json:"processedCount"`
	SkippedCount   int `json:"skippedCount"`
	Remaining      int `json:"remaining"`
}

// SessionState is the lifecycle position of one extraction session.
type SessionState string

const (
	StateInit         SessionState = "init"
	StateBrowserReady SessionState = "browser_ready"
	StateNavigated    SessionState = "navigated"
	StateScrolling    SessionState = "scrolling"
	StateExtracting   SessionState = "extracting"
	StateDone         SessionState = "done"
	StateAborted      SessionState = "aborted"
)

// Result is returned by every session, including aborted ones.
type Result struct {
	Leads []Lead       `json:"leads"`
	Meta  Meta         `json:"meta"`
	State SessionState `json:"state"`
	Err   error        `json:"-"`
}

// IDs returns the non-empty lead ids, suitable as the next call's skip list.
func (r *Result) IDs() []string {
	ids := make([]string, 0, len(r.Leads))
	for _, l := range r.Leads {
		if l.ID != "" {
			ids = append(ids, l.ID)
		}
	}
	return ids
}
