package domain

import (
	"net/url"
	"strings"
)

// DefaultThumbnail is shown when a source does not provide an image.
const DefaultThumbnail = "https://via.placeholder.com/100"

// Posting is a single job advertisement as seen during one cycle.
// Identity is the only field used for deduplication.
type Posting struct {
	Identity     string `json:"identity"`
	Title        string `json:"title"`
	Company      string `json:"company"`
	URL          string `json:"url,omitempty"`
	Description  string `json:"description,omitempty"`
	SourceName   string `json:"source"`
	PostedAt     string `json:"posted_at,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Thumbnail returns ThumbnailURL or the placeholder when it is empty.
func (p Posting) Thumbnail() string {
	if strings.TrimSpace(p.ThumbnailURL) == "" {
		return DefaultThumbnail
	}
	return p.ThumbnailURL
}

// FilterText is the text keyword filters look at.
func (p Posting) FilterText() string {
	if p.Description == "" {
		return p.Title
	}
	return p.Title + " " + p.Description
}

// trackingParams are query keys that vary per click, not per posting.
// Keys are compared lower-cased; any utm_ or trk prefixed key also counts.
var trackingParams = map[string]struct{}{
	"refid":             {},
	"trackingid":        {},
	"lipi":              {},
	"originalsubdomain": {},
	"eborigin":          {},
	"fbclid":            {},
	"gclid":             {},
	"msclkid":           {},
	"mc_cid":            {},
	"mc_eid":            {},
	"ref":               {},
	"referrer":          {},
}

func isTrackingParam(key string) bool {
	k := strings.ToLower(key)
	if strings.HasPrefix(k, "utm_") || strings.HasPrefix(k, "trk") {
		return true
	}
	_, ok := trackingParams[k]
	return ok
}

// CanonicalURL drops the fragment and tracking parameters so the same ad
// always maps to one identity. Other parameters often carry the posting id
// (viewjob?jk=, ?gh_jid=) and are kept, sorted by key.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '#'); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	q := u.Query()
	for k := range q {
		if isTrackingParam(k) {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

// Identity picks the dedup key for a posting: the canonical link when there
// is one, a source|company|title business key otherwise.
func Identity(link, source, company, title string) string {
	if c := CanonicalURL(link); c != "" {
		return c
	}
	return strings.Join([]string{
		strings.TrimSpace(source),
		strings.TrimSpace(company),
		strings.TrimSpace(title),
	}, "|")
}
