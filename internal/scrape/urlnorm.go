package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// websiteDenylist holds registrable domains that can never be a business
// website: the platform's own maps/search/static/redirect hosts plus a few
// large social/CDN domains that show up as decoy links.
var websiteDenylist = map[string]struct{}{
	"google.com":            {},
	"gstatic.com":           {},
	"googleapis.com":        {},
	"googleusercontent.com": {},
	"googleadservices.com":  {},
	"youtube.com":           {},
	"facebook.com":          {},
	"instagram.com":         {},
}

// Image URLs must look like business imagery, not user avatars or inline
// data. The indicator list is required (at least one must match); the
// denylist is absolute.
var imageIndicators = []string{
	"googleusercontent.com",
	"streetviewpixels",
	"places",
	"maps.gstatic.com",
	".jpg", ".jpeg", ".png", ".webp",
}

var imageDenylist = []string{
	"data:image",
	"blob:",
	"avatar",
	"profile",
}

var (
	// Size-restriction fragments on the image CDN, e.g. "=s100-k-no" or
	// "=w408-h306-k-no".
	sizeFragmentRe = regexp.MustCompile(`=s\d+-[^&]*`)
	dimsFragmentRe = regexp.MustCompile(`=w\d+-h\d+[^&]*`)
	sizeParamRe    = regexp.MustCompile(`=s\d+`)
)

// largeSizeParam requests a bigger rendition once restrictions are stripped.
const largeSizeParam = "s800"

// NormalizeWebsiteURL cleans a raw website href: unwraps redirect wrappers,
// upgrades missing schemes, validates the host, and rejects denylisted
// domains. Normalization is idempotent.
func NormalizeWebsiteURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	// Redirect wrapper: the real target sits in the q parameter.
	if strings.Contains(raw, "google.com/url?") {
		if wrapped, err := url.Parse(raw); err == nil {
			if q := wrapped.Query().Get("q"); q != "" {
				raw = q
			}
		}
	}

	if strings.HasPrefix(raw, "www.") {
		raw = "https://" + raw
	} else if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || !strings.Contains(u.Host, ".") {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}
	if _, denied := websiteDenylist[domain]; denied {
		return "", false
	}

	return raw, true
}

// IsLikelyImageURL is the validity precheck applied before any image URL
// cleaning.
func IsLikelyImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") && !strings.HasPrefix(raw, "//") {
		return false
	}

	lower := strings.ToLower(raw)
	for _, bad := range imageDenylist {
		if strings.Contains(lower, bad) {
			return false
		}
	}
	for _, indicator := range imageIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// NormalizeImageURL validates and cleans an image href: protocol-relative
// upgrade, size-restriction stripping on the image CDN, and a large-size
// request parameter appended when none remains.
func NormalizeImageURL(raw string) (string, bool) {
	if !IsLikelyImageURL(raw) {
		return "", false
	}

	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	if strings.Contains(raw, "googleusercontent.com") {
		raw = sizeFragmentRe.ReplaceAllString(raw, "")
		raw = dimsFragmentRe.ReplaceAllString(raw, "")

		if !strings.Contains(raw, "=") {
			raw += "=" + largeSizeParam
		} else if !sizeParamRe.MatchString(raw) {
			raw += "&s=800"
		}
	}

	return raw, true
}
