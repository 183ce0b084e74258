package content

import (
	"net/url"
	"strings"
)

// Platform identifies the source of a saved URL.
type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformYoutube   Platform = "youtube"
	PlatformTwitter   Platform = "twitter"
	PlatformReddit    Platform = "reddit"
	PlatformTiktok    Platform = "tiktok"
	PlatformLinkedin  Platform = "linkedin"
	PlatformPinterest Platform = "pinterest"
	PlatformWebsite   Platform = "website"
)

type platformPattern struct {
	platform Platform
	patterns []string
}

// Ordered: first match wins.
var platformPatterns = []platformPattern{
	{PlatformInstagram, []string{"instagram.com", "instagr.am"}},
	{PlatformYoutube, []string{"youtube.com", "youtu.be"}},
	{PlatformTwitter, []string{"twitter.com", "x.com"}},
	{PlatformReddit, []string{"reddit.com", "redd.it"}},
	{PlatformTiktok, []string{"tiktok.com"}},
	{PlatformLinkedin, []string{"linkedin.com"}},
	{PlatformPinterest, []string{"pinterest.com", "pin.it"}},
}

// DetectPlatform maps a URL to its platform tag. Unrecognized hosts are
// classified as "website"; there is no failure mode.
func DetectPlatform(rawURL string) Platform {
	lower := strings.ToLower(rawURL)
	for _, entry := range platformPatterns {
		for _, pattern := range entry.patterns {
			if strings.Contains(lower, pattern) {
				return entry.platform
			}
		}
	}
	return PlatformWebsite
}

// AllPlatforms returns the fixed platform enumeration in canonical order.
func AllPlatforms() []Platform {
	platforms := make([]Platform, 0, len(platformPatterns)+1)
	for _, entry := range platformPatterns {
		platforms = append(platforms, entry.platform)
	}
	return append(platforms, PlatformWebsite)
}

// IsValidURL reports whether raw parses as an absolute http(s) URL.
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
