// Package videourl validates and normalizes URLs of the supported
// platforms (YouTube, Twitter/X, TikTok).
package videourl

import (
	"net/url"
	"slices"
	"strings"
)

var (
	youtubeBaseDomains = []string{"youtube.com"}
	youtubeExactHosts  = []string{"youtu.be"}
	twitterBaseDomains = []string{"twitter.com", "x.com"}
	tiktokBaseDomains  = []string{"tiktok.com"}
)

func normalizeHostname(hostname string) string {
	return strings.TrimSuffix(strings.ToLower(hostname), ".")
}

// hostnameMatches reports whether hostname is one of the exact hosts, one of
// the base domains, or a subdomain of a base domain.
func hostnameMatches(hostname string, baseDomains, exactHosts []string) bool {
	if slices.Contains(exactHosts, hostname) {
		return true
	}
	for _, base := range baseDomains {
		if hostname == base || strings.HasSuffix(hostname, "."+base) {
			return true
		}
	}
	return false
}

// IsValid reports whether rawurl is an http/https URL on one of the
// supported platforms.
func IsValid(rawurl string) bool {
	u, err := url.Parse(rawurl)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	hostname := normalizeHostname(u.Hostname())
	return hostnameMatches(hostname, youtubeBaseDomains, youtubeExactHosts) ||
		hostnameMatches(hostname, twitterBaseDomains, nil) ||
		hostnameMatches(hostname, tiktokBaseDomains, nil)
}

// Clean strips query parameters that destabilize yt-dlp: YouTube keeps only
// v, TikTok drops the whole query, Twitter/X passes through unchanged.
// Unparsable input is returned as-is.
func Clean(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return rawurl
	}
	hostname := normalizeHostname(u.Hostname())
	switch {
	case hostnameMatches(hostname, youtubeBaseDomains, youtubeExactHosts):
		q := u.Query()
		if vs, ok := q["v"]; ok {
			u.RawQuery = url.Values{"v": vs}.Encode()
			return u.String()
		}
	case hostnameMatches(hostname, tiktokBaseDomains, nil):
		u.RawQuery = ""
		return u.String()
	}
	return rawurl
}
