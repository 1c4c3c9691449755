// Package urlhygiene provides pure functions to canonicalize and admit
// URLs discovered during a crawl, with no knowledge of the frontier,
// robots policy or crawl engine that consume them.
package urlhygiene

import (
	"errors"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned by Canonicalize and Resolve when the input
// cannot be turned into a well-formed, supported URL.
var ErrInvalidURL = errors.New("urlhygiene: invalid url")

// maxURLLength is the longest URL Admissible will accept.
const maxURLLength = 2048

// defaultPorts maps a scheme to the port implied when none is given.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// mediaSuffixes lists path extensions treated as non-HTML binary
// resources and therefore inadmissible for crawling.
var mediaSuffixes = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "bmp": true,
	"svg": true, "ico": true, "webp": true, "pdf": true, "doc": true,
	"docx": true, "xls": true, "xlsx": true, "ppt": true, "pptx": true,
	"zip": true, "rar": true, "tar": true, "gz": true, "7z": true,
	"mp3": true, "mp4": true, "avi": true, "mov": true, "wmv": true,
	"flv": true, "wav": true, "exe": true, "dmg": true, "pkg": true,
	"deb": true, "rpm": true,
}

var rejectedSchemes = map[string]bool{
	"mailto":     true,
	"javascript": true,
	"tel":        true,
	"ftp":        true,
}

// Canonicalize normalizes raw into a stable string form: fragment
// stripped, scheme/host lowercased, default port dropped, empty path
// set to "/", a single trailing slash removed from non-root paths, and
// the query string preserved verbatim. It accepts any well-formed
// scheme; rejecting schemes unfit for crawling (non-http(s), ftp,
// mailto, ...) is Admissible's job, not Canonicalize's.
func Canonicalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidURL
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", ErrInvalidURL
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		return "", ErrInvalidURL
	}
	u.Scheme = scheme
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)

	if port := u.Port(); port != "" && port == defaultPorts[scheme] {
		u.Host = u.Hostname()
	}

	if u.Path == "" {
		u.Path = "/"
	} else if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// Resolve resolves ref against base per RFC 3986 relative resolution,
// then canonicalizes the result.
func Resolve(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", ErrInvalidURL
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", ErrInvalidURL
	}
	return Canonicalize(baseURL.ResolveReference(refURL).String())
}

// Admissible reports whether a canonical URL is eligible to be queued
// for crawling: http(s) scheme, no rejected pseudo-scheme, no binary
// media suffix, and under the maximum length.
func Admissible(raw string) bool {
	if len(raw) > maxURLLength {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	if rejectedSchemes[scheme] {
		return false
	}
	if scheme != "http" && scheme != "https" {
		return false
	}
	ext := pathExt(u.Path)
	if mediaSuffixes[ext] {
		return false
	}
	return true
}

// SameOrigin reports whether a and b share the same lowercase host.
func SameOrigin(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}

// pathExt returns the lowercase file extension (without the dot) of a
// URL path, or "" if there is none.
func pathExt(path string) string {
	slash := strings.LastIndex(path, "/")
	if slash >= 0 {
		path = path[slash+1:]
	}
	dot := strings.LastIndex(path, ".")
	if dot < 0 || dot == len(path)-1 {
		return ""
	}
	return strings.ToLower(path[dot+1:])
}
