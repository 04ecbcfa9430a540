package tenant

import (
	"net/url"
	"strings"
)

// NormalizeDSN percent-encodes the password segment of a URL-style
// connection descriptor so credentials containing characters like '#'
// produce a parseable URL. Scheme, user, host and path are preserved.
// It is applied once when a descriptor is stored, not per request.
func NormalizeDSN(dsn string) string {
	i := strings.Index(dsn, "://")
	if i < 0 {
		// Keyword/value descriptors need no normalizing.
		return dsn
	}
	scheme, rest := dsn[:i+3], dsn[i+3:]

	authority := rest
	tail := ""
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		authority, tail = rest[:slash], rest[slash:]
	}

	// The password may itself contain '@', so split on the last one.
	at := strings.LastIndexByte(authority, '@')
	if at < 0 {
		return dsn
	}
	userinfo, host := authority[:at], authority[at+1:]

	colon := strings.IndexByte(userinfo, ':')
	if colon < 0 {
		return dsn
	}
	user, pass := userinfo[:colon], userinfo[colon+1:]

	return scheme + url.UserPassword(user, pass).String() + "@" + host + tail
}
