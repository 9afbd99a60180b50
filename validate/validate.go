// Package validate implements the URL and title validators, generalizing
// the teacher's Validator (app/validation/validation.go) from a loose
// substring host check into the exact allowlist + SSRF guard spec.md
// §4.A mandates.
package validate

import (
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/corvidlabs/vidsum/apperr"
	"github.com/corvidlabs/vidsum/config"
)

// Validator holds the configured protocol/host allowlist.
type Validator struct {
	cfg *config.URLConfig
}

func New(cfg *config.URLConfig) *Validator {
	return &Validator{cfg: cfg}
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateURL enforces spec.md §4.A items 1-5: parseable, allowed
// protocol, allowlisted host, no private-IPv4 literal, and a YouTube
// video-shape path carrying a non-empty video id.
func (v *Validator) ValidateURL(raw string) error {
	const op = "validate.ValidateURL"

	if raw == "" {
		return apperr.InvalidInput(op, nil, "url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return apperr.InvalidInput(op, err, "invalid url format")
	}

	if !protocolAllowed(parsed.Scheme, v.cfg.AllowedProtocols) {
		return apperr.InvalidInput(op, nil, "url scheme not allowed")
	}

	host := strings.ToLower(parsed.Hostname())
	if !hostAllowed(host, v.cfg.AllowedHosts) {
		return apperr.InvalidInput(op, nil, "host is not in the allowlist")
	}

	if isPrivateLiteral(host) {
		return apperr.InvalidInput(op, nil, "private network addresses are not allowed")
	}

	if extractVideoID(host, parsed.Path, parsed.RawQuery) == "" {
		return apperr.InvalidInput(op, nil, "url does not carry a recognizable video id")
	}

	return nil
}

// ValidateTitle enforces spec.md §4.A: 1-120 characters, no
// angle-bracketed substrings.
func (v *Validator) ValidateTitle(title string) error {
	const op = "validate.ValidateTitle"

	if len(title) == 0 || len(title) > 120 {
		return apperr.InvalidInput(op, nil, "title must be between 1 and 120 characters")
	}
	if strings.ContainsAny(title, "<>") {
		return apperr.InvalidInput(op, nil, "title must not contain angle brackets")
	}
	return nil
}

func protocolAllowed(scheme string, allowed []string) bool {
	scheme = strings.ToLower(scheme)
	for _, a := range allowed {
		if strings.ToLower(a) == scheme {
			return true
		}
	}
	return false
}

func hostAllowed(host string, allowed []string) bool {
	for _, a := range allowed {
		if strings.ToLower(a) == host {
			return true
		}
	}
	return false
}

// isPrivateLiteral rejects loopback and RFC1918 IPv4 literals used as the
// host component, per spec.md §4.A item 4.
func isPrivateLiteral(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	v4 := ip.To4()
	if v4 == nil {
		return ip.IsPrivate()
	}
	switch {
	case v4[0] == 10:
		return true
	case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
		return true
	case v4[0] == 192 && v4[1] == 168:
		return true
	}
	return false
}

// extractVideoID recognizes the watch/shorts/embed/short-link path shapes
// and returns the embedded video id, or "" if the URL doesn't match any
// of them.
func extractVideoID(host, path, rawQuery string) string {
	if host == "youtu.be" {
		id := strings.Trim(path, "/")
		if videoIDPattern.MatchString(id) {
			return id
		}
		return ""
	}

	query, _ := url.ParseQuery(rawQuery)

	switch {
	case path == "/watch":
		id := query.Get("v")
		if videoIDPattern.MatchString(id) {
			return id
		}
	case strings.HasPrefix(path, "/shorts/"):
		id := strings.TrimPrefix(path, "/shorts/")
		id = strings.SplitN(id, "/", 2)[0]
		if videoIDPattern.MatchString(id) {
			return id
		}
	case strings.HasPrefix(path, "/embed/"):
		id := strings.TrimPrefix(path, "/embed/")
		id = strings.SplitN(id, "/", 2)[0]
		if videoIDPattern.MatchString(id) {
			return id
		}
	}
	return ""
}
