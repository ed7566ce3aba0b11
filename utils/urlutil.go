package utils

import (
	"net"
	"net/url"
	"regexp"
	"strings"
)

const maxURLLength = 2048

var schemePrefix = regexp.MustCompile(`(?i)^https?://`)

// SanitizeURL trims whitespace, defaults the scheme to https when missing,
// and re-serializes the URL to canonical form. Fails when the result does
// not parse or exceeds the maximum length.
func SanitizeURL(rawURL string) (string, error) {
	sanitized := strings.TrimSpace(rawURL)
	if sanitized == "" {
		return "", ErrEmptyURL
	}

	if !schemePrefix.MatchString(sanitized) {
		sanitized = "https://" + sanitized
	}

	parsed, err := url.Parse(sanitized)
	if err != nil {
		return "", ErrInvalidURL
	}

	sanitized = parsed.String()
	if len(sanitized) > maxURLLength {
		return "", ErrURLTooLong
	}

	return sanitized, nil
}

// ValidateURL checks if the provided URL is valid and safe. When production
// is true, hostnames resolving to localhost, loopback or private ranges are
// rejected so the shortener cannot mask internal-network targets.
func ValidateURL(rawURL string, production bool) error {
	if rawURL == "" {
		return ErrEmptyURL
	}

	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return ErrInvalidURL
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return ErrInvalidScheme
	}

	if parsedURL.Host == "" {
		return ErrEmptyHost
	}

	if !production {
		return nil
	}

	hostname := parsedURL.Hostname()

	if isLocalhost(hostname) {
		return ErrLocalhostNotAllowed
	}

	if isPrivateIP(hostname) {
		return ErrPrivateIPNotAllowed
	}

	return nil
}

// isLocalhost checks if the hostname is localhost or loopback
func isLocalhost(hostname string) bool {
	localhost := []string{"localhost", "127.0.0.1", "::1", "0.0.0.0"}
	hostname = strings.ToLower(hostname)

	for _, local := range localhost {
		if hostname == local {
			return true
		}
	}

	return false
}

// isPrivateIP checks if the hostname is a private IP address
func isPrivateIP(hostname string) bool {
	ip := net.ParseIP(hostname)
	if ip == nil {
		return false
	}

	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"169.254.0.0/16", // Link-local
		"127.0.0.0/8",
		"fc00::/7",  // IPv6 ULA
		"fe80::/10", // IPv6 Link-local
	}

	for _, cidr := range privateRanges {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if ipNet.Contains(ip) {
			return true
		}
	}

	return false
}

// ExtractDomain returns the hostname of a URL, or "unknown" when it does
// not parse.
func ExtractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "unknown"
	}
	return parsed.Hostname()
}
