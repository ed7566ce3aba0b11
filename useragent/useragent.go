// Package useragent classifies request context into the categorical fields
// stored on a click event. Classification runs once at write time and is
// never recomputed.
package useragent

import (
	"net/http"
	"strings"
)

// Device extracts the device type from a user agent string.
func Device(userAgent string) string {
	ua := strings.ToLower(userAgent)
	if strings.Contains(ua, "mobile") || strings.Contains(ua, "android") || strings.Contains(ua, "iphone") {
		return "Mobile"
	}
	if strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad") {
		return "Tablet"
	}
	return "Desktop"
}

// Browser extracts the browser family from a user agent string.
func Browser(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "safari"):
		return "Safari"
	case strings.Contains(ua, "edge"):
		return "Edge"
	default:
		return "Other"
	}
}

// OS extracts the operating system from a user agent string.
func OS(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "windows"):
		return "Windows"
	case strings.Contains(ua, "mac"):
		return "macOS"
	case strings.Contains(ua, "linux"):
		return "Linux"
	case strings.Contains(ua, "android"):
		return "Android"
	case strings.Contains(ua, "ios"), strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"):
		return "iOS"
	default:
		return "Other"
	}
}

// Country derives a country code for a request. The edge proxy sets
// CF-IPCountry when geolocation is available; without it the country is
// unknown.
func Country(r *http.Request) string {
	if country := r.Header.Get("CF-IPCountry"); country != "" && country != "XX" {
		return country
	}
	return "Unknown"
}
