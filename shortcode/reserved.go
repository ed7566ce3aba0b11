package shortcode

import "strings"

// reservedWords are codes that cannot be claimed as custom aliases because
// they collide with service routes or common administrative paths.
var reservedWords = []string{
	// System routes
	"health",
	"metrics",
	"cache",
	"api",
	"v1",
	"v2",

	// Administrative
	"admin",
	"dashboard",
	"settings",
	"config",
	"status",

	// Analytics
	"stats",
	"analytics",
	"reports",
	"logs",

	// Documentation
	"docs",
	"help",
	"about",

	// Static assets
	"static",
	"assets",
	"public",

	// Features
	"qr",
	"shorten",
	"redirect",
	"short",
	"link",
	"url",

	// Common words to avoid confusion
	"home",
	"index",
	"root",
	"test",
	"example",
	"demo",
}

// IsReserved checks whether a code is in the reserved list. Case-insensitive.
func IsReserved(code string) bool {
	lower := strings.ToLower(code)
	for _, reserved := range reservedWords {
		if lower == reserved {
			return true
		}
	}
	return false
}
