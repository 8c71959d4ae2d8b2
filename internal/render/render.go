// Package render draws project layouts for export: PNG previews of the
// page and print-ready PDFs. All geometry comes in as unscaled page
// pixels straight from the layout.
package render

import (
	"fmt"
	"strings"
)

// CanvasPadding is the margin drawn around the page in exports, in page
// pixels.
const CanvasPadding = 48

// parseHexColor converts #rgb or #rrggbb to 8-bit channels. Malformed
// values fall back to the given default so one bad block cannot sink an
// export.
func parseHexColor(s, fallback string) (r, g, b int) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		if s == fallback {
			return 0, 0, 0
		}
		return parseHexColor(fallback, fallback)
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		if s == fallback {
			return 0, 0, 0
		}
		return parseHexColor(fallback, fallback)
	}
	return rv, gv, bv
}
