package qr

import "encoding/base64"

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="300" height="300" viewBox="0 0 300 300">` +
	`<rect width="300" height="300" fill="#f3f4f6" stroke="#9ca3af" stroke-width="4"/>` +
	`<text x="150" y="140" font-family="sans-serif" font-size="18" text-anchor="middle" fill="#374151">QR unavailable</text>` +
	`<text x="150" y="170" font-family="sans-serif" font-size="14" text-anchor="middle" fill="#6b7280">use the .conf download</text>` +
	`</svg>`

// PlaceholderRef: SVG-заглушка вместо QR.
var PlaceholderRef = "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(placeholderSVG))
