package ui

import "embed"

// Files holds the page templates under html/ and the assets under static/.
//
//go:embed "html" "static"
var Files embed.FS
