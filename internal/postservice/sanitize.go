package postservice

import "regexp"

var scriptTagPattern = regexp.MustCompile(`(?is)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

func sanitizeMarkdown(markdown string) string {
	return scriptTagPattern.ReplaceAllString(markdown, "")
}
