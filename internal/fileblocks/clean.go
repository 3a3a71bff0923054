package fileblocks

import (
	"path"
	"regexp"
	"strings"
)

var (
	langTagRe = regexp.MustCompile(
		`(?i)^(json|javascript|typescript|html|css|python|bash|shell|jsx|tsx|js|ts|py)(\s+|[{(\['"!/<])`)

	fencedRe     = regexp.MustCompile("```(?:[\\w-]+)?\\s*([\\s\\S]*?)\\s*```")
	openFenceRe  = regexp.MustCompile("^```[\\w-]*\\s*")
	closeFenceRe = regexp.MustCompile("```\\s*$")

	doctypeRe         = regexp.MustCompile(`(?i)<!DOCTYPE html>`)
	trailingHTMLRe    = regexp.MustCompile(`(?i)</html>\s*$`)
	trailingCloseTags = regexp.MustCompile(`(?:\s*</[A-Za-z][A-Za-z0-9-]*\s*>)+\s*$`)

	headOpenRe = regexp.MustCompile(`(?i)<head[\s>]`)
	bodyOpenRe = regexp.MustCompile(`(?i)<body[\s>]`)
	htmlOpenRe = regexp.MustCompile(`(?i)<html[\s>]`)
)

// textExtensions get the generic trailing </html> cleanup.
var textExtensions = map[string]bool{
	".css": true, ".scss": true, ".js": true, ".mjs": true, ".cjs": true,
	".jsx": true, ".ts": true, ".tsx": true, ".vue": true, ".svelte": true,
	".py": true, ".md": true, ".txt": true, ".svg": true, ".xml": true,
	".yaml": true, ".yml": true, ".toml": true,
}

// CleanContent derives a file body from a raw new-file block, undoing the
// formatting noise models add around code: a bare language tag before the
// code, markdown fences, stray closing tags, text before the doctype.
func CleanContent(raw, filePath string) string {
	if raw == "" {
		return ""
	}
	ext := strings.ToLower(path.Ext(filePath))

	content := stripLanguageTag(strings.TrimSpace(raw), ext)

	if m := fencedRe.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	} else {
		content = openFenceRe.ReplaceAllString(content, "")
		content = closeFenceRe.ReplaceAllString(content, "")
	}

	switch {
	case ext == ".json":
		content = cleanJSON(content)
	case ext == ".html" || ext == ".htm":
		if loc := doctypeRe.FindStringIndex(content); loc != nil {
			content = content[loc[0]:]
		}
		content = closeDocument(strings.ReplaceAll(content, "```", ""))
	case textExtensions[ext]:
		content = trailingHTMLRe.ReplaceAllString(content, "")
	}

	return strings.TrimSpace(content)
}

func stripLanguageTag(content, ext string) string {
	m := langTagRe.FindStringSubmatch(content)
	if m == nil || ext == ".css" && !strings.Contains(m[2], "\n") {
		// "html {" is a selector in a stylesheet, not a tag.
		return content
	}
	sep := m[2]
	if strings.TrimSpace(sep) != "" {
		// Joined like "json{": keep the bracket.
		return strings.TrimSpace(content[len(m[1]):])
	}
	rest := content[len(m[0]):]
	if !strings.Contains(sep, "\n") && !startsWithCode(rest) {
		// Prose such as "Python is..." in a README.
		return content
	}
	return strings.TrimSpace(rest)
}

func startsWithCode(s string) bool {
	return s != "" && strings.ContainsRune("{(['\"!/<`", rune(s[0]))
}

func cleanJSON(content string) string {
	content = strings.TrimSpace(trailingCloseTags.ReplaceAllString(content, ""))

	start := strings.IndexAny(content, "{[")
	if start >= 0 {
		content = content[start:]
	}
	end := strings.LastIndexAny(content, "}]")
	if end >= 0 {
		content = content[:end+1]
	}
	return content
}

// closeDocument appends closing tags whose openers are present but whose
// closers never arrived.
func closeDocument(html string) string {
	lower := strings.ToLower(html)
	if headOpenRe.MatchString(lower) && !strings.Contains(lower, "</head>") {
		html += "\n</head>"
	}
	if bodyOpenRe.MatchString(lower) && !strings.Contains(lower, "</body>") {
		html += "\n</body>"
	}
	if htmlOpenRe.MatchString(lower) && !strings.Contains(lower, "</html>") {
		html += "\n</html>"
	}
	return html
}
