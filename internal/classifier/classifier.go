// Package classifier decides, from a repository-relative path alone, whether a
// file is worth reading, what language it is, and how important it is.
//
// Every function here is pure: no I/O, no state. Paths are always
// slash-separated regardless of the host OS.
package classifier

import (
	"regexp"
	"strings"
)

// LanguageText is the fallback tag for unrecognised files.
const LanguageText = "text"

// excludedDirs are matched against whole path segments, never substrings.
var excludedDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	"dist":         {},
	"build":        {},
	".next":        {},
	".nuxt":        {},
	".output":      {},
	"coverage":     {},
	".cache":       {},
	"__pycache__":  {},
	".tox":         {},
	"vendor":       {},
	".venv":        {},
	"venv":         {},
	"target":       {},
	".idea":        {},
	".vscode":      {},
	".DS_Store":    {},
}

var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {}, ".svg": {}, ".webp": {},
	".mp3": {}, ".mp4": {}, ".wav": {}, ".avi": {}, ".mov": {}, ".mkv": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".rar": {}, ".7z": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {}, ".otf": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {},
	".pyc": {}, ".pyo": {}, ".class": {}, ".o": {}, ".obj": {},
	".lock": {}, ".map": {},
}

var extensionLanguages = map[string]string{
	".ts": "typescript", ".tsx": "tsx", ".js": "javascript", ".jsx": "jsx",
	".py": "python", ".rs": "rust", ".go": "go", ".java": "java",
	".rb": "ruby", ".php": "php", ".c": "c", ".cpp": "cpp", ".h": "c",
	".cs": "csharp", ".swift": "swift", ".kt": "kotlin", ".scala": "scala",
	".html": "html", ".css": "css", ".scss": "scss", ".less": "less",
	".json": "json", ".yaml": "yaml", ".yml": "yaml", ".toml": "toml",
	".xml": "xml", ".md": "markdown", ".mdx": "mdx",
	".sh": "bash", ".bash": "bash", ".zsh": "zsh",
	".sql": "sql", ".graphql": "graphql", ".proto": "protobuf",
	".dockerfile": "dockerfile", ".tf": "hcl",
	".vue": "vue", ".svelte": "svelte",
}

type priorityRule struct {
	pattern  *regexp.Regexp
	priority int
}

// priorityRules is evaluated top to bottom and the first match wins. Several
// patterns overlap, so the order is load-bearing.
var priorityRules = []priorityRule{
	// documentation
	{regexp.MustCompile(`(?i)^readme(\.(md|txt|rst))?$`), 0},
	{regexp.MustCompile(`(?i)^contributing(\.(md|txt|rst))?$`), 1},
	{regexp.MustCompile(`(?i)^architecture(\.(md|txt|rst))?$`), 1},
	{regexp.MustCompile(`(?i)^changelog(\.(md|txt|rst))?$`), 2},

	// package manifests
	{regexp.MustCompile(`^package\.json$`), 3},
	{regexp.MustCompile(`^cargo\.toml$`), 3},
	{regexp.MustCompile(`^go\.(mod|sum)$`), 3},
	{regexp.MustCompile(`^pyproject\.toml$`), 3},
	{regexp.MustCompile(`^requirements\.txt$`), 3},
	{regexp.MustCompile(`(?i)^gemfile$`), 3},
	{regexp.MustCompile(`^pom\.xml$`), 3},
	{regexp.MustCompile(`^build\.gradle(\.kts)?$`), 3},
	{regexp.MustCompile(`^composer\.json$`), 3},

	// build and tooling config
	{regexp.MustCompile(`^tsconfig(\..+)?\.json$`), 5},
	{regexp.MustCompile(`^next\.config\.(js|ts|mjs)$`), 5},
	{regexp.MustCompile(`^vite\.config\.(js|ts|mjs)$`), 5},
	{regexp.MustCompile(`^webpack\.config\.(js|ts)$`), 5},
	{regexp.MustCompile(`^\.env\.example$`), 5},
	{regexp.MustCompile(`^docker-compose\.ya?ml$`), 5},
	{regexp.MustCompile(`(?i)^dockerfile$`), 5},
	{regexp.MustCompile(`^\.eslintrc`), 7},
	{regexp.MustCompile(`^\.prettierrc`), 7},
	{regexp.MustCompile(`^tailwind\.config`), 6},

	// entry points
	{regexp.MustCompile(`^(index|main|app|server)\.(ts|js|tsx|jsx|py|go|rs)$`), 8},
	{regexp.MustCompile(`^src/(index|main|app)\.(ts|js|tsx|jsx)$`), 8},
	{regexp.MustCompile(`^(routes|router|middleware)\.(ts|js)$`), 10},
	{regexp.MustCompile(`^(schema|models?|types?)\.(ts|js|py|go|rs)$`), 10},

	// tests, included only if the budget allows
	{regexp.MustCompile(`\.(test|spec)\.(ts|js|tsx|jsx|py)$`), 50},
	{regexp.MustCompile(`^tests?/`), 50},
	{regexp.MustCompile(`^__tests__/`), 50},
	{regexp.MustCompile(`^specs?/`), 50},
}

// ShouldExclude reports whether any segment of path is a denylisted
// directory name. "vendor/x.go" is excluded, "vendor.ts" is not.
func ShouldExclude(path string) bool {
	for _, part := range strings.Split(path, "/") {
		if _, ok := excludedDirs[part]; ok {
			return true
		}
	}
	return false
}

// IsBinary reports whether path carries a binary, media, archive, font or
// lock-file extension. It never looks at content.
func IsBinary(path string) bool {
	_, ok := binaryExtensions[strings.ToLower(ext(path))]
	return ok
}

// DetectLanguage maps path to a language tag. An extension-less file named
// Dockerfile (any case) is "dockerfile"; anything unknown is "text".
func DetectLanguage(path string) string {
	e := strings.ToLower(ext(path))
	if e == "" && strings.ToLower(base(path)) == "dockerfile" {
		return "dockerfile"
	}
	if lang, ok := extensionLanguages[e]; ok {
		return lang
	}
	return LanguageText
}

// Priority scores path; lower is more important. The lowercased file name
// and the lowercased full path are both tried against each rule in order.
// With no rule matching, shallower files win: 20 + min(depth*2, 20).
func Priority(path string) int {
	filename := strings.ToLower(base(path))
	full := strings.ToLower(path)

	for _, rule := range priorityRules {
		if rule.pattern.MatchString(filename) || rule.pattern.MatchString(full) {
			return rule.priority
		}
	}

	return 20 + min(Depth(path)*2, 20)
}

// Depth is the number of segments in path; "README.md" has depth 1.
func Depth(path string) int {
	return strings.Count(path, "/") + 1
}

// ext returns the extension including the dot. Unlike filepath.Ext, a dot
// that starts the final segment is not an extension, so ".gitignore" and
// "a/.env" have none.
func ext(path string) string {
	lastDot := strings.LastIndex(path, ".")
	lastSlash := strings.LastIndex(path, "/")
	if lastDot <= lastSlash+1 {
		return ""
	}
	return path[lastDot:]
}

func base(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
