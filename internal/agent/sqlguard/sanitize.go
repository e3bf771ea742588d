package sqlguard

import (
	"regexp"
	"strings"
)

var (
	lineCommentRe  = regexp.MustCompile(`--[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)

	singleQuotedRe = regexp.MustCompile(`'[^']*'`)
	doubleQuotedRe = regexp.MustCompile(`"[^"]*"`)
)

// Sanitize strips comments, collapses whitespace and drops a trailing
// statement separator. It runs before validation so smuggled trailing
// content cannot hide behind comment delimiters.
func Sanitize(sql string) string {
	sql = lineCommentRe.ReplaceAllString(sql, "")
	sql = blockCommentRe.ReplaceAllString(sql, "")
	sql = whitespaceRe.ReplaceAllString(sql, " ")
	sql = strings.TrimSpace(sql)
	sql = strings.TrimRight(sql, ";")
	return strings.TrimSpace(sql)
}

// stripQuotedLiterals removes quoted string literals so separator and keyword
// checks do not trip on legitimate data values.
func stripQuotedLiterals(sql string) string {
	sql = singleQuotedRe.ReplaceAllString(sql, "")
	return doubleQuotedRe.ReplaceAllString(sql, "")
}
