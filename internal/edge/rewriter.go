package edge

import (
	"regexp"
	"strings"
)

// attrs matches the rest of a start tag up to its closing '>', skipping any
// '>' that sits inside a quoted attribute value
const attrs = `(?:[^>"']|"[^"]*"|'[^']*')*`

var (
	titleRe    = regexp.MustCompile(`(?is)<title(?:\s` + attrs + `)?>.*?</title\s*>`)
	headOpenRe = regexp.MustCompile(`(?i)<head(?:\s` + attrs + `)?>`)
	headEndRe  = regexp.MustCompile(`(?i)</head\s*>|<body[\s>]`)
	commentRe  = regexp.MustCompile(`(?s)<!--.*?-->`)
	escaper    = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")
)

// metaTag is one tracked <meta> element, keyed by its name= or property= attribute
type metaTag struct {
	attr    string
	key     string
	content string
}

func (m metaTag) render() string {
	return `<meta ` + m.attr + `="` + m.key + `" content="` + escapeAttr(m.content) + `">`
}

func (m metaTag) pattern() *regexp.Regexp {
	if re, ok := tagPatterns[m.key]; ok {
		return re
	}
	return metaPattern(m.key)
}

func metaPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)<meta(?:\s` + attrs + `?)?\s(?:name|property)\s*=\s*["']` + regexp.QuoteMeta(key) + `["']` + attrs + `>`)
}

var tagPatterns = func() map[string]*regexp.Regexp {
	keys := []string{
		"description", "og:title", "og:description", "og:image", "og:url", "og:site_name", "og:type",
		"twitter:card", "twitter:title", "twitter:description", "twitter:image", "twitter:site",
	}
	out := make(map[string]*regexp.Regexp, len(keys))
	for _, k := range keys {
		out[k] = metaPattern(k)
	}
	return out
}()

func escapeAttr(s string) string {
	return escaper.Replace(s)
}

// trackedTags lists the tags written for m, in document order
func trackedTags(m Metadata) []metaTag {
	tags := []metaTag{
		{"name", "description", m.Description},
		{"property", "og:title", m.Title},
		{"property", "og:description", m.Description},
		{"property", "og:image", m.ImageURL()},
		{"property", "og:url", m.SiteURL()},
		{"property", "og:site_name", m.Name},
		{"property", "og:type", "website"},
		{"name", "twitter:card", "summary_large_image"},
		{"name", "twitter:title", m.Title},
		{"name", "twitter:description", m.Description},
		{"name", "twitter:image", m.ImageURL()},
	}
	if handle := m.TwitterHandle(); handle != "" {
		tags = append(tags, metaTag{"name", "twitter:site", handle})
	}
	return tags
}

// maskComments blanks every HTML comment so that patterns never match inside
// one. The result has the same length as html, so offsets carry over.
func maskComments(html string) string {
	locs := commentRe.FindAllStringIndex(html, -1)
	if len(locs) == 0 {
		return html
	}
	b := []byte(html)
	for _, loc := range locs {
		for i := loc[0]; i < loc[1]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

// Rewrite replaces the document title and upserts the tracked meta tags.
// Existing tags are replaced in place; missing ones are inserted right after
// the opening <head> tag. Every value is attribute-escaped. Markup inside
// HTML comments is left alone.
func Rewrite(html string, m Metadata) string {
	out := replaceTitle(html, m.Title)

	var missing strings.Builder
	for _, tag := range trackedTags(m) {
		if replaced, ok := upsert(out, tag); ok {
			out = replaced
			continue
		}
		missing.WriteString(tag.render())
	}

	if missing.Len() == 0 {
		return out
	}
	loc := headOpenRe.FindStringIndex(maskComments(out))
	if loc == nil {
		return out
	}
	return out[:loc[1]] + missing.String() + out[loc[1]:]
}

// replaceTitle swaps the first <title> of the document head. Titles further
// down, such as those of inline SVG icons, keep their text.
func replaceTitle(html, title string) string {
	masked := maskComments(html)
	end := len(masked)
	if loc := headEndRe.FindStringIndex(masked); loc != nil {
		end = loc[0]
	}
	loc := titleRe.FindStringIndex(masked[:end])
	if loc == nil {
		return html
	}
	return html[:loc[0]] + "<title>" + escapeAttr(title) + "</title>" + html[loc[1]:]
}

// upsert replaces the first occurrence of tag and drops any duplicates
func upsert(html string, tag metaTag) (string, bool) {
	locs := tag.pattern().FindAllStringIndex(maskComments(html), -1)
	if len(locs) == 0 {
		return html, false
	}
	var b strings.Builder
	last := 0
	for i, loc := range locs {
		b.WriteString(html[last:loc[0]])
		if i == 0 {
			b.WriteString(tag.render())
		}
		last = loc[1]
	}
	b.WriteString(html[last:])
	return b.String(), true
}
