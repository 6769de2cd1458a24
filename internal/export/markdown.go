// Package export renders cached annotations as portable documents.
package export

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/spacemark/pagecache/internal/domain"
	"github.com/spacemark/pagecache/internal/pageurl"
)

// Reader is the part of the cache an export reads.
type Reader interface {
	AnnotationsArray() []*domain.Annotation
	List(unifiedID string) *domain.List
}

// htmlTagPattern detects rich-text comments saved as HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|u|strong|em|a|ul|ol|li|h[1-6]|blockquote|code|pre)[\s>/]`)

// PageMarkdown renders the annotations of a page in display order. Highlights become block
// quotes, comments follow as markdown, and each entry lists the spaces it belongs to.
func PageMarkdown(c Reader, normalizedPageURL string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", normalizedPageURL)

	count := 0
	for _, a := range c.AnnotationsArray() {
		if !pageurl.Equal(a.NormalizedPageURL, normalizedPageURL) {
			continue
		}

		comment, err := commentMarkdown(a.Comment)
		if err != nil {
			return "", fmt.Errorf("convert comment of annotation %s: %w", a.UnifiedID, err)
		}

		b.WriteString("\n")
		if a.Body != "" {
			for line := range strings.SplitSeq(strings.TrimSpace(a.Body), "\n") {
				b.WriteString("> " + line + "\n")
			}
			if comment != "" {
				b.WriteString("\n")
			}
		}
		if comment != "" {
			b.WriteString(comment + "\n")
		}
		if names := listNames(c, a.UnifiedListIDs); len(names) > 0 {
			fmt.Fprintf(&b, "\nSpaces: %s\n", strings.Join(names, ", "))
		}
		count++
	}

	if count == 0 {
		b.WriteString("\nNo annotations.\n")
	}
	return b.String(), nil
}

func commentMarkdown(comment string) (string, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" || !htmlTagPattern.MatchString(strings.ToLower(comment)) {
		return comment, nil
	}
	markdown, err := htmltomarkdown.ConvertString(comment)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}

func listNames(c Reader, listIDs []string) []string {
	var names []string
	for _, id := range listIDs {
		if l := c.List(id); l != nil {
			names = append(names, l.Name)
		}
	}
	return names
}
