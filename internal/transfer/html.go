package transfer

import (
	"fmt"
	"html"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/nikbrunner/linkhub/internal/model"
	nethtml "golang.org/x/net/html"
)

// ExportHTML writes links as a Netscape bookmark file with one folder per
// category. Categories are sorted; links keep their given order.
func ExportHTML(links []model.Link) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>LinkHub</TITLE>\n")
	b.WriteString("<H1>LinkHub</H1>\n")
	b.WriteString("<DL><p>\n")

	byCategory := map[string][]model.Link{}
	for _, l := range links {
		byCategory[l.Category] = append(byCategory[l.Category], l)
	}
	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	slices.Sort(categories)

	for _, category := range categories {
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(category))
		b.WriteString("    <DL><p>\n")
		for _, l := range byCategory[category] {
			fmt.Fprintf(&b,
				"        <DT><A HREF=\"%s\" ADD_DATE=\"%d\">%s</A>\n",
				html.EscapeString(l.URL),
				l.CreatedAt/1000,
				html.EscapeString(l.Title),
			)
		}
		b.WriteString("    </DL><p>\n")
	}

	b.WriteString("</DL><p>\n")
	return b.String()
}

// ParseHTML reads a Netscape bookmark file. Each link's category is the
// name of its innermost folder, or the default category at the top level.
// Links without an href are skipped; a missing title falls back to the url.
func ParseHTML(r io.Reader) ([]model.Link, error) {
	doc, err := nethtml.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse bookmark html: %w", err)
	}

	links := []model.Link{}
	var folders []string
	var pending string

	var parse func(*nethtml.Node)
	parse = func(n *nethtml.Node) {
		if n.Type == nethtml.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				pending = textContent(n)
				return

			case "a":
				href := attr(n, "href")
				if href == "" {
					return
				}
				title := textContent(n)
				if title == "" {
					title = href
				}

				category := model.DefaultCategory
				if len(folders) > 0 {
					category = folders[len(folders)-1]
				}

				var createdAt int64
				if addDate := attr(n, "add_date"); addDate != "" {
					if ts, err := strconv.ParseInt(addDate, 10, 64); err == nil {
						createdAt = ts * 1000
					}
				}

				links = append(links, model.Link{
					Title:      title,
					URL:        href,
					Category:   category,
					CreatedAt:  createdAt,
					FaviconURL: model.FaviconURL(href),
				})
				return

			case "dl":
				pushed := false
				if pending != "" {
					folders = append(folders, pending)
					pending = ""
					pushed = true
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					parse(c)
				}
				if pushed {
					folders = folders[:len(folders)-1]
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			parse(c)
		}
	}

	parse(doc)
	return links, nil
}

func textContent(n *nethtml.Node) string {
	var text strings.Builder
	var extract func(*nethtml.Node)
	extract = func(n *nethtml.Node) {
		if n.Type == nethtml.TextNode {
			text.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(text.String())
}

// attr returns the value of an attribute, case-insensitive.
func attr(n *nethtml.Node, key string) string {
	key = strings.ToLower(key)
	for _, a := range n.Attr {
		if strings.ToLower(a.Key) == key {
			return a.Val
		}
	}
	return ""
}
