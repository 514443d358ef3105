package transform

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// telegramTags are the inline tags Telegram's HTML parse mode accepts.
var telegramTags = map[string]bool{
	"b": true, "strong": true, "i": true, "em": true,
	"u": true, "s": true, "a": true, "code": true, "pre": true,
}

// blogTags are the block and inline tags the website renderer accepts.
var blogTags = map[string]bool{
	"p": true, "h2": true, "h3": true, "ul": true, "ol": true, "li": true,
	"b": true, "strong": true, "i": true, "em": true, "a": true,
	"blockquote": true, "br": true,
}

var multiBlank = regexp.MustCompile(`\n{3,}`)

// CleanForTelegram reduces arbitrary HTML to Telegram-safe markup: headings
// become bold lines, paragraphs become blank-line separated text, list items
// become bullet lines, everything else keeps only the allowed inline tags.
func CleanForTelegram(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(stripAllTags(raw))
	}

	var b strings.Builder
	renderTelegram(&b, doc)

	out := multiBlank.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

func renderTelegram(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "img", "figure", "iframe":
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n\n<b>")
			renderChildrenText(b, n)
			b.WriteString("</b>\n\n")
			return
		case "p", "div":
			b.WriteString("\n\n")
			renderChildren(b, n, renderTelegram)
			b.WriteString("\n\n")
			return
		case "br":
			b.WriteString("\n")
			return
		case "li":
			b.WriteString("\n• ")
			renderChildren(b, n, renderTelegram)
			return
		case "a":
			href := attr(n, "href")
			if href != "" {
				b.WriteString(`<a href="` + html.EscapeString(href) + `">`)
				renderChildren(b, n, renderTelegram)
				b.WriteString("</a>")
				return
			}
		case "b", "strong":
			b.WriteString("<b>")
			renderChildren(b, n, renderTelegram)
			b.WriteString("</b>")
			return
		case "i", "em":
			b.WriteString("<i>")
			renderChildren(b, n, renderTelegram)
			b.WriteString("</i>")
			return
		case "u", "s", "code", "pre":
			tag := n.Data
			b.WriteString("<" + tag + ">")
			renderChildren(b, n, renderTelegram)
			b.WriteString("</" + tag + ">")
			return
		}
	}
	renderChildren(b, n, renderTelegram)
}

// CleanForBlog keeps the website-allowed tag set and drops everything else,
// unwrapping unknown elements instead of deleting their text.
func CleanForBlog(raw string) string {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	var b strings.Builder
	renderBlog(&b, doc)
	return strings.TrimSpace(b.String())
}

func renderBlog(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(n.Data))
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "iframe":
			return
		}
		if blogTags[n.Data] {
			b.WriteString("<" + n.Data)
			if n.Data == "a" {
				if href := attr(n, "href"); href != "" {
					b.WriteString(` href="` + html.EscapeString(href) + `"`)
				}
			}
			b.WriteString(">")
			renderChildren(b, n, renderBlog)
			if n.Data != "br" {
				b.WriteString("</" + n.Data + ">")
			}
			return
		}
	}
	renderChildren(b, n, renderBlog)
}

func renderChildren(b *strings.Builder, n *html.Node, render func(*strings.Builder, *html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		render(b, c)
	}
}

func renderChildrenText(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(html.EscapeString(c.Data))
		} else {
			renderChildrenText(b, c)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)

func stripAllTags(s string) string {
	return tagRegex.ReplaceAllString(s, "")
}
