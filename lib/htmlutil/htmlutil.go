package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var anyWhitespace = regexp.MustCompile(`\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CollapseWhitespace flattens runs of whitespace to single spaces.
// Whitespace is flattened before non-printables are stripped so that
// newline-separated words do not run together.
func CollapseWhitespace(s string) string {
	s = anyWhitespace.ReplaceAllString(s, " ")
	s = removeNonPrintable(s)
	return strings.Trim(s, " ")
}

// PageText returns the visible text of the whole document with text
// nodes joined by single spaces. Adjacent elements never run together
// the way goquery's Text() concatenation makes them.
func PageText(doc *goquery.Document) string {
	var buffer bytes.Buffer
	for _, n := range doc.Selection.Nodes {
		getTextSeparated(n, &buffer)
	}
	return CollapseWhitespace(buffer.String())
}

func getTextSeparated(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		buffer.WriteString(" ")
		return
	}
	// script and style text is not rendered
	if node.Type == html.ElementNode && (node.Data == "script" || node.Data == "style") {
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextSeparated(child, buffer)
		child = child.NextSibling
	}
}

// ControlTexts returns the labels of the page's interactive elements:
// <button> and <a> contents plus the value attribute of submit and
// button <input>s. Purchase controls often carry the stock wording
// that the page body itself omits.
func ControlTexts(doc *goquery.Document) []string {
	var texts []string
	doc.Find("button, a").Each(func(_ int, sel *goquery.Selection) {
		for _, n := range sel.Nodes {
			text := CollapseWhitespace(GetText(n))
			if text != "" {
				texts = append(texts, text)
			}
		}
	})
	doc.Find("input").Each(func(_ int, sel *goquery.Selection) {
		kind, _ := sel.Attr("type")
		if kind != "submit" && kind != "button" {
			return
		}
		value, _ := sel.Attr("value")
		value = CollapseWhitespace(value)
		if value != "" {
			texts = append(texts, value)
		}
	})
	return texts
}
