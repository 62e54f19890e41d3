package htmlutil

import (
	"bytes"
	"diningbot-backend/lib/textutil"
	"fmt"
	"regexp"
	"slices"
	"strings"

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
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		getTextRecursive(child, buffer)
	}
}

// Field describes where a value lives in a document.
type Field struct {
	// Name is used to identify the field in errors.
	Name string
	// Tag is the element tag, an empty tag matches any element.
	Tag string
	// Attrs filters elements by attribute value, the "class" filter
	// matches if the element has all of the given classes.
	Attrs map[string]string
	// Target is the attribute to read, if empty the text content of the
	// element is read instead.
	Target string
}

func quoteAttr(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return `"` + value + `"`
}

// Selector returns the css selector that matches the elements
// described by the field.
func (f Field) Selector() string {
	var out strings.Builder
	out.WriteString(f.Tag)

	keys := make([]string, 0, len(f.Attrs))
	for k := range f.Attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value := f.Attrs[key]
		if key == "class" {
			for _, class := range strings.Fields(value) {
				out.WriteString(".")
				out.WriteString(class)
			}
			continue
		}
		out.WriteString("[")
		out.WriteString(key)
		out.WriteString("=")
		out.WriteString(quoteAttr(value))
		out.WriteString("]")
	}

	if out.Len() == 0 {
		return "*"
	}
	return out.String()
}

func (f Field) String() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Selector()
}

const (
	ReasonElementNotFound   = "element_not_found"
	ReasonAttributeNotFound = "attribute_not_found"
	ReasonEmptyValue        = "empty_value"
	ReasonPatternNotFound   = "pattern_not_found"
	ReasonUnparseable       = "unparseable"
)

// ExtractionError is returned when an expected element, attribute or
// pattern is missing from a document.
type ExtractionError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract %s: %s: %s", e.Field, e.Reason, e.Err.Error())
	}
	return fmt.Sprintf("extract %s: %s", e.Field, e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Finder is implemented by both *goquery.Document and *goquery.Selection.
type Finder interface {
	Find(selector string) *goquery.Selection
}

// ParseDocument parses raw html, the returned error is an *ExtractionError.
func ParseDocument(contents []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(contents))
	if err != nil {
		return nil, &ExtractionError{Field: "document", Reason: ReasonUnparseable, Err: err}
	}
	return doc, nil
}

func readSelection(sel *goquery.Selection, field Field) (string, error) {
	if field.Target == "" {
		return textutil.CleanText(GetText(sel.Get(0))), nil
	}
	value, exists := sel.Attr(field.Target)
	if !exists {
		return "", &ExtractionError{Field: field.String(), Reason: ReasonAttributeNotFound}
	}
	return strings.TrimSpace(value), nil
}

// Extract reads the field out of the first matching element in the
// selection (or document), empty values are treated as missing.
func Extract(root Finder, field Field) (string, error) {
	sel := root.Find(field.Selector()).First()
	if sel.Length() == 0 {
		return "", &ExtractionError{Field: field.String(), Reason: ReasonElementNotFound}
	}
	value, err := readSelection(sel, field)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", &ExtractionError{Field: field.String(), Reason: ReasonEmptyValue}
	}
	return value, nil
}

// ExtractHtml parses `contents` and extracts a single field from it.
func ExtractHtml(contents []byte, field Field) (string, error) {
	doc, err := ParseDocument(contents)
	if err != nil {
		return "", err
	}
	return Extract(doc, field)
}

// ExtractAll reads the field out of every matching element in document
// order, elements without the target attribute or with empty values are
// skipped.
func ExtractAll(root Finder, field Field) []string {
	var out []string
	root.Find(field.Selector()).Each(func(_ int, sel *goquery.Selection) {
		value, err := readSelection(sel, field)
		if err != nil || value == "" {
			return
		}
		out = append(out, value)
	})
	return out
}

var (
	wordRun         = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	trailingNonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+$`)
)

// TailWord finds the first contiguous run of word characters within the
// last `n` characters of `value`. Trailing punctuation (closing parens,
// semicolons, quotes) is dropped before the tail is taken.
//
// ex. TailWord(`loadReserve(1234567890)`, 10) = "1234567890"
func TailWord(value string, n int) (string, bool) {
	value = trailingNonWord.ReplaceAllString(value, "")
	runes := []rune(value)
	if len(runes) > n {
		runes = runes[len(runes)-n:]
	}
	match := wordRun.FindString(string(runes))
	return match, match != ""
}

// ExtractTailWord extracts an attribute with Extract and then applies
// TailWord to it.
func ExtractTailWord(root Finder, field Field, n int) (string, error) {
	value, err := Extract(root, field)
	if err != nil {
		return "", err
	}
	word, ok := TailWord(value, n)
	if !ok {
		return "", &ExtractionError{Field: field.String(), Reason: ReasonPatternNotFound}
	}
	return word, nil
}
