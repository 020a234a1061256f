package vendors

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"sdsscan/internal/textutil"
)

// Document is the input of a name extraction.
type Document struct {
	// Path is slash-separated and relative to the documents root, e.g. "CAP/a/b.pdf".
	Path string
	Text string
}

// Extraction is the outcome of a name extraction. Name is never empty.
type Extraction struct {
	Name     string
	Fallback bool
	Warnings []string
}

const (
	capAnchor    = "Material name:"
	tpaAnchor    = "Product:\n"
	tpaAltAnchor = "Product Name:"
	tpaStopword  = "This"
)

var (
	capTerminator  = regexp.MustCompile(`MCT|TYPE|CA\d*`)
	capDescriptors = regexp.MustCompile(`(?i)Artificial|N&A|Nat & Art|Natural & Artificial|Flavor|Wonf($|\s)|Fl($|\s)|Nat($|\s)|Art($|\s)|Type($|\s)`)
	fwDescriptors  = regexp.MustCompile(`(Flavor|N&A|Artificial|Type)`)
	multiSpace     = regexp.MustCompile(`\s{2,}`)
	trailingNumber = regexp.MustCompile(`\s\d+$`)
	separators     = regexp.MustCompile(`[-_]+`)

	errNoMatch      = errors.New("filename pattern did not match")
	errEmptyName    = errors.New("extracted name is empty")
	errAnchorAbsent = errors.New("anchor phrase not found")
)

// Extract derives the flavor name for doc using the rule registered for code.
func Extract(code Code, doc Document) (Extraction, error) {
	rule, err := RuleFor(code)
	if err != nil {
		return Extraction{}, err
	}
	return rule.Extract(doc), nil
}

// Extract derives the flavor name for doc. When the rule cannot produce a
// name, the base filename is used and a warning is recorded.
func (r Rule) Extract(doc Document) Extraction {
	var out Extraction
	name, err := r.extract(r, doc)
	if err == nil && strings.TrimSpace(name) == "" {
		err = errEmptyName
	}
	if err != nil {
		name = fallbackName(doc.Path)
		out.Fallback = true
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: %v; using filename %q", r.Code, err, name))
	}
	for _, fn := range r.post {
		name = fn(name)
	}
	if strings.TrimSpace(name) == "" {
		name = fallbackName(doc.Path)
		out.Fallback = true
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s: normalized name is empty; using filename %q", r.Code, name))
	}
	out.Name = name
	return out
}

func fallbackName(docPath string) string {
	base := path.Base(docPath)
	if base == "." || base == "/" || base == "" {
		return "unknown"
	}
	return base
}

func extractGroup(r Rule, doc Document) (string, error) {
	m := r.Pattern.FindStringSubmatch(doc.Path)
	if m == nil || len(m) <= r.Group {
		return "", errNoMatch
	}
	return strings.TrimSpace(m[r.Group]), nil
}

func extractFW(r Rule, doc Document) (string, error) {
	m := r.Pattern.FindStringSubmatch(doc.Path)
	if len(m) <= 3 {
		return "", errNoMatch
	}
	name := fwDescriptors.ReplaceAllString(m[r.Group], "")
	return strings.TrimSpace(multiSpace.ReplaceAllString(name, " ")), nil
}

func extractMB(r Rule, doc Document) (string, error) {
	name, err := extractGroup(r, doc)
	if err != nil {
		return "", err
	}
	return strings.Replace(name, "-", " ", 1), nil
}

// extractBodyAnchor reads the text after "Material name:" up to the line
// break, or the first terminator token when the text has no line break.
func extractBodyAnchor(_ Rule, doc Document) (string, error) {
	idx := strings.Index(doc.Text, capAnchor)
	if idx < 0 {
		return "", errAnchorAbsent
	}
	rest := doc.Text[idx+len(capAnchor):]
	end := strings.IndexByte(rest, '\n')
	if end < 0 {
		if loc := capTerminator.FindStringIndex(rest); loc != nil {
			end = loc[0]
		} else {
			end = len(rest)
		}
	}
	raw := capDescriptors.ReplaceAllString(rest[:end], "")
	raw = multiSpace.ReplaceAllString(raw, " ")
	return textutil.TitleCase(strings.TrimSpace(strings.ToLower(raw))), nil
}

// extractReverseAnchor reads the line holding the last product label, or the
// line above it when the label starts its own line.
func extractReverseAnchor(_ Rule, doc Document) (string, error) {
	text := doc.Text
	end := strings.LastIndex(text, tpaAnchor)
	if end < 0 {
		end = strings.LastIndex(text, tpaAltAnchor)
	}
	if end < 0 {
		return "", errAnchorAbsent
	}
	start := strings.LastIndexByte(text[:end], '\n')
	raw := text[start+1 : end]
	if strings.TrimSpace(raw) == "" && start >= 0 {
		end = start
		start = strings.LastIndexByte(text[:end], '\n')
		raw = text[start+1 : end]
	}
	raw = trailingNumber.ReplaceAllString(strings.TrimRight(raw, " \t\r"), "")
	name := textutil.TitleCase(strings.TrimSpace(strings.ToLower(raw)))
	if name == tpaStopword {
		return "", fmt.Errorf("extracted stopword %q", name)
	}
	return name, nil
}

func separatorTitle(name string) string {
	name = separators.ReplaceAllString(name, " ")
	return textutil.TitleCase(strings.TrimSpace(strings.ToLower(name)))
}

func stripConcentrate(name string) string {
	return strings.TrimSpace(strings.Replace(name, "Conc.", "", 1))
}
