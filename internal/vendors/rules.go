package vendors

import (
	"fmt"
	"regexp"
	"strings"

	"sdsscan/internal/pipeline"
)

// Code identifies a document vendor. The documents directory holds one
// subdirectory per code.
type Code string

const (
	FW  Code = "FW"
	RF  Code = "RF"
	CAP Code = "CAP"
	FLV Code = "FLV"
	WF  Code = "WF"
	TPA Code = "TPA"
	MB  Code = "MB"
	INW Code = "INW"
	VTA Code = "VTA"
	FA  Code = "FA"
	FM  Code = "FM"
	HS  Code = "HS"
	NR  Code = "NR"
)

// order is the fixed processing order of vendor batches.
var order = []Code{FW, RF, CAP, FLV, WF, TPA, MB, INW, VTA, FA, FM, HS, NR}

// Codes returns every known vendor code in processing order.
func Codes() []Code {
	return append([]Code(nil), order...)
}

// ParseCode normalizes s and checks it against the vendor table.
func ParseCode(s string) (Code, error) {
	code := Code(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := rules[code]; !ok {
		return "", pipeline.Wrap(pipeline.ErrUnknownVendor, "vendors", "parse", fmt.Sprintf("code %q", s), nil)
	}
	return code, nil
}

// Strategy names how a rule locates the flavor name.
type Strategy int

const (
	// StrategyFilename applies the rule pattern to the document path.
	StrategyFilename Strategy = iota
	// StrategyBodyAnchor reads the name after a label inside the document text.
	StrategyBodyAnchor
	// StrategyReverseAnchor reads the line preceding the last product label.
	StrategyReverseAnchor
)

func (s Strategy) String() string {
	switch s {
	case StrategyFilename:
		return "filename"
	case StrategyBodyAnchor:
		return "body-anchor"
	case StrategyReverseAnchor:
		return "reverse-anchor"
	default:
		return "unknown"
	}
}

// extractFunc produces a raw flavor name or an error explaining the miss.
type extractFunc func(r Rule, doc Document) (string, error)

// Rule describes how one vendor's documents are named.
type Rule struct {
	Code     Code
	Strategy Strategy
	// Pattern is matched against the slash-separated document path relative
	// to the documents root, e.g. "MB/Lemon-Tart.pdf". Nil for body strategies.
	Pattern *regexp.Regexp
	// Group is the capture group holding the name for filename rules.
	Group int

	extract extractFunc
	post    []func(string) string
}

var rules = map[Code]Rule{
	FW: {
		Code:     FW,
		Strategy: StrategyFilename,
		Pattern:  regexp.MustCompile(`(?i)(FW-([A-Z0-9]+))?\s*([\w\s'&\\()-]+?)\s+FW-(?:[A-Z0-9]+)\.pdf$`),
		Group:    3,
		extract:  extractFW,
	},
	RF: filenameRule(RF, `([\w\s]+)[_,] Super Concentrate`),
	CAP: {
		Code:     CAP,
		Strategy: StrategyBodyAnchor,
		extract:  extractBodyAnchor,
	},
	FLV: filenameRule(FLV, `(?i)([\w-]+)-MSDS`, separatorTitle),
	WF:  filenameRule(WF, `Natural.*Artificial[\s-]([\w\s\-()]+)[\s-]Flavour[\s-]Liquid.*\.pdf$`),
	TPA: {
		Code:     TPA,
		Strategy: StrategyReverseAnchor,
		extract:  extractReverseAnchor,
	},
	MB: {
		Code:     MB,
		Strategy: StrategyFilename,
		Pattern:  regexp.MustCompile(`/([\w\s!-]+)\.pdf`),
		Group:    1,
		extract:  extractMB,
		post:     []func(string) string{separatorTitle},
	},
	INW: filenameRule(INW, `([\w\s]+)(\([0-9]\))?\.pdf`, stripConcentrate),
	VTA: filenameRule(VTA, `SDS-VTA-(.*)\.pdf`, separatorTitle),
	FA:  filenameRule(FA, `FA[0-9]+_(.+?)(\s+Flavor)?_[0-9]_.*\.pdf`),
	FM:  filenameRule(FM, `(?i)[0-9]+\s(.*)\sflavour.*`),
	HS:  filenameRule(HS, `[0-9]+\s(.*)\.pdf`),
	NR:  filenameRule(NR, `([\w\s]+)\s—\sNicRiv SDS\.pdf`),
}

func filenameRule(code Code, pattern string, post ...func(string) string) Rule {
	return Rule{
		Code:     code,
		Strategy: StrategyFilename,
		Pattern:  regexp.MustCompile(pattern),
		Group:    1,
		extract:  extractGroup,
		post:     post,
	}
}

// RuleFor returns the rule for code, or an ErrUnknownVendor error.
func RuleFor(code Code) (Rule, error) {
	rule, ok := rules[code]
	if !ok {
		return Rule{}, pipeline.Wrap(pipeline.ErrUnknownVendor, "vendors", "rule lookup", fmt.Sprintf("code %q", string(code)), nil)
	}
	return rule, nil
}

// Description is a one-line human summary of the rule, used by the vendors command.
func (r Rule) Description() string {
	var parts []string
	if r.Pattern != nil {
		parts = append(parts, fmt.Sprintf("group %d of %s", r.Group, r.Pattern.String()))
	}
	switch r.Strategy {
	case StrategyBodyAnchor:
		parts = append(parts, fmt.Sprintf("text after %q", capAnchor))
	case StrategyReverseAnchor:
		parts = append(parts, fmt.Sprintf("line before last %q or %q", tpaAnchor, tpaAltAnchor))
	}
	if len(r.post) > 0 {
		switch r.Code {
		case INW:
			parts = append(parts, "strip Conc.")
		default:
			parts = append(parts, "separators to spaces, title case")
		}
	}
	return strings.Join(parts, "; ")
}
