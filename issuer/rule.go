package issuer

import "regexp"

// Rule decides whether a source answers for an issuer URL.
type Rule interface {
	Match(issuerURL string) bool
}

// Exact matches one issuer URL verbatim.
type Exact string

func (e Exact) Match(issuerURL string) bool {
	return string(e) == issuerURL
}

// Pattern matches issuer URLs against a regular expression.
type Pattern struct {
	*regexp.Regexp
}

// MustPattern compiles expr into a Pattern and panics if it is invalid.
func MustPattern(expr string) Pattern {
	return Pattern{regexp.MustCompile(expr)}
}

func (p Pattern) Match(issuerURL string) bool {
	return p.Regexp != nil && p.MatchString(issuerURL)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc func(issuerURL string) bool

func (f RuleFunc) Match(issuerURL string) bool {
	return f(issuerURL)
}

func matchAny(rules []Rule, issuerURL string) bool {
	for _, r := range rules {
		if r.Match(issuerURL) {
			return true
		}
	}
	return false
}
