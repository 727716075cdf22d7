// Package signature classifies attacker input against the fixed catalogs of
// known attack patterns. Catalogs compile at construction; a bad pattern is a
// programming error and panics when its matcher is built, not on first use.
package signature

import (
	"bytes"
	"regexp"
	"strings"
)

type rule struct {
	label string
	match func(text string) bool
}

// Matcher classifies strings against a fixed, case-insensitive catalog.
// Returning no labels means the input looks normal.
type Matcher struct {
	rules []rule
}

// Classify returns the labels of every matching pattern, in catalog order.
func (m *Matcher) Classify(text string) []string {
	var labels []string
	lower := strings.ToLower(text)
	for _, r := range m.rules {
		if r.match(lower) {
			labels = append(labels, r.label)
		}
	}
	return labels
}

func regexRules(pairs [][2]string) []rule {
	rules := make([]rule, 0, len(pairs))
	for _, p := range pairs {
		re := regexp.MustCompile("(?i)" + p[0])
		rules = append(rules, rule{label: p[1], match: re.MatchString})
	}
	return rules
}

func substringRules(pairs [][2]string) []rule {
	rules := make([]rule, 0, len(pairs))
	for _, p := range pairs {
		needle := strings.ToLower(p[0])
		rules = append(rules, rule{label: p[1], match: func(text string) bool {
			return strings.Contains(text, needle)
		}})
	}
	return rules
}

// SQLInjection matches the query-level injection catalog.
func SQLInjection() *Matcher {
	return &Matcher{rules: regexRules([][2]string{
		{`'.*or.*'.*='.*`, "SQL Injection (OR bypass)"},
		{`union.*select`, "Union-based SQLi"},
		{`sleep\s*\(\d+\)`, "Time-based SQLi"},
		{`benchmark\s*\(`, "Benchmark-based SQLi"},
		{`load_file\s*\(.*\)`, "File read attempt"},
		{`into\s+outfile`, "File write attempt"},
		{`into\s+dumpfile`, "File dump attempt"},
		{`xp_cmdshell`, "Command execution attempt"},
		{`exec\s*\(`, "Code execution attempt"},
		{`--\s*$`, "SQL comment injection"},
		{`/\*.*\*/`, "SQL comment obfuscation"},
	})}
}

// SensitiveOperations matches destructive or privilege-changing SQL.
func SensitiveOperations() *Matcher {
	return &Matcher{rules: substringRules([][2]string{
		{"drop table", "Table deletion attempt"},
		{"drop database", "Database deletion attempt"},
		{"delete from", "Data deletion attempt"},
		{"truncate table", "Table truncation attempt"},
		{"grant ", "Privilege grant attempt"},
		{"revoke ", "Privilege revoke attempt"},
		{"create user", "User creation attempt"},
		{"alter user", "User modification attempt"},
	})}
}

// SuspiciousPaths matches admin-probing URL paths. Labels are the tokens.
func SuspiciousPaths() *Matcher {
	tokens := []string{"/wp-admin", "/wp-login", "/admin", "/shell", "/cmd"}
	pairs := make([][2]string, len(tokens))
	for i, tok := range tokens {
		pairs[i] = [2]string{tok, tok}
	}
	return &Matcher{rules: substringRules(pairs)}
}

// SQLQuerySeeds matches injection seed strings in URL query strings.
func SQLQuerySeeds() *Matcher {
	seeds := []string{"' or '1'='1", "' or 1=1--", "union select", "select * from"}
	pairs := make([][2]string, len(seeds))
	for i, seed := range seeds {
		pairs[i] = [2]string{seed, seed}
	}
	return &Matcher{rules: substringRules(pairs)}
}

// ByteMatcher finds literal byte tokens in raw payloads. Matching is
// case-sensitive: the RDP markers are exact tool signatures.
type ByteMatcher struct {
	tokens [][]byte
}

// RDPMarkers matches known RDP exploit and scanner signatures.
func RDPMarkers() *ByteMatcher {
	names := []string{"BlueKeep", "CVE-2019-0708", "MS_T120", "rdpwrap", "shterm", "hydra", "ncrack"}
	tokens := make([][]byte, len(names))
	for i, n := range names {
		tokens[i] = []byte(n)
	}
	return &ByteMatcher{tokens: tokens}
}

// Classify returns every token present in data, in catalog order.
func (m *ByteMatcher) Classify(data []byte) []string {
	var labels []string
	for _, tok := range m.tokens {
		if bytes.Contains(data, tok) {
			labels = append(labels, string(tok))
		}
	}
	return labels
}
