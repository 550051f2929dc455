package ioc2rules

import (
	"strconv"
	"strings"
	"time"
)

// MaxRulesPerSource caps the drop rules emitted for a single source
const MaxRulesPerSource = 1000

// const shortcuts
const (
	_LF = "\n"

	// HEADER
	_H1 = "# Autogenerated IoC-based rules from multiple sources" + _LF
	_H2 = "# Generated: "   // + timestamp
	_H3 = "# Total rules: " // + count
	_H4 = "# Sources: "     // + source names
	_H5 = "#" + _LF

	// ALLOW BLOCK, sid 8000004 is not used
	_allowFirstSID = 8000001
	_allowLastSID  = 8000006
	_BAR           = "# ============================================" + _LF
	_ALLOW         = _BAR +
		"# ALLOW RULES (HIGH PRIORITY - PROCESSED FIRST)" + _LF +
		_BAR +
		"# Allow HTTP/HTTPS traffic to HOME_NET from any source" + _LF +
		`pass http any any -> $HOME_NET any (msg:"Allow HTTP traffic to HOME_NET"; sid:8000001; rev:1;)` + _LF +
		`pass tcp any any -> $HOME_NET 80 (msg:"Allow HTTP on port 80"; sid:8000002; rev:1;)` + _LF +
		`pass tcp any any -> $HOME_NET 443 (msg:"Allow HTTPS on port 443"; sid:8000003; rev:1;)` + _LF +
		"# Allow TCP traffic to HOME_NET (for HTTP and other services)" + _LF +
		`pass tcp any any -> $HOME_NET any (msg:"Allow TCP traffic to HOME_NET"; sid:8000005; rev:1;)` + _LF +
		"# Allow UDP traffic to HOME_NET (for DNS and other services)" + _LF +
		`pass udp any any -> $HOME_NET any (msg:"Allow UDP traffic to HOME_NET"; sid:8000006; rev:1;)` + _LF +
		"# NOTE: ICMP is NOT allowed here - it should be blocked by custom.rules" + _LF +
		_LF
	_BLOCK = _BAR +
		"# BLOCKING RULES (IoC-based, processed after allow rules)" + _LF +
		_BAR +
		_LF
)

// Rule is a single suricata rule record
type Rule struct {
	Action    string
	Proto     string
	SrcAddr   string
	SrcPort   string
	Direction string
	DstAddr   string
	DstPort   string
	Msg       string
	Classtype string
	SID       int
	Rev       int
}

// String renders the rule as one line without line feed
func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(r.Action + " " + r.Proto + " " + r.SrcAddr + " " + r.SrcPort + " ")
	b.WriteString(r.Direction + " " + r.DstAddr + " " + r.DstPort + " (")
	b.WriteString(`msg:"` + r.Msg + `"; `)
	if r.Classtype != "" {
		b.WriteString("classtype:" + r.Classtype + "; ")
	}
	b.WriteString("sid:" + strconv.Itoa(r.SID) + "; rev:" + strconv.Itoa(r.Rev) + ";)")
	return b.String()
}

// dropRule builds the drop record for one entry of src
func dropRule(src Source, entry string, sid int) Rule {
	return Rule{
		Action:    "drop",
		Proto:     "ip",
		SrcAddr:   entry,
		SrcPort:   "any",
		Direction: "->",
		DstAddr:   "$HOME_NET",
		DstPort:   "any",
		Msg:       src.MsgPrefix + " " + entry + " -> HOME_NET",
		Classtype: src.Classtype,
		SID:       sid,
		Rev:       1,
	}
}

// generateDropRules numbers at most MaxRulesPerSource entries starting at src.BaseSID
func generateDropRules(src Source, entries []Entry) []Rule {
	if len(entries) > MaxRulesPerSource {
		entries = entries[:MaxRulesPerSource]
	}
	rules := make([]Rule, 0, len(entries))
	for i, e := range entries {
		rules = append(rules, dropRule(src, e.String(), src.BaseSID+i))
	}
	return rules
}

// assemble builds the complete rule file, allow block before any drop rule
func assemble(t0 time.Time, stats []SourceStat, rules []Rule) []byte {
	names := make([]string, 0, len(stats))
	for _, s := range stats {
		names = append(names, s.Name)
	}
	var b strings.Builder
	b.Grow(len(_ALLOW) + len(_BLOCK) + len(rules)*128 + 512)
	b.WriteString(_H1)
	b.WriteString(_H2 + t0.Format(time.RFC3339) + _LF)
	b.WriteString(_H3 + strconv.Itoa(len(rules)) + _LF)
	b.WriteString(_H4 + strings.Join(names, ", ") + _LF)
	b.WriteString(_H5)
	for _, s := range stats {
		b.WriteString("# - " + s.Name + ": " + strconv.Itoa(s.Rules) + " rules" + _LF)
	}
	b.WriteString(_LF)
	b.WriteString(_ALLOW)
	b.WriteString(_BLOCK)
	for _, r := range rules {
		b.WriteString(r.String() + _LF)
	}
	return []byte(b.String())
}
