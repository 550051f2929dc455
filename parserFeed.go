package ioc2rules

import (
	"bufio"
	"io"
	"net/netip"
	"sort"
	"strconv"
	"strings"

	"paepcke.de/ioc2rules/range2cidr"
)

// Entry is a validated ipv4 host or network
type Entry struct {
	Prefix netip.Prefix // host entries carry a /32 prefix
	Host   bool         // entry was a bare address
}

// String returns the canonical form, 1.2.3.4 or 10.0.0.0/8
func (e Entry) String() string {
	if e.Host {
		return e.Prefix.Addr().String()
	}
	return e.Prefix.String()
}

// less orders by address, then prefix length, hosts before /32 networks
func (e Entry) less(o Entry) bool {
	if c := e.Prefix.Addr().Compare(o.Prefix.Addr()); c != 0 {
		return c < 0
	}
	if e.Prefix.Bits() != o.Prefix.Bits() {
		return e.Prefix.Bits() < o.Prefix.Bits()
	}
	return e.Host && !o.Host
}

// feedResult is the parser outcome for one source
type feedResult struct {
	entries    []Entry // deduplicated, canonical order
	rejected   int     // non comment lines without a valid entry
	duplicates int     // valid entries seen before
}

// parseFeed reads one feed, skips junk silently and returns the sorted, unique entries.
// Lines longer than _maxLineSize count as rejected. On a read error the entries
// collected so far are still returned.
func parseFeed(r io.Reader, ranges bool) (feedResult, error) {
	var res feedResult
	seen := make(map[string]Entry)
	add := func(raw string) {
		line := strings.TrimSpace(raw)
		if line == "" || line[0] == '#' {
			return
		}
		entries, ok := parseLine(line, ranges)
		if !ok {
			res.rejected++
			return
		}
		for _, e := range entries {
			key := e.String()
			if _, dup := seen[key]; dup {
				res.duplicates++
				continue
			}
			seen[key] = e
		}
	}

	br := bufio.NewReaderSize(r, _readSize)
	line := make([]byte, 0, _lineSize)
	long := false
	var err error
	for {
		chunk, more, rerr := br.ReadLine()
		if rerr != nil {
			if rerr != io.EOF {
				err = rerr
			}
			break
		}
		if !long {
			if len(line)+len(chunk) > _maxLineSize {
				line, long = line[:0], true
			} else {
				line = append(line, chunk...)
			}
		}
		if more {
			continue
		}
		if long {
			res.rejected++
		} else {
			add(string(line))
		}
		line, long = line[:0], false
	}

	res.entries = make([]Entry, 0, len(seen))
	for _, e := range seen {
		res.entries = append(res.entries, e)
	}
	sort.Slice(res.entries, func(i, j int) bool { return res.entries[i].less(res.entries[j]) })
	return res, err
}

// parseLine validates a single trimmed, non comment feed line
func parseLine(line string, ranges bool) ([]Entry, bool) {
	raw, ok := candidate(line)
	if !ok || octetOverflow(raw) {
		return nil, false
	}
	if e, ok := parseHost(raw); ok {
		return []Entry{e}, true
	}
	if e, ok := parseNetwork(raw); ok {
		return []Entry{e}, true
	}
	if ranges {
		if prefixes := range2cidr.Prefixes(raw); len(prefixes) > 0 {
			entries := make([]Entry, 0, len(prefixes))
			for _, p := range prefixes {
				entries = append(entries, Entry{Prefix: p, Host: p.IsSingleIP()})
			}
			return entries, true
		}
	}
	return nil, false
}

// candidate extracts the first comma or whitespace delimited token
func candidate(line string) (string, bool) {
	if !strings.ContainsAny(line, ", \t") {
		return line, true
	}
	first, _, _ := strings.Cut(line, ",")
	f := strings.Fields(first)
	if len(f) == 0 {
		return "", false
	}
	return f[0], true
}

// octetOverflow reports a dotted quad with a numeric octet above 255
func octetOverflow(raw string) bool {
	parts := strings.Split(raw, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if isDigits(p) && !octetOK(p) {
			return true
		}
	}
	return false
}

// parseHost accepts a plain ipv4 address
func parseHost(raw string) (Entry, bool) {
	addr, err := netip.ParseAddr(raw)
	if err != nil || !addr.Is4() {
		return Entry{}, false
	}
	return Entry{Prefix: netip.PrefixFrom(addr, 32), Host: true}, true
}

// parseNetwork accepts addr/len, addr/netmask and addr/hostmask, host bits are masked
func parseNetwork(raw string) (Entry, bool) {
	ip, mask, ok := strings.Cut(raw, "/")
	if !ok || strings.Contains(mask, "/") || !dottedQuad(ip) {
		return Entry{}, false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return Entry{}, false
	}
	bits, ok := prefixLen(mask)
	if !ok {
		return Entry{}, false
	}
	return Entry{Prefix: netip.PrefixFrom(addr, bits).Masked()}, true
}

// prefixLen parses a decimal prefix length or a dotted net/host mask
func prefixLen(mask string) (int, bool) {
	if isDigits(mask) {
		n, err := strconv.Atoi(mask)
		if err != nil || n > 32 {
			return 0, false
		}
		return n, true
	}
	m, err := netip.ParseAddr(mask)
	if err != nil || !m.Is4() {
		return 0, false
	}
	b := m.As4()
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	if n, ok := contiguous(v); ok {
		return n, true
	}
	return contiguous(^v)
}

// contiguous returns the number of leading one bits if v is a valid netmask
func contiguous(v uint32) (int, bool) {
	n := 0
	for n < 32 && v&(1<<(31-n)) != 0 {
		n++
	}
	if n < 32 && v<<n != 0 {
		return 0, false
	}
	return n, true
}

// dottedQuad reports four numeric octets, each <= 255
func dottedQuad(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if !isDigits(p) || !octetOK(p) {
			return false
		}
	}
	return true
}

func octetOK(p string) bool {
	if len(p) > 3 {
		return false
	}
	n, err := strconv.Atoi(p)
	return err == nil && n <= 255
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
