// package range2cidr expands ipv4 address ranges into their minimal cidr cover
package range2cidr

import (
	"net/netip"
	"strings"

	"go4.org/netipx"
)

//
// EXTERNAL INTERFACE
//

// Prefixes [validate|sanitize] a "first-last" ipv4 range to a cidr slice,
// returns nil for anything that is not a valid ipv4 range
func Prefixes(s string) []netip.Prefix {
	from, to, ok := strings.Cut(s, "-")
	if !ok {
		return nil
	}
	r, ok := parseRange(strings.TrimSpace(from), strings.TrimSpace(to))
	if !ok {
		return nil
	}
	return r.Prefixes()
}

//
// INTERNAL BACKEND
//

func parseRange(s, e string) (netipx.IPRange, bool) {
	from, err := netip.ParseAddr(s)
	if err != nil || !from.Is4() {
		return netipx.IPRange{}, false
	}
	to, err := netip.ParseAddr(e)
	if err != nil || !to.Is4() {
		return netipx.IPRange{}, false
	}
	r := netipx.IPRangeFrom(from, to)
	return r, r.IsValid()
}
