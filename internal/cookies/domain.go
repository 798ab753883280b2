package cookies

import "strings"

// DomainVariants returns the domain filters used to gather cookies for
// host: host itself, host without a leading "www.", and the dotted form
// of the latter. Duplicates are dropped and order is kept, so the result
// has one to three entries.
func DomainVariants(host string) []string {
	stripped := strings.TrimPrefix(host, "www.")
	candidates := [...]string{host, stripped, "." + stripped}

	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		dup := false
		for _, seen := range out {
			if seen == c {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}
