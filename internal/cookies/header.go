package cookies

import "strings"

// BuildCookieHeader builds an HTTP Cookie header value from records.
// Format: "name1=val1; name2=val2"
func BuildCookieHeader(records []Record) string {
	if len(records) == 0 {
		return ""
	}
	parts := make([]string, len(records))
	for i, r := range records {
		parts[i] = r.Name + "=" + r.Value
	}
	return strings.Join(parts, "; ")
}

// ParseCookieHeader splits a Cookie header or document.cookie string into
// name/value records. Only Name and Value are set. Pairs without a name
// are skipped; a pair without "=" is a name with an empty value.
func ParseCookieHeader(header string) []Record {
	var out []Record
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Record{Name: name, Value: strings.TrimSpace(value)})
	}
	return out
}
