package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cookieport/cookieport/cmd/common"
	"github.com/cookieport/cookieport/internal/cookies"
	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/internal/store/netscape"
)

// Output formats accepted by fetch --format.
const (
	formatTable    = "table"
	formatJSON     = "json"
	formatHeader   = "header"
	formatNetscape = "netscape"
)

// listView is what the fetch command shows: the scope of the fetch and an
// optional search term.
type listView struct {
	All    bool
	Search string
}

// scoped reports whether the fetch is limited to the active tab.
func (v listView) scoped() bool {
	return !v.All
}

// filterCookies keeps the records whose name or domain contains search,
// ignoring case. An empty search keeps everything.
func filterCookies(records []cookies.Record, search string) []cookies.Record {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return records
	}
	out := []cookies.Record{}
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name), search) ||
			strings.Contains(strings.ToLower(r.Domain), search) {
			out = append(out, r)
		}
	}
	return out
}

// selectByName keeps the records named in names, in their original order.
// No names selects every record.
func selectByName(records []cookies.Record, names []string) []cookies.Record {
	if len(names) == 0 {
		return records
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	out := []cookies.Record{}
	for _, r := range records {
		if want[r.Name] {
			out = append(out, r)
		}
	}
	return out
}

// render writes the records of v in format.
func (v listView) render(w io.Writer, records []cookies.Record, format string) error {
	records = filterCookies(records, v.Search)
	switch format {
	case "", formatTable:
		renderTable(w, records)
		return nil
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case formatHeader:
		_, err := fmt.Fprintln(w, cookies.BuildCookieHeader(records))
		return err
	case formatNetscape:
		sc := make([]store.Cookie, len(records))
		for i, r := range records {
			sc[i] = r.ToStore()
		}
		return netscape.Write(w, sc)
	default:
		return fmt.Errorf("unknown format %q (want table, json, header or netscape)", format)
	}
}

func renderTable(w io.Writer, records []cookies.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "cookieport: no cookies found")
		return
	}
	txt := "-------------------------------------------------------------------------------"
	txt += "\n|          Name          |          Domain          | Path | Flags |  Expires  |"
	txt += "\n|------------------------|--------------------------|------|-------|-----------|"
	for _, r := range records {
		txt += fmt.Sprintf("\n|%s|%s|%s|%s|%s|",
			cell(r.Name, 24), cell(r.Domain, 26), cell(r.Path, 6),
			cell(flags(r), 7), cell(expires(r), 11))
	}
	txt += "\n-------------------------------------------------------------------------------"
	fmt.Fprintln(w, txt)
}

// cell fits s into a column of width n, centering short values and
// truncating long ones. Widths count runes.
func cell(s string, n int) string {
	if r := []rune(s); len(r) > n-2 {
		return " " + string(r[:n-5]) + "... "
	}
	return common.Beaut(s, n)
}

func flags(r cookies.Record) string {
	var b strings.Builder
	if r.Secure {
		b.WriteByte('S')
	}
	if r.HTTPOnly {
		b.WriteByte('H')
	}
	if r.HostOnly {
		b.WriteByte('O')
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func expires(r cookies.Record) string {
	if r.ExpirationDate == nil {
		return "session"
	}
	return time.Unix(int64(*r.ExpirationDate), 0).UTC().Format("2006-01-02")
}
