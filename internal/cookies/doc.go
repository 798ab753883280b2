// Package cookies is the cookieport core: it resolves the active tab's
// domain variants, aggregates cookies from a store, encodes exports and
// applies imports.
//
// Cookie values are sensitive. Nothing in this package logs or formats a
// cookie value into an error; only names and domains appear in logs.
package cookies
