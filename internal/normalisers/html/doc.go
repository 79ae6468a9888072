// Package html extracts the visible text of HTML pages. It walks the token
// stream rather than building a DOM, so malformed markup degrades to extra
// text instead of an error.
package html
