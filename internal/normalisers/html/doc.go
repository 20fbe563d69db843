// Package html provides a Normaliser implementation for HTML pages.
// It extracts the title, a readable text rendering of the body
// and the page's outbound links.
package html
