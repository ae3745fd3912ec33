// Package html turns HTML menu pages into one document per <h1>/<h2>
// section, keeping the page title and the visible text.
package html
