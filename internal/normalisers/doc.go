// Package normalisers turns dataset files into documents. Each normaliser
// extracts the text of one family of formats; Registry picks the best
// match for a file's MIME type.
package normalisers
