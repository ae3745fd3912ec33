// Package dataset reads and writes the local competition files: the planet
// distance matrix, the dish id mapping, question lists, JSON Lines imports
// and the results CSV.
package dataset
