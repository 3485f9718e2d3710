// Package interval implements the ordered-array primitives used to place
// genomic coordinates: rank lookup of positional identifiers in a sorted
// sequence, and light-weight scraping of whitespace-delimited annotation
// lines such as gap and enzyme tables.
//
// Coordinates are int64, wide enough to hold a chromosome index and an offset
// packed into one identifier.
package interval
