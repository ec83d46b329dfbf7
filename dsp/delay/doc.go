// Package delay provides a circular delay line with fractional reads.
package delay
