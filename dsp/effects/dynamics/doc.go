// Package dynamics provides reusable non-I/O dynamics processors.
//
// Compressor is a mono soft-knee compressor with log2-domain gain
// computation. Build with the fastmath tag to use approximated log and exp.
package dynamics
