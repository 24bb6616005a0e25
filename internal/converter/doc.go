// Package converter builds and executes invocations of the external
// HDR-to-HEIC converter.
//
// The converter is a black box invoked as
//
//	<converter> <input file> <output dir> [extra args...]
//
// Its exit status is the only success signal; on failure its captured
// stderr is the only diagnostic. Stdout is captured but never interpreted.
package converter
