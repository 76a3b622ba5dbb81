// Command mixgen generates labeled multi-instrument audio mixtures from a
// catalog of single-instrument clips.
//
// Usage:
//
//	mixgen config init                 # write a sample mixgen.toml
//	mixgen generate --catalog clips.csv --count 1000
//	mixgen bands                       # list the frequency bands
//	mixgen inspect a.wav b.wav         # per-band energy of WAV files
package main
