// Package normalisers provides the loader dispatch table: one Normaliser
// per supported file format, each extracting ordered text segments.
//
// Normalisers are registered with the Registry at startup. The table is
// closed; a format without a normaliser is rejected before any work runs.
package normalisers
