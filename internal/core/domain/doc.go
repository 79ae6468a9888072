// Package domain holds ragchat's entities and the rules that need no I/O.
//
// A Document is an uploaded file after text extraction. It is split into
// Chunks, each embedded and stored in the vector index under its
// document's ID. A chat session is an ordered list of Turns keyed by a
// session ID; each ChatResponse cites the chunks it was grounded on.
//
// Settings live here too, together with their defaults and validation,
// so every adapter agrees on what a valid configuration is.
//
// The package imports only the standard library.
package domain
