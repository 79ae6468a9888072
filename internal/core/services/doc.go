// Package services holds the use cases behind the driving ports.
//
// Ingest: a NormaliserRegistry picks the extractor by extension, the
// post-processor pipeline chunks the text and the Indexer embeds and
// writes the chunks. The catalogue record is created before indexing and
// removed again if indexing fails.
//
// Delete: the Deleter clears a document's index entries, then the
// catalogue record goes.
//
// Chat: one turn reads the session history, rewrites the question with
// the QueryRewriter, retrieves with the Retriever and answers with the
// AnswerSynthesizer before appending the turn. Turns in one session are
// serialised by a per-session lock.
package services
