// Package memory provides the tiered memory layer for a personalized
// conversational agent.
//
// Tiers:
//   - Session: append-only transcript of the current run, cleared on exit
//   - ShortTermBuffer: small, capacity- and TTL-bounded list of recent
//     turn summaries with lazy eviction
//   - LongTermStore: persistent semantic memory with retention expiry and
//     sensitivity filtering, backed by an external vector index
//
// External collaborators are interfaces so backends can be swapped:
//   - Embedder: text-to-vector conversion (OpenAI, cached, mock)
//   - VectorIndex: similarity storage backend (chromem-go locally;
//     a hosted index in production)
//
// All expiry and eviction are computed lazily at access time. There is no
// background sweeper: a long-unused user's expired records are only freed
// the next time that user is accessed.
package memory
