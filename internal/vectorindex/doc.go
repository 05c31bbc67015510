// Package vectorindex implements the in-process similarity index used to
// retrieve catalog documents.
//
// An Index is one immutable generation: it is built once from an ordered
// batch of (source id, embedding) pairs, answers k-nearest-neighbour queries
// by cosine similarity, and round-trips through a compact binary encoding.
// Rebuilding produces a new Index and leaves older generations untouched, so
// queries already holding a generation are never affected by a rebuild.
//
// # Similarity
//
// Embeddings are L2-normalised at build time and queries are normalised
// before scoring, so a score is the cosine similarity in [-1, 1]. Equal
// scores are ordered by ascending position, which is the build order.
//
// # Search
//
// Search is an exhaustive flat scan over every stored vector.
package vectorindex
