// File: lockfree/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package lockfree provides a Treiber Stack, a Michael-Scott Queue, an
// insert-only bucketed Map and an insert-only ordered SkipList.
//
// Nodes live in a per-container arena (core/arena) and are addressed by
// tagged handles, so every CAS on a head, tail or bucket word is ABA-safe.
// Operations take an api.Participant from either reclamation scheme
// (reclaim/hazard or reclaim/epoch); unlinked nodes are retired through it
// and return to the arena only once no participant can reach them.
//
// A participant must not be shared between goroutines while an operation is
// in progress. Len is a relaxed counter and only exact when quiescent.
package lockfree
