// File: reclaim/epoch/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package epoch implements epoch-based reclamation.
//
// A participant brackets its accesses to shared nodes with Enter and Leave.
// Retire files a node under the global epoch current at retire time. The
// global epoch advances only when every active participant has observed it,
// and each advance frees the bucket retired two epochs earlier. A
// participant that stays inside a critical section forever blocks all
// reclamation; Stats reports this as Blocked.
package epoch
