// File: reclaim/hazard/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package hazard implements hazard-pointer reclamation.
//
// Every participant owns a Record claimed from a fixed table. Before
// dereferencing a shared node it announces the node's handle in one of the
// record's hazard slots (Protect). A node unlinked from a structure is handed
// to Retire; it is freed by a later Scan only if no record announces it.
//
// The table never grows: AcquireSlot fails with api.ErrSlotsExhausted when
// all records are owned. A released record's still-protected retirements are
// parked on a domain-wide orphan list and adopted by the next scan of any
// record, or by Domain.Collect.
package hazard
