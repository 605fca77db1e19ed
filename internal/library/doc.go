// Package library keeps the client-side view of the user's library in step
// with the reading service.
//
// # Overview
//
// Store holds the records; Mutator changes them. Every change is applied to
// the Store first so the UI can redraw immediately, then sent to the service,
// then either confirmed or rolled back.
//
//	UI action           Store               Service
//	┌──────────────┐
//	│ StageStatus  │──→ status = READ
//	│              │                      ┌──────────────┐
//	│ Commit       │─────────────────────→│ PUT {status} │
//	│              │                      └──────┬───────┘
//	│              │←── ok: keep / adopt ────────┤
//	│              │←── err: restore status ─────┘
//	└──────────────┘
//
// # Adds
//
// Mutator.Add first checks the book against the library with
// books.IsDuplicate. A duplicate is skipped silently (AddResult.Duplicate).
// Otherwise the add request is awaited, because the service assigns the
// record id. With MutatorOptions.OptimisticAdd a provisional record is shown
// while the request is in flight and removed again if it fails.
//
// # Rollback
//
// A failed status or rating change restores only the field it touched, and
// only if that field still holds the value the mutation wrote. The previous
// value is captured in the Mutation when it is staged, not read back later.
//
// # Concurrency Model
//
// Store uses a sync.RWMutex and hands out deep copies. Mutator tracks the
// records with changes in flight; staging a second change for the same
// record fails with ErrRecordBusy until the first one resolves. Changes to
// different records proceed independently. In-flight requests are not
// cancellable.
//
// # Shelves
//
// Shelves are a projection: GroupByStatus and Snapshot.Shelf recompute them
// from the records on every call. LegalTargets lists the moves offered from
// each shelf; READ offers none.
//
// # Errors
//
//   - *FetchError: Load failed; the previous records are kept
//   - *MutationError: an add or update failed; see RolledBack and Message
//   - ErrRecordBusy, ErrNotFound, ErrInvalidStatus, ErrInvalidRating: the
//     change was refused before anything was applied
package library
