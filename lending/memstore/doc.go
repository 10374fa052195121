// Package memstore is the in-memory implementation of the lending storage collaborator.
//
// A Store holds the committed copy counts, the outstanding loans and a small catalog of books,
// borrowers and branches. Transactions buffer their writes and apply them atomically on commit.
// Point reads and writes take a per-key lock that is held until the transaction ends, so two
// transactions touching the same copy record or loan are serialized while unrelated keys proceed
// in parallel. A lock wait gives up after the configured lock timeout with lending.ErrLockTimeout.
//
// Bulk reads (CopiesForBranch, CopiesForBook, AllCopies, All, ForBorrower) take no key locks and
// see the committed state overlaid with the transaction's own writes.
//
// The Store can export and import its complete state as JSON, which the lendingctl CLI and the
// test fixtures use.
package memstore
