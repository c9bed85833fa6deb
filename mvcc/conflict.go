package mvcc

import (
	"errors"
	"fmt"

	"github.com/tidwall/btree"
)

// Sentinel errors surfaced from Commit when Snapshot or Serializable
// isolation finds an overlapping concurrent committed transaction. Both are
// wrapped with the ids of the two conflicting transactions so callers can
// errors.Is against the kind while still getting a diagnostic message.
var (
	ErrWriteWriteConflict = errors.New("mvcc: write-write conflict")
	ErrReadWriteConflict  = errors.New("mvcc: read-write conflict")
)

// checkConflicts runs the commit-time conflict detector for t1, which must
// be Snapshot or Serializable. It returns the error to surface, or nil if
// t1 may commit.
//
// It considers every other transaction that could have been concurrent with
// t1: everything in t1.inProgress (concurrent at t1's Begin) plus everything
// allocated strictly after t1.id. Ids never inserted into the registry
// (gaps) contribute nothing.
func (d *Database) checkConflicts(t1 *Transaction) error {
	conflictsWith := func(t2 *Transaction) bool {
		switch t1.isolation {
		case SnapshotIsolation:
			return setsShareKeys(t1.writeSet, t2.writeSet)
		case SerializableIsolation:
			return setsShareKeys(t1.readSet, t2.writeSet) || setsShareKeys(t1.writeSet, t2.readSet)
		default:
			return false
		}
	}

	check := func(id uint64) (bool, error) {
		t2, ok := d.transactionLocked(id)
		if !ok || t2.status != Committed {
			return false, nil
		}
		if conflictsWith(&t2) {
			switch t1.isolation {
			case SnapshotIsolation:
				return true, fmt.Errorf("%w: transaction %d vs %d", ErrWriteWriteConflict, t1.id, t2.id)
			case SerializableIsolation:
				return true, fmt.Errorf("%w: transaction %d vs %d", ErrReadWriteConflict, t1.id, t2.id)
			}
		}
		return false, nil
	}

	iter := t1.inProgress.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		if conflict, err := check(iter.Key()); conflict {
			return err
		}
	}

	for id := t1.id + 1; id <= d.nextTransactionId; id++ {
		if conflict, err := check(id); conflict {
			return err
		}
	}

	return nil
}

func setsShareKeys(a, b btree.Set[string]) bool {
	ai := a.Iter()
	for ok := ai.First(); ok; ok = ai.Next() {
		if b.Contains(ai.Key()) {
			return true
		}
	}
	return false
}
