package mvcc

import (
	"github.com/tidwall/btree"
)

// TransactionStatus is the lifecycle state of a Transaction: it starts
// InProgress and terminates, exactly once, as either Committed or Aborted.
type TransactionStatus uint8

const (
	InProgress TransactionStatus = iota
	Aborted
	Committed
)

func (s TransactionStatus) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Aborted:
		return "aborted"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Transaction is a single session's unit of work: an isolation level fixed
// at creation, a monotonic id, a status, and the bookkeeping the stricter
// isolation levels need.
type Transaction struct {
	id        uint64
	isolation IsolationLevel
	status    TransactionStatus

	// inProgress is the set of transaction ids that were InProgress at the
	// moment this transaction began. Captured once at Begin, never mutated
	// afterwards. Used by RepeatableRead and stricter.
	inProgress btree.Set[uint64]

	// readSet and writeSet are the keys this transaction has Get, and
	// Set/Delete, respectively. Used only by SnapshotIsolation (writeSet)
	// and SerializableIsolation (both) at commit time.
	readSet  btree.Set[string]
	writeSet btree.Set[string]
}
