package mvcc

import (
	"log/slog"
	"sync"

	"github.com/tidwall/btree"
)

// Database holds the entire engine: the version store, the transaction
// registry, and the id allocator. All mutation sites — Begin (id counter,
// registry insert), Finish (registry update), and Set/Delete via invalidate
// (version.finish writes, chain append) — are serialized by mu, which also
// guards every visibility read, so no reader ever observes a half-committed
// transaction.
type Database struct {
	mu sync.Mutex

	defaultIsolation  IsolationLevel
	store             *store
	transactions      btree.Map[uint64, Transaction]
	nextTransactionId uint64

	logger *slog.Logger
}

// Option configures a Database at construction time.
type Option func(*Database)

// WithDefaultIsolation sets the isolation level applied to every subsequent
// Begin. Equivalent to calling Database.SetDefaultIsolation after
// construction.
func WithDefaultIsolation(level IsolationLevel) Option {
	return func(d *Database) {
		d.defaultIsolation = level
	}
}

// WithLogger overrides the structured logger used for lifecycle diagnostics
// (Begin/Commit/Abort/conflict). Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Database) {
		d.logger = logger
	}
}

// NewDatabase creates an empty database. Ids start at 1; id 0 is reserved to
// mean "no transaction".
func NewDatabase(opts ...Option) *Database {
	d := &Database{
		defaultIsolation:  ReadCommittedIsolation,
		store:             newStore(),
		nextTransactionId: 1,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetDefaultIsolation changes the isolation level applied to every
// subsequent Begin. It does not affect transactions already in progress.
func (d *Database) SetDefaultIsolation(level IsolationLevel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.defaultIsolation = level
}

// NewConnection returns a fresh connection bound to this database, with no
// current transaction.
func (d *Database) NewConnection() *Connection {
	return &Connection{
		id:     newConnID(),
		db:     d,
		logger: d.logger,
	}
}

// inProgressLocked returns the set of transaction ids currently InProgress.
// Callers must hold d.mu.
func (d *Database) inProgressLocked() btree.Set[uint64] {
	var ids btree.Set[uint64]
	iter := d.transactions.Iter()
	for ok := iter.First(); ok; ok = iter.Next() {
		if iter.Value().status == InProgress {
			ids.Insert(iter.Key())
		}
	}
	return ids
}

// beginLocked allocates a new transaction. The snapshot of in-progress ids
// is captured after id allocation, excluding the new id, so invariant 3
// (a transaction never appears in its own inProgress set) holds by
// construction.
func (d *Database) beginLocked() *Transaction {
	t := Transaction{
		isolation: d.defaultIsolation,
		status:    InProgress,
		id:        d.nextTransactionId,
	}
	d.nextTransactionId++
	t.inProgress = d.inProgressLocked()

	d.transactions.Set(t.id, t)

	d.logger.Debug("begin transaction", "txID", t.id, "isolation", t.isolation.String())

	return &t
}

// transactionLocked fetches a transaction by id. Callers must hold d.mu.
func (d *Database) transactionLocked(id uint64) (Transaction, bool) {
	return d.transactions.Get(id)
}

// statusLocked is Status, total over every id ever allocated, callable while
// already holding d.mu (the visibility predicate and conflict detector both
// need this).
func (d *Database) statusLocked(id uint64) TransactionStatus {
	t, ok := d.transactionLocked(id)
	assert(ok, "status queried for unknown transaction")
	return t.status
}

// finishLocked transitions t to status. On Committed, for Snapshot and
// Serializable isolation, it runs the conflict detector first; a conflict
// recursively finishes t as Aborted (so the abort is observable to any
// subsequent visibility check) before the conflict error is returned.
func (d *Database) finishLocked(t *Transaction, status TransactionStatus) error {
	if status == Committed && (t.isolation == SnapshotIsolation || t.isolation == SerializableIsolation) {
		if err := d.checkConflicts(t); err != nil {
			d.logger.Debug("aborting on conflict", "txID", t.id, "isolation", t.isolation.String(), "err", err)
			_ = d.finishLocked(t, Aborted)
			return err
		}
	}

	t.status = status
	d.transactions.Set(t.id, *t)

	d.logger.Debug("finish transaction", "txID", t.id, "status", status.String())

	return nil
}

// invalidateLocked walks key's chain and marks every version currently live
// in tx's view as finished by tx. It reports whether any version was found,
// which Delete uses to decide whether the key belongs in writeSet.
func (d *Database) invalidateLocked(tx *Transaction, key string) bool {
	found := false
	for _, v := range d.store.chain(key) {
		if d.isVisible(tx, v) {
			d.store.markFinish(v, tx.id)
			found = true
		}
	}
	return found
}
