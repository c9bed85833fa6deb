package mvcc

import (
	"log/slog"

	"github.com/google/uuid"
)

// Connection binds at most one in-flight transaction to a database. Callers
// ask the database for a connection, then drive it with ExecCommand; a
// connection never blocks on another connection's transaction.
type Connection struct {
	id uuid.UUID
	db *Database
	tx *Transaction

	logger *slog.Logger
}

func newConnID() uuid.UUID {
	return uuid.New()
}

// ID identifies this connection for log correlation across concurrent
// sessions.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// ExecCommand runs one of the six command kinds against c's database.
// Only "get" returns a non-empty string on success. Committing aborts the
// transaction before returning ErrWriteWriteConflict or ErrReadWriteConflict
// if the conflict detector finds an overlap; misuse (no transaction in
// progress, a second Begin, an unknown command) panics instead of returning
// an error, since it signals a bug in the caller rather than a recoverable
// runtime condition.
func (c *Connection) ExecCommand(command string, args []string) (string, error) {
	c.logger.Debug("exec", "conn", c.id, "command", command, "args", args)

	switch command {
	case "begin":
		return c.begin()
	case "abort":
		return "", c.abort()
	case "commit":
		return "", c.commit()
	case "get":
		return c.get(args[0])
	case "set":
		return c.set(args[0], args[1])
	case "delete":
		return c.delete(args[0])
	default:
		assert(false, "no such command")
		return "", nil
	}
}

// MustExecCommand is ExecCommand for callers (tests, mostly) that want a
// panic instead of an error return.
func (c *Connection) MustExecCommand(command string, args []string) string {
	res, err := c.ExecCommand(command, args)
	if err != nil {
		panic(err)
	}
	return res
}

func (c *Connection) begin() (string, error) {
	assert(c.tx == nil, "begin with transaction already in progress")

	c.db.mu.Lock()
	c.tx = c.db.beginLocked()
	c.db.mu.Unlock()

	assert(c.tx.id > 0, "valid transaction id")
	return "", nil
}

func (c *Connection) assertInProgress() {
	assert(c.tx != nil, "command issued with no transaction in progress")
}

func (c *Connection) abort() error {
	c.assertInProgress()

	c.db.mu.Lock()
	err := c.db.finishLocked(c.tx, Aborted)
	c.db.mu.Unlock()

	c.tx = nil
	assert(err == nil, "abort never conflicts")
	return nil
}

func (c *Connection) commit() error {
	c.assertInProgress()

	c.db.mu.Lock()
	err := c.db.finishLocked(c.tx, Committed)
	c.db.mu.Unlock()

	c.tx = nil
	return err
}

func (c *Connection) get(key string) (string, error) {
	c.assertInProgress()

	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	c.tx.readSet.Insert(key)

	for _, v := range c.db.store.chain(key) {
		if c.db.isVisible(c.tx, v) {
			return v.value, nil
		}
	}
	return "", nil
}

func (c *Connection) set(key, value string) (string, error) {
	c.assertInProgress()

	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	c.db.invalidateLocked(c.tx, key)
	c.tx.writeSet.Insert(key)
	c.db.store.append(key, &Version{start: c.tx.id, value: value})

	return "", nil
}

func (c *Connection) delete(key string) (string, error) {
	c.assertInProgress()

	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	if c.db.invalidateLocked(c.tx, key) {
		c.tx.writeSet.Insert(key)
	}

	return "", nil
}
