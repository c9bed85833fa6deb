package mvcc

import (
	"errors"
	"testing"
)

// Literal cross-isolation scenarios exercising each level's visibility and
// conflict rules: one function per scenario, several connections driven
// through a fixed command sequence, checked with assertEq.

func TestScenario1ReadUncommittedCrossVisibility(t *testing.T) {
	db := NewDatabase(WithDefaultIsolation(ReadUncommittedIsolation))

	c1 := db.NewConnection()
	c1.MustExecCommand("begin", nil)
	c2 := db.NewConnection()
	c2.MustExecCommand("begin", nil)

	c1.MustExecCommand("set", []string{"x", "hey"})

	assertEq(c1.MustExecCommand("get", []string{"x"}), "hey", "c1 get x")
	assertEq(c2.MustExecCommand("get", []string{"x"}), "hey", "c2 get x")

	c1.MustExecCommand("delete", []string{"x"})

	assertEq(c1.MustExecCommand("get", []string{"x"}), "", "c1 get x after delete")
	assertEq(c2.MustExecCommand("get", []string{"x"}), "", "c2 get x after delete")
}

func TestScenario2ReadCommittedHidesUncommitted(t *testing.T) {
	db := NewDatabase(WithDefaultIsolation(ReadCommittedIsolation))

	c1 := db.NewConnection()
	c1.MustExecCommand("begin", nil)
	c2 := db.NewConnection()
	c2.MustExecCommand("begin", nil)

	c1.MustExecCommand("set", []string{"x", "hey"})
	assertEq(c1.MustExecCommand("get", []string{"x"}), "hey", "c1 get x")
	assertEq(c2.MustExecCommand("get", []string{"x"}), "", "c2 get x before commit")

	c1.MustExecCommand("commit", nil)
	assertEq(c2.MustExecCommand("get", []string{"x"}), "hey", "c2 get x after commit")

	c3 := db.NewConnection()
	c3.MustExecCommand("begin", nil)
	c3.MustExecCommand("set", []string{"x", "yall"})
	assertEq(c3.MustExecCommand("get", []string{"x"}), "yall", "c3 get x")
	assertEq(c2.MustExecCommand("get", []string{"x"}), "hey", "c2 get x unaffected by c3")

	c3.MustExecCommand("abort", nil)
	assertEq(c2.MustExecCommand("get", []string{"x"}), "hey", "c2 get x after c3 abort")

	c2.MustExecCommand("delete", []string{"x"})
	assertEq(c2.MustExecCommand("get", []string{"x"}), "", "c2 get x after own delete")
	c2.MustExecCommand("commit", nil)

	c4 := db.NewConnection()
	c4.MustExecCommand("begin", nil)
	assertEq(c4.MustExecCommand("get", []string{"x"}), "", "c4 get x after c2 committed delete")
}

func TestScenario3RepeatableReadIsSnapshotStable(t *testing.T) {
	db := NewDatabase(WithDefaultIsolation(RepeatableReadIsolation))

	c1 := db.NewConnection()
	c1.MustExecCommand("begin", nil)
	c2 := db.NewConnection()
	c2.MustExecCommand("begin", nil)

	c1.MustExecCommand("set", []string{"x", "hey"})
	c1.MustExecCommand("commit", nil)
	assertEq(c2.MustExecCommand("get", []string{"x"}), "", "c2 predates c1's commit")

	c3 := db.NewConnection()
	c3.MustExecCommand("begin", nil)
	assertEq(c3.MustExecCommand("get", []string{"x"}), "hey", "c3 sees c1's committed write")

	c3.MustExecCommand("set", []string{"x", "yall"})
	assertEq(c2.MustExecCommand("get", []string{"x"}), "", "c2 still snapshot-stable")

	c3.MustExecCommand("abort", nil)

	c4 := db.NewConnection()
	c4.MustExecCommand("begin", nil)
	assertEq(c4.MustExecCommand("get", []string{"x"}), "hey", "c4 sees committed hey, not aborted yall")
	c4.MustExecCommand("delete", []string{"x"})
	c4.MustExecCommand("commit", nil)

	c5 := db.NewConnection()
	c5.MustExecCommand("begin", nil)
	assertEq(c5.MustExecCommand("get", []string{"x"}), "", "c5 sees committed delete")
}

func TestScenario4SnapshotWriteWriteConflict(t *testing.T) {
	db := NewDatabase(WithDefaultIsolation(SnapshotIsolation))

	c1 := db.NewConnection()
	c1.MustExecCommand("begin", nil)
	c2 := db.NewConnection()
	c2.MustExecCommand("begin", nil)
	c3 := db.NewConnection()
	c3.MustExecCommand("begin", nil)

	c1.MustExecCommand("set", []string{"x", "hey"})
	c1.MustExecCommand("commit", nil)

	c2.MustExecCommand("set", []string{"x", "hey"})
	_, err := c2.ExecCommand("commit", nil)
	if err == nil {
		t.Fatal("expected write-write conflict")
	}
	if !errors.Is(err, ErrWriteWriteConflict) {
		t.Fatalf("expected ErrWriteWriteConflict, got %v", err)
	}

	c3.MustExecCommand("set", []string{"y", "ok"})
	c3.MustExecCommand("commit", nil)
}

func TestScenario5SerializableReadWriteConflict(t *testing.T) {
	db := NewDatabase(WithDefaultIsolation(SerializableIsolation))

	c1 := db.NewConnection()
	c1.MustExecCommand("begin", nil)
	c2 := db.NewConnection()
	c2.MustExecCommand("begin", nil)
	c3 := db.NewConnection()
	c3.MustExecCommand("begin", nil)

	c1.MustExecCommand("set", []string{"x", "hey"})
	c1.MustExecCommand("commit", nil)

	assertEq(c2.MustExecCommand("get", []string{"x"}), "", "c2 predates c1's commit")
	_, err := c2.ExecCommand("commit", nil)
	if err == nil {
		t.Fatal("expected read-write conflict")
	}
	if !errors.Is(err, ErrReadWriteConflict) {
		t.Fatalf("expected ErrReadWriteConflict, got %v", err)
	}

	c3.MustExecCommand("set", []string{"y", "ok"})
	c3.MustExecCommand("commit", nil)
}

func TestScenario6SelfOverwrite(t *testing.T) {
	db := NewDatabase(WithDefaultIsolation(RepeatableReadIsolation))

	outside := db.NewConnection()
	outside.MustExecCommand("begin", nil)

	c1 := db.NewConnection()
	c1.MustExecCommand("begin", nil)
	c1.MustExecCommand("set", []string{"k", "a"})
	c1.MustExecCommand("set", []string{"k", "b"})
	assertEq(c1.MustExecCommand("get", []string{"k"}), "b", "c1 sees its own latest write")
	c1.MustExecCommand("commit", nil)

	assertEq(outside.MustExecCommand("get", []string{"k"}), "", "outside started before c1's commit")
}
