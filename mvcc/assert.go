package mvcc

import "fmt"

// assert panics with msg if b is false. Used for invariant checks and
// programmer-error preconditions, which are fatal to the calling session
// rather than recoverable errors.
func assert(b bool, msg string) {
	if !b {
		panic(msg)
	}
}

func assertEq[C comparable](a, b C, prefix string) {
	if a != b {
		panic(fmt.Sprintf("%s '%v' != '%v'", prefix, a, b))
	}
}
