package datastore

import "github.com/google/uuid"

// leaseToken generates a value unique to this acquisition so Release
// can tell "I still hold this lease" apart from "someone else grabbed
// it after mine expired".
func leaseToken() string {
	return uuid.NewString()
}
