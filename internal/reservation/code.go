package reservation

import "github.com/jaevor/go-nanoid"

// Codes are read over the counter and typed into lookups, so the alphabet
// drops 0/O, 1/I and lowercase. Uniqueness is ultimately the unique index
// on reservations.code; 10 characters keeps collisions out of practical
// reach.
var newCode = func() func() string {
	gen, err := nanoid.CustomASCII("23456789ABCDEFGHJKLMNPQRSTUVWXYZ", 10)
	if err != nil {
		panic(err)
	}
	return gen
}()

func NewCode() string { return "R-" + newCode() }
