// Some helpers using closures to generate values
package valgen

import "math/rand"

func MakeConstGen(constant int) func() int {
	return func() int {
		return constant
	}
}

func MakeIncreasingGen(start int) func() int {
	current := start
	return func() int {
		current++
		return current
	}
}

// MakeBoundedGen draws values in [0, bound) from a source seeded with seed.
// Two generators built from the same seed yield the same sequence, in this
// process or any other.
func MakeBoundedGen(seed int64, bound int) func() int {
	if bound <= 0 {
		panic("bound must be positive")
	}

	r := rand.New(rand.NewSource(seed))
	return func() int {
		return r.Intn(bound)
	}
}
