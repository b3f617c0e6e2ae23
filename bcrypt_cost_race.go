//go:build race

package session

import "golang.org/x/crypto/bcrypt"

// Race-instrumented binaries pay a heavy CPU multiplier, so hashing at the
// production cost blows past test deadlines. Use the bcrypt default instead.
func passwordHashCost() int {
	return bcrypt.DefaultCost
}
