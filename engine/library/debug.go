package library

import (
	"github.com/sasha-s/go-deadlock"
)

// ValidateSaneExecutionTime returns a func that must be called before the
// deadlock detector's timeout elapses, otherwise the stuck caller is reported.
func ValidateSaneExecutionTime() func() {
	mu := deadlock.Mutex{}
	mu.Lock()
	go func() {
		mu.Lock()
		mu.Unlock()
	}()
	return func() {
		mu.Unlock()
	}
}
