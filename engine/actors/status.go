package actors

import "github.com/sasha-s/go-deadlock"

var terminateChan chan struct{}
var terminateMu = &deadlock.Mutex{}

// SetTerminateChan registers the channel whose closing shuts the service down.
func SetTerminateChan(term chan struct{}) {
	terminateMu.Lock()
	defer terminateMu.Unlock()
	terminateChan = term
}

// Terminate asks the service to shut down. Safe to call more than once.
func Terminate() {
	terminateMu.Lock()
	defer terminateMu.Unlock()
	if terminateChan == nil {
		return
	}
	select {
	case <-terminateChan:
	default:
		close(terminateChan)
	}
}
