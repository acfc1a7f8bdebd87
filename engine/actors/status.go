package actors

import (
	"github.com/sasha-s/go-deadlock"

	"bountyboard/engine/library"
)

var terminateChan chan struct{}
var waitGroup = &deadlock.WaitGroup{}
var shutdownOnce = &deadlock.Mutex{}
var shuttingDown bool

func SetTerminateChan(term chan struct{}) {
	terminateChan = term
}

func GetTerminateChan() chan struct{} {
	return terminateChan
}

func GetWaitGroup() *deadlock.WaitGroup {
	return waitGroup
}

// Shutdown closes the terminate channel once and waits for everything registered on the wait group.
func Shutdown() {
	shutdownOnce.Lock()
	if shuttingDown {
		shutdownOnce.Unlock()
		return
	}
	shuttingDown = true
	shutdownOnce.Unlock()
	if terminateChan != nil {
		close(terminateChan)
	}
	waitGroup.Wait()
}

func LogCLI(message interface{}, level int) {
	library.LogCLI(message, level)
}
