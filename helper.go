package rvr

import "time"

// DoFor executes the given function and waits for the duration
func DoFor(d time.Duration, f func()) {
	f()
	time.Sleep(d)
}

// DoWithDelay executes the given steps and waits for the given duration between steps
func DoWithDelay(d time.Duration, steps ...func()) {
	for _, f := range steps {
		f()
		time.Sleep(d)
	}
}

// Poll calls f every interval until stop is closed. Closing stop only
// prevents further calls, an in flight call is not aborted.
func Poll(interval time.Duration, stop <-chan struct{}, f func()) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			f()
		}
	}
}
