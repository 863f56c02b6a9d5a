// Package probe runs one image engine job and reports the outcome together
// with the environment it ran in.
//
// A probe never fails past its own boundary. Errors returned by the engine
// and panics raised inside it both become a Failure outcome; Run always
// returns a Result. Callers switch on Result.Outcome:
//
//	switch o := res.Outcome.(type) {
//	case probe.Success:
//	    fmt.Println(o.ByteLength)
//	case probe.Failure:
//	    fmt.Println(o.Message)
//	}
//
// # Jobs
//
// APIJob and PageJob are the two fixed jobs served over HTTP: a 10x10 green
// bitmap scaled to 5x5, and a 100x100 salmon bitmap scaled to 50x50. Both are
// encoded as PNG.
//
// # Traces
//
// Failures caused by a panic carry the goroutine stack captured at recovery.
// Errors that already carry a stack (github.com/go-errors/errors) keep it.
// Plain errors have no trace.
package probe
