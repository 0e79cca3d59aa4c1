// Package convqueue runs audio conversions strictly one at a time.
//
// A Queue holds jobs in submission order. A single worker started with Run
// drains waiting jobs whenever ProcessNext is called, keeping the host awake
// while it works and handing each result to an output.Saver. Failures stay
// with the job that caused them.
//
// Observers subscribe with Subscribe and receive a snapshot after every state
// change plus one EventJobFinished per job, all in one total order.
package convqueue
