// Package wakelock keeps the host awake while the conversion queue works.
//
// Acquisition is best effort: a host without the capability, or a failed
// request, yields a nil handle and a logged warning.
package wakelock
