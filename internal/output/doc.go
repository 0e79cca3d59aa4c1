// Package output delivers converted audio to its destination.
package output
