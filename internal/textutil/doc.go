// Package textutil holds string helpers for building safe output file names.
package textutil
