// Package ffprobe wraps ffprobe's JSON report.
//
// Inspect returns the parsed streams and format; Duration is the shortcut the
// ffmpeg backend uses to turn encoder timestamps into a percentage.
package ffprobe
