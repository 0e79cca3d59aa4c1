// Package transcode defines the conversion backend contract and its ffmpeg
// implementation.
//
// A Backend is initialised once, then converts one Source at a time into
// the bytes of the target Format, reporting percent progress along the way.
package transcode
