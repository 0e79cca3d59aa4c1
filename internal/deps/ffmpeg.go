package deps

import "strings"

// Toolchain returns the ffmpeg and ffprobe requirements for the configured binaries.
// Empty names fall back to the PATH defaults.
func Toolchain(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     orDefault(ffmpegBinary, "ffmpeg"),
			Description: "Required for audio conversion",
			VersionArg:  "-version",
		},
		{
			Name:        "FFprobe",
			Command:     orDefault(ffprobeBinary, "ffprobe"),
			Description: "Used for conversion progress; without it only start and end are reported",
			Optional:    true,
			VersionArg:  "-version",
		},
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
