package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"cadence/internal/config"
	"cadence/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the ffmpeg toolchain for the given config.
// Both the daemon and the CLI status command use this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	if cfg == nil {
		return nil
	}
	return deps.CheckBinaries(deps.Toolchain(cfg.Conversion.FFmpegBinary, cfg.Conversion.FFprobeBinary))
}

// CheckSupport reports whether conversions can run at all on this host.
func CheckSupport(statuses []deps.Status) Result {
	const name = "Conversion support"
	missing := deps.Missing(statuses)
	if len(missing) == 0 {
		return Result{Name: name, Passed: true, Detail: "ffmpeg toolchain available"}
	}
	detail := missing[0].Detail
	if len(missing) > 1 {
		detail = fmt.Sprintf("%s (+%d more)", detail, len(missing)-1)
	}
	return Result{Name: name, Detail: detail}
}
