package device

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// LowEndRAMBytes is the memory ceiling at or below which a host counts as low end.
const LowEndRAMBytes = 4 << 30

// Info describes the capabilities of the host running conversions.
type Info struct {
	RAMBytes uint64
	Cores    int
	LowEnd   bool
	// Known is false when memory could not be determined.
	Known bool
}

var (
	sysinfo = unix.Sysinfo
	numCPU  = runtime.NumCPU
)

// Probe inspects the host. It never fails; unknown values are reported as zero.
func Probe() Info {
	info := Info{Cores: numCPU()}
	var si unix.Sysinfo_t
	if err := sysinfo(&si); err != nil {
		return info
	}
	unit := uint64(si.Unit)
	if unit == 0 {
		unit = 1
	}
	info.RAMBytes = uint64(si.Totalram) * unit
	info.Known = info.RAMBytes > 0
	info.LowEnd = info.Known && info.RAMBytes <= LowEndRAMBytes
	return info
}

// RAMDisplay renders total memory in GiB, or "Unknown".
func (i Info) RAMDisplay() string {
	if !i.Known {
		return "Unknown"
	}
	return fmt.Sprintf("%.1f GiB", float64(i.RAMBytes)/(1<<30))
}

// Summary renders a one-line description for status output.
func (i Info) Summary() string {
	s := fmt.Sprintf("%s RAM, %d cores", i.RAMDisplay(), i.Cores)
	if i.LowEnd {
		s += " (low-end: large batches will be slow)"
	}
	return s
}
