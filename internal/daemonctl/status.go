package daemonctl

import (
	"fmt"

	"cadence/internal/api"
	"cadence/internal/config"
	"cadence/internal/device"
	"cadence/internal/ipc"
	"cadence/internal/preflight"
)

// StatusSnapshot is everything "cadence status" renders.
type StatusSnapshot struct {
	Daemon            ipc.StatusResponse
	Reachable         bool
	SystemChecks      []api.StatusLine
	PathChecks        []api.StatusLine
	DependencySummary api.DependencySummary
}

// BuildStatusSnapshot collects daemon status over IPC and falls back to local
// probes when the daemon is offline.
func BuildStatusSnapshot(cfg *config.Config) (*StatusSnapshot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not available")
	}
	snapshot := &StatusSnapshot{}

	if client, err := ipc.Dial(cfg.SocketPath()); err == nil {
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snapshot.Daemon = *resp
			snapshot.Reachable = true
		}
		_ = client.Close()
	}
	if !snapshot.Reachable {
		snapshot.Daemon.Dependencies = api.FromDependencies(preflight.CheckSystemDeps(cfg))
		snapshot.Daemon.Device = api.FromDevice(device.Probe())
	}

	snapshot.SystemChecks = BuildSystemChecks(cfg, snapshot.Daemon)
	snapshot.PathChecks = BuildPathChecks(cfg)
	snapshot.DependencySummary = BuildDependencySummary(snapshot.Daemon.Dependencies)
	return snapshot, nil
}

// BuildSystemChecks resolves status lines that combine runtime state and config checks.
func BuildSystemChecks(cfg *config.Config, status ipc.StatusResponse) []api.StatusLine {
	lines := make([]api.StatusLine, 0, 5)
	if status.Running {
		detail := fmt.Sprintf("Running (pid %d, %d waiting, %d processing)", status.PID, status.Stats.Waiting, status.Stats.Processing)
		lines = append(lines, api.StatusLine{Label: "Daemon", Severity: "ok", Detail: detail})
	} else {
		lines = append(lines, api.StatusLine{Label: "Daemon", Severity: "warn", Detail: "Not running (run `cadence daemon`)"})
	}
	if status.Current != nil {
		lines = append(lines, api.StatusLine{
			Label:    "Converting",
			Severity: "info",
			Detail:   fmt.Sprintf("%s (%s)", status.Current.Name, api.ProgressLabel(*status.Current)),
		})
	}

	deviceSeverity := "ok"
	if status.Device.LowEnd {
		deviceSeverity = "warn"
	}
	lines = append(lines, api.StatusLine{Label: "Device", Severity: deviceSeverity, Detail: status.Device.Summary})

	for _, result := range []preflight.Result{preflight.WakeLockStatus(cfg), preflight.NotificationStatus(cfg)} {
		severity := "warn"
		switch {
		case result.Passed && result.Detail == "Disabled":
			severity = "info"
		case result.Passed:
			severity = "ok"
		}
		lines = append(lines, api.StatusLine{Label: result.Name, Severity: severity, Detail: result.Detail})
	}
	return lines
}

// BuildPathChecks resolves configured directory readiness.
func BuildPathChecks(cfg *config.Config) []api.StatusLine {
	results := []preflight.Result{
		preflight.CheckDirectoryAccess("Output", cfg.Paths.OutputDir),
		preflight.CheckDirectoryAccess("State", cfg.Paths.StateDir),
		preflight.CheckDirectoryAccess("Logs", cfg.Paths.LogDir),
	}
	lines := make([]api.StatusLine, 0, len(results))
	for _, result := range results {
		severity := "error"
		if result.Passed {
			severity = "ok"
		}
		lines = append(lines, api.StatusLine{Label: result.Name, Severity: severity, Detail: result.Detail})
	}
	return lines
}

// BuildDependencySummary computes aggregate dependency readiness.
func BuildDependencySummary(deps []api.DependencyStatus) api.DependencySummary {
	if len(deps) == 0 {
		return api.DependencySummary{
			Severity: "info",
			Detail:   "No dependency checks configured",
		}
	}

	missingRequired := 0
	missingOptional := 0
	for _, dep := range deps {
		if dep.Available {
			continue
		}
		if dep.Optional {
			missingOptional++
		} else {
			missingRequired++
		}
	}

	missingCount := missingRequired + missingOptional
	available := len(deps) - missingCount
	severity := "ok"
	if missingRequired > 0 {
		severity = "error"
	} else if missingOptional > 0 {
		severity = "warn"
	}
	detail := fmt.Sprintf("%d/%d available (missing: %d required, %d optional)", available, len(deps), missingRequired, missingOptional)
	if missingCount == 0 {
		detail = fmt.Sprintf("%d/%d available", available, len(deps))
	}

	return api.DependencySummary{
		Total:           len(deps),
		Available:       available,
		MissingRequired: missingRequired,
		MissingOptional: missingOptional,
		Severity:        severity,
		Detail:          detail,
	}
}
