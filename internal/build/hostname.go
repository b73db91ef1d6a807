package build

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// probeHostname resolves the local hostname when the build environment lacks one.
// Params: ctx for cancellation.
// Returns: probed hostname or error when the probe yields nothing usable.
func probeHostname(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("probe host info: %w", err)
	}
	if strings.TrimSpace(info.Hostname) == "" {
		return "", fmt.Errorf("host probe returned empty hostname")
	}
	return info.Hostname, nil
}
