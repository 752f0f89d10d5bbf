package transport

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"time"

	"github.com/hashicorp/go-version"
)

// MinimumCLIVersion is the oldest agent CLI release known to speak the
// streaming protocol.
const MinimumCLIVersion = "2.0.0"

const versionCheckTimeout = 2 * time.Second

// ErrUnsupportedVersion reports a CLI older than MinimumCLIVersion.
var ErrUnsupportedVersion = errors.New("transport: unsupported CLI version")

var (
	versionPattern = regexp.MustCompile(`(\d+\.\d+\.\d+)`)
	minimumVersion = version.Must(version.NewVersion(MinimumCLIVersion))
)

// ParseCLIVersion extracts the first X.Y.Z version from the output of
// `<binary> -v`.
func ParseCLIVersion(out string) (*version.Version, error) {
	m := versionPattern.FindStringSubmatch(out)
	if m == nil {
		return nil, fmt.Errorf("transport: no version in %q", out)
	}
	return version.NewVersion(m[1])
}

// CheckVersion runs `<binary> -v` under env, bounded by a two second
// timeout, and compares the reported version with MinimumCLIVersion.
// An older CLI yields the parsed version and ErrUnsupportedVersion.
func CheckVersion(ctx context.Context, binary string, env []string) (*version.Version, error) {
	ctx, cancel := context.WithTimeout(ctx, versionCheckTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-v")
	cmd.Env = env
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("transport: version check: %w", err)
	}

	v, err := ParseCLIVersion(string(out))
	if err != nil {
		return nil, err
	}
	if v.LessThan(minimumVersion) {
		return v, fmt.Errorf("%w: %s < %s", ErrUnsupportedVersion, v, MinimumCLIVersion)
	}
	return v, nil
}
