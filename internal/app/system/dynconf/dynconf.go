// Package dynconf provides the runtime-reconfigurable settings of the
// organization core: deployment mode, enterprise organization id and the
// logo size limit. Callers take one Snapshot per operation.
package dynconf

import (
	"fmt"
	"strings"
)

// Mode is the deployment mode.
type Mode string

const (
	ModeSaaS       Mode = "SAAS"
	ModeEnterprise Mode = "ENTERPRISE"
)

// DefaultLogoMaxSizeKB is used when no limit is configured.
const DefaultLogoMaxSizeKB = 300

// ParseMode accepts SAAS or ENTERPRISE in any case. Empty means SAAS.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ModeSaaS):
		return ModeSaaS, nil
	case string(ModeEnterprise):
		return ModeEnterprise, nil
	}
	return "", fmt.Errorf("unknown workspace mode %q (want SAAS or ENTERPRISE)", s)
}

// Snapshot is an immutable view of the runtime settings.
type Snapshot struct {
	Mode            Mode
	EnterpriseOrgID string
	LogoMaxSizeKB   int
}

// IsEnterprise reports whether the deployment runs a single shared organization.
func (s Snapshot) IsEnterprise() bool {
	return s.Mode == ModeEnterprise
}

// Validate checks a snapshot and fills defaults.
func (s Snapshot) Validate() (Snapshot, error) {
	mode, err := ParseMode(string(s.Mode))
	if err != nil {
		return Snapshot{}, err
	}
	s.Mode = mode
	s.EnterpriseOrgID = strings.TrimSpace(s.EnterpriseOrgID)
	if s.LogoMaxSizeKB == 0 {
		s.LogoMaxSizeKB = DefaultLogoMaxSizeKB
	}
	if s.LogoMaxSizeKB < 0 {
		return Snapshot{}, fmt.Errorf("logo_max_size_kb must be positive, got %d", s.LogoMaxSizeKB)
	}
	return s, nil
}

// Source yields the current snapshot.
type Source interface {
	Current() Snapshot
}

// Static is a Source that never changes.
type Static Snapshot

func (s Static) Current() Snapshot { return Snapshot(s) }
