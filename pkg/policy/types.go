package policy

import "fmt"

// Default knob values. These mirror the platform's stock plan shape
// and apply when the configuration leaves a knob unset.
const (
	// DefaultBaseCredits is the free allowance granted to every user.
	DefaultBaseCredits = 500

	// DefaultOrgCap is the organization-wide add-on cap.
	DefaultOrgCap = 1000

	// DefaultBuffer is the headroom added above current add-on usage
	// when granting an individual override.
	DefaultBuffer = 500
)

// Rationale explains why a computed cap was chosen.
type Rationale string

const (
	// RationaleOrgDefault means the user fits under the org-wide cap.
	RationaleOrgDefault Rationale = "ORG_DEFAULT"

	// RationaleIndividualOverride means the user has outgrown the
	// org-wide cap and gets usage plus buffer instead.
	RationaleIndividualOverride Rationale = "INDIVIDUAL_OVERRIDE"
)

// Config contains the cap policy knobs for one run.
//
// A Config is supplied once per run and treated as an immutable
// snapshot for the duration of the computation pass.
type Config struct {
	// BaseCredits is the free credit allowance subtracted from total
	// usage before any cap math. Default: 500.
	BaseCredits int `yaml:"base_credits"`

	// OrgDefaultCap is the organization-wide add-on cap and the floor
	// for every computed target.
	OrgDefaultCap int `yaml:"org_default_cap"`

	// Buffer is the headroom granted above current add-on usage when
	// an individual override applies. Zero is legal: the user lands
	// exactly at their ceiling. Default: 500.
	Buffer int `yaml:"buffer"`
}

// Validate checks that all knobs are non-negative.
func (c Config) Validate() error {
	if c.BaseCredits < 0 {
		return fmt.Errorf("base_credits must be non-negative, got %d", c.BaseCredits)
	}
	if c.OrgDefaultCap < 0 {
		return fmt.Errorf("org_default_cap must be non-negative, got %d", c.OrgDefaultCap)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("buffer must be non-negative, got %d", c.Buffer)
	}
	return nil
}

// Target is the cap one user should have under a given Config.
//
// A Target is only meaningful together with the Config that produced
// it; comparing targets from different configs is a category error.
type Target struct {
	// Email identifies the user.
	Email string

	// Cap is the computed add-on credit cap.
	Cap int

	// Rationale records which rule produced the cap.
	Rationale Rationale
}
