package policy

import "windreef/capsync/pkg/usage"

// ComputeTarget derives the add-on cap one user should have.
//
// Add-on usage is total usage beyond the free base allowance, floored
// at zero. Users at or under the org default keep the org default;
// users beyond it get their current add-on usage plus the buffer. A
// user is never assigned a cap below the org default.
//
// The tie case (add-on usage exactly equal to the org default) keeps
// the org default: the user still fits, so no override is needed.
func ComputeTarget(record usage.Record, cfg Config) Target {
	addonUsed := record.CreditsUsed - cfg.BaseCredits
	if addonUsed < 0 {
		addonUsed = 0
	}

	if addonUsed <= cfg.OrgDefaultCap {
		return Target{
			Email:     record.Email,
			Cap:       cfg.OrgDefaultCap,
			Rationale: RationaleOrgDefault,
		}
	}

	return Target{
		Email:     record.Email,
		Cap:       addonUsed + cfg.Buffer,
		Rationale: RationaleIndividualOverride,
	}
}

// ComputeTargets derives targets for a batch of records, preserving
// input order.
func ComputeTargets(records []usage.Record, cfg Config) []Target {
	targets := make([]Target, len(records))
	for i, record := range records {
		targets[i] = ComputeTarget(record, cfg)
	}
	return targets
}

// ComputeOrgTarget returns the cap the organization default should be
// set to. Kept as a named operation for symmetry with the per-user
// path, even though it is the identity on the config today.
func ComputeOrgTarget(cfg Config) int {
	return cfg.OrgDefaultCap
}
