package policy

// GetBuiltinPolicies returns all built-in policies.
func GetBuiltinPolicies() []Policy {
	return []Policy{
		lifecycleProtectPolicy(),
		productionForcedActionPolicy(),
	}
}

// lifecycleProtectPolicy blocks disruptive actions against resources
// carrying the lifecycle-protect tag.
func lifecycleProtectPolicy() Policy {
	return Policy{
		Name:        "lifecycle-protect",
		Description: "Blocks stop, restart, and scale actions on resources tagged lifecycle-protect=true",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"protection"},
		Rego: `package ocilift.policies.protect

import rego.v1

disruptive := {"STOP", "RESTART", "SCALE"}

deny contains violation if {
	input.resource.tags["lifecycle-protect"] == "true"
	input.action.kind in disruptive
	violation := {
		"message": sprintf("Resource %s is protected; %s is not permitted", [input.resource.id, input.action.kind]),
		"severity": "error",
		"resource": input.resource.id,
	}
}
`,
	}
}

// productionForcedActionPolicy warns on forced power actions against
// resources tagged as production.
func productionForcedActionPolicy() Policy {
	return Policy{
		Name:        "production-forced-action",
		Description: "Warns when a forced stop or restart targets a resource tagged env=production",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"production", "safety"},
		Rego: `package ocilift.policies.production

import rego.v1

forced := {"STOP", "RESET"}

deny contains violation if {
	input.resource.tags["env"] == "production"
	input.action.verb in forced
	violation := {
		"message": sprintf("Forced %s on production resource %s; prefer the graceful variant", [input.action.verb, input.resource.id]),
		"severity": "warning",
		"resource": input.resource.id,
	}
}
`,
	}
}
