package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
	"github.com/rs/zerolog"
)

// Guard evaluates lifecycle actions against loaded Rego policies.
type Guard struct {
	mu       sync.RWMutex
	policies map[string]*compiledPolicy
	logger   zerolog.Logger
}

// compiledPolicy represents a compiled Rego policy.
type compiledPolicy struct {
	policy   *Policy
	module   *ast.Module
	compiled time.Time
}

// NewGuard creates a guard with the built-in policies loaded.
func NewGuard(logger zerolog.Logger) (*Guard, error) {
	g := &Guard{
		policies: make(map[string]*compiledPolicy),
		logger:   logger.With().Str("component", "action-guard").Logger(),
	}

	builtin := GetBuiltinPolicies()
	for i := range builtin {
		if err := g.compileAndStore(&builtin[i]); err != nil {
			return nil, fmt.Errorf("failed to compile built-in policy %s: %w", builtin[i].Name, err)
		}
	}

	g.logger.Debug().Int("count", len(builtin)).Msg("Built-in policies loaded")
	return g, nil
}

// LoadDir loads additional .rego policy files from a directory.
// Loaded policies default to error severity.
func (g *Guard) LoadDir(dir string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read policy directory %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".rego" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read policy file %s: %w", path, err)
		}

		name := strings.TrimSuffix(entry.Name(), ".rego")
		p := &Policy{
			Name:     name,
			Rego:     string(data),
			Severity: SeverityError,
			Enabled:  true,
		}
		if err := g.compileAndStore(p); err != nil {
			return fmt.Errorf("failed to compile policy %s: %w", name, err)
		}
		loaded++
	}

	g.logger.Info().Int("count", loaded).Str("dir", dir).Msg("Policies loaded")
	return nil
}

// Evaluate runs all enabled policies against the action input. A nil
// Guard allows everything.
func (g *Guard) Evaluate(ctx context.Context, input *ActionInput) (*Decision, error) {
	if g == nil {
		return &Decision{Allowed: true, EvaluatedAt: time.Now()}, nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	decision := &Decision{Allowed: true, EvaluatedAt: time.Now()}

	for _, cp := range g.policies {
		if !cp.policy.Enabled {
			continue
		}

		violations, err := g.evaluatePolicy(ctx, cp, input)
		if err != nil {
			g.logger.Error().Err(err).
				Str("policy", cp.policy.Name).
				Str("resource", input.Resource.ID).
				Msg("Policy evaluation failed")
			return nil, fmt.Errorf("policy %s evaluation failed: %w", cp.policy.Name, err)
		}

		for _, v := range violations {
			if v.Severity == SeverityError {
				decision.Allowed = false
				decision.Violations = append(decision.Violations, v)
			} else {
				decision.Warnings = append(decision.Warnings, v)
			}
		}
	}

	if !decision.Allowed {
		g.logger.Warn().
			Str("resource", input.Resource.ID).
			Str("action", string(input.Action.Kind)).
			Int("violations", len(decision.Violations)).
			Msg("Action blocked by policy")
	}

	return decision, nil
}

// evaluatePolicy evaluates a single compiled policy.
func (g *Guard) evaluatePolicy(ctx context.Context, cp *compiledPolicy, input *ActionInput) ([]Violation, error) {
	packageName := extractPackageName(cp.policy.Rego)
	query := fmt.Sprintf("data.%s.deny", packageName)

	r := rego.New(
		rego.Module(cp.policy.Name, cp.policy.Rego),
		rego.Query(query),
		rego.Input(input),
	)

	results, err := r.Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation error: %w", err)
	}

	var violations []Violation
	for _, result := range results {
		if len(result.Expressions) == 0 {
			continue
		}
		denySet, ok := result.Expressions[0].Value.([]interface{})
		if !ok {
			continue
		}
		for _, d := range denySet {
			violations = append(violations, g.createViolation(cp.policy, d, input))
		}
	}

	return violations, nil
}

// extractPackageName extracts the package name from Rego code.
func extractPackageName(code string) string {
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			parts := strings.Fields(trimmed)
			if len(parts) >= 2 {
				return parts[1]
			}
		}
	}
	return "ocilift.policies"
}

// createViolation creates a Violation from a policy deny result.
func (g *Guard) createViolation(policy *Policy, result interface{}, input *ActionInput) Violation {
	violation := Violation{
		Policy:   policy.Name,
		Severity: policy.Severity,
		Resource: input.Resource.ID,
	}

	switch v := result.(type) {
	case string:
		violation.Message = v
	case map[string]interface{}:
		if msg, ok := v["message"].(string); ok {
			violation.Message = msg
		}
		if sev, ok := v["severity"].(string); ok {
			violation.Severity = Severity(sev)
		}
		if res, ok := v["resource"].(string); ok {
			violation.Resource = res
		}
	default:
		violation.Message = fmt.Sprintf("%v", result)
	}

	return violation
}

// compileAndStore compiles a policy and stores it.
func (g *Guard) compileAndStore(policy *Policy) error {
	module, err := ast.ParseModule(policy.Name, policy.Rego)
	if err != nil {
		return fmt.Errorf("failed to parse policy: %w", err)
	}

	g.policies[policy.Name] = &compiledPolicy{
		policy:   policy,
		module:   module,
		compiled: time.Now(),
	}
	return nil
}

// ListPolicies returns all loaded policies.
func (g *Guard) ListPolicies() []Policy {
	g.mu.RLock()
	defer g.mu.RUnlock()

	policies := make([]Policy, 0, len(g.policies))
	for _, cp := range g.policies {
		policies = append(policies, *cp.policy)
	}
	return policies
}

// DisablePolicy disables a policy by name.
func (g *Guard) DisablePolicy(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	cp, exists := g.policies[name]
	if !exists {
		return fmt.Errorf("policy not found: %s", name)
	}
	cp.policy.Enabled = false
	return nil
}
