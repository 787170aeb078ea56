// Package policy evaluates circle join requests with OPA.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Decision values returned by the policy.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// JoinInput is the document the join policy is evaluated against.
type JoinInput struct {
	CircleID    string     `json:"circle_id"`
	AnonymousID string     `json:"anonymous_id"`
	LiveMembers int        `json:"live_members"`
	Circle      CircleInfo `json:"circle"`
}

// CircleInfo carries the stored circle settings. Exists is false when the
// circle has no stored record.
type CircleInfo struct {
	Exists      bool `json:"exists"`
	MaxMembers  int  `json:"max_members"`
	IsPrivate   bool `json:"is_private"`
	IsAnonymous bool `json:"is_anonymous"`
}

// Result is the outcome of a policy evaluation.
type Result struct {
	Decision string
	Reason   string
}

// Allowed reports whether the decision permits the join.
func (r Result) Allowed() bool {
	return r.Decision != DecisionDeny
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.circle_policy"),
		rego.Module("circle_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy module at path.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// EvaluateJoin checks whether a connection may join a circle.
// A policy that produces no decision allows the join.
func (e *Engine) EvaluateJoin(ctx context.Context, input JoinInput) (Result, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Result{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Result{Decision: DecisionAllow, Reason: "default"}, nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Result{Decision: DecisionAllow, Reason: "unexpected return type"}, nil
	}

	res := Result{Decision: DecisionAllow}
	if d, ok := doc["decision"].(string); ok {
		res.Decision = d
	}
	if r, ok := doc["reason"].(string); ok {
		res.Reason = r
	}
	return res, nil
}

// DefaultPolicy admits every join.
const DefaultPolicy = `
package circle_policy

default decision = "allow"

default reason = ""
`

// CapacityPolicy denies joins once a circle's live group has reached max_members.
const CapacityPolicy = `
package circle_policy

default decision = "allow"

decision = "deny" if {
	input.circle.max_members > 0
	input.live_members >= input.circle.max_members
}

default reason = ""

reason = "circle is full" if {
	decision == "deny"
}
`
