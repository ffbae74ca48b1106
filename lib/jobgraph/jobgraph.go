// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

// Package jobgraph models the pipeline's job dependency graph: which
// jobs exist, which jobs they need, and whether their conclusion is
// required for the pipeline verdict. The graph is an explicit DAG
// built once at planning time — the external executor consumes it as
// an adjacency list keyed by job name, and [Graph.ShouldRun] is the
// single source of truth for "is this job real in this run". Per-job
// conditional logic lives nowhere else.
package jobgraph

import (
	"fmt"
	"slices"

	"github.com/gantry-build/gantry/lib/testrun"
)

// Node is one job in the pipeline graph.
type Node struct {
	// Name is the job name, unique within the graph.
	Name string `yaml:"name" json:"name"`

	// Needs lists the jobs that must reach a successful terminal
	// conclusion before this job starts.
	Needs []string `yaml:"needs,omitempty" json:"needs,omitempty"`

	// Required marks jobs whose non-success conclusion forces overall
	// pipeline failure.
	Required bool `yaml:"required" json:"required"`

	// Categories gates the job on the plan's enabled categories
	// (any-of). An empty list means the job runs whenever the plan
	// schedules anything at all.
	Categories []string `yaml:"categories,omitempty" json:"categories,omitempty"`
}

// Graph is a validated job DAG. Build one with [New]; the zero value
// is not usable.
type Graph struct {
	nodes  []Node
	byName map[string]int
	order  []string
}

// New validates the nodes and returns the graph. It rejects duplicate
// names, needs-references to undeclared jobs, and dependency cycles.
// Node order is preserved for deterministic iteration.
func New(nodes []Node) (*Graph, error) {
	byName := make(map[string]int, len(nodes))
	for index, node := range nodes {
		if node.Name == "" {
			return nil, fmt.Errorf("jobs[%d]: name is required", index)
		}
		if firstIndex, exists := byName[node.Name]; exists {
			return nil, fmt.Errorf("jobs[%d] %q: duplicate job name (first declared at jobs[%d])",
				index, node.Name, firstIndex)
		}
		byName[node.Name] = index
	}
	for _, node := range nodes {
		for _, need := range node.Needs {
			if _, exists := byName[need]; !exists {
				return nil, fmt.Errorf("job %q: needs undeclared job %q", node.Name, need)
			}
			if need == node.Name {
				return nil, fmt.Errorf("job %q: needs itself", node.Name)
			}
		}
	}

	graph := &Graph{
		nodes:  slices.Clone(nodes),
		byName: byName,
	}
	order, err := graph.topoSort()
	if err != nil {
		return nil, err
	}
	graph.order = order
	return graph, nil
}

// topoSort produces a deterministic topological order (Kahn's
// algorithm, declaration order among ready nodes) and detects cycles.
func (g *Graph) topoSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for _, node := range g.nodes {
		indegree[node.Name] += 0
		for _, need := range node.Needs {
			indegree[node.Name]++
			dependents[need] = append(dependents[need], node.Name)
		}
	}

	var order []string
	for len(order) < len(g.nodes) {
		progressed := false
		for _, node := range g.nodes {
			if indegree[node.Name] != 0 || slices.Contains(order, node.Name) {
				continue
			}
			order = append(order, node.Name)
			for _, dependent := range dependents[node.Name] {
				indegree[dependent]--
			}
			progressed = true
		}
		if !progressed {
			var stuck []string
			for _, node := range g.nodes {
				if !slices.Contains(order, node.Name) {
					stuck = append(stuck, node.Name)
				}
			}
			return nil, fmt.Errorf("job graph has a dependency cycle among %v", stuck)
		}
	}
	return order, nil
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.nodes)
}

// Node returns the named node.
func (g *Graph) Node(name string) (Node, bool) {
	index, exists := g.byName[name]
	if !exists {
		return Node{}, false
	}
	return g.nodes[index], true
}

// TopoOrder returns job names in a deterministic topological order.
func (g *Graph) TopoOrder() []string {
	return slices.Clone(g.order)
}

// Adjacency returns the needs edges as an adjacency list keyed by job
// name, the shape the external executor consumes.
func (g *Graph) Adjacency() map[string][]string {
	adjacency := make(map[string][]string, len(g.nodes))
	for _, node := range g.nodes {
		adjacency[node.Name] = slices.Clone(node.Needs)
	}
	return adjacency
}

// Required returns the names of all required jobs in declaration order.
func (g *Graph) Required() []string {
	var names []string
	for _, node := range g.nodes {
		if node.Required {
			names = append(names, node.Name)
		}
	}
	return names
}

// ShouldRun evaluates the named job's gating predicate against the
// plan. A skip plan runs nothing; otherwise the job runs when its
// category gate passes AND every job it needs also runs (a job whose
// dependency is gated off can never execute).
func (g *Graph) ShouldRun(name string, plan testrun.Plan) (bool, error) {
	node, exists := g.Node(name)
	if !exists {
		return false, fmt.Errorf("unknown job %q", name)
	}
	if plan.Type == testrun.Skip {
		return false, nil
	}
	if !gatePasses(node, plan) {
		return false, nil
	}
	for _, need := range node.Needs {
		needRuns, err := g.ShouldRun(need, plan)
		if err != nil {
			return false, err
		}
		if !needRuns {
			return false, nil
		}
	}
	return true, nil
}

func gatePasses(node Node, plan testrun.Plan) bool {
	if len(node.Categories) == 0 {
		return true
	}
	for _, category := range node.Categories {
		if plan.Enabled(category) {
			return true
		}
	}
	return false
}

// Default returns the standard Salt release pipeline graph: lint and
// docs jobs gate on their categories, everything test- or
// package-shaped descends from the onedir build, and signing descends
// from packaging.
func Default() *Graph {
	graph, err := New([]Node{
		{Name: "lint", Required: true, Categories: []string{"lint"}},
		{Name: "build-docs", Required: true, Categories: []string{"docs"}},
		{Name: "build", Required: true,
			Categories: []string{"salt", "tests", "pkg_tests", "nsis_tests", "pkg_requirements", "test_requirements"}},
		{Name: "test", Required: true, Needs: []string{"build"},
			Categories: []string{"salt", "tests", "test_requirements"}},
		{Name: "build-pkgs", Required: true, Needs: []string{"build"},
			Categories: []string{"pkg_tests"}},
		{Name: "pkg-tests", Required: true, Needs: []string{"build-pkgs"},
			Categories: []string{"pkg_tests"}},
		{Name: "nsis-tests", Required: true, Needs: []string{"build-pkgs"},
			Categories: []string{"nsis_tests"}},
		{Name: "sign-pkgs", Required: false, Needs: []string{"build-pkgs"},
			Categories: []string{"pkg_tests"}},
	})
	if err != nil {
		// The default graph is a fixed literal; failure here is a
		// build defect, not runtime data.
		panic("jobgraph: default graph: " + err.Error())
	}
	return graph
}
