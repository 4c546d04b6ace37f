//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoDataset.
//
// GoDataset is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoDataset is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoDataset. If not, see https://www.gnu.org/licenses/.

package godataset

import (
	"context"
	"io"
	"log/slog"

	"github.com/aaronlmathis/godataset/core"
	"github.com/aaronlmathis/godataset/ops"
)

// materializeOptions collects the options of Materialize and CreateIterator.
type materializeOptions struct {
	logger *slog.Logger
}

// MaterializeOption configures Materialize and CreateIterator.
type MaterializeOption func(*materializeOptions)

// WithLogger routes materialization progress to the given structured logger
// at debug level. Materialization is silent without it.
func WithLogger(logger *slog.Logger) MaterializeOption {
	return func(o *materializeOptions) { o.logger = logger }
}

// Materialize compiles the tree rooted at root into an executable plan. It
// runs three whole-tree passes: a structural check (child arity per class,
// nil children, cycles, sharing only under combinators), a post-order
// ValidateParams pass, and a post-order Build pass that wires each node's
// operators to its children's. Any failure aborts the whole materialization
// with the first failing node's error; no partially built plan is returned.
// A subtree shared by several combinators is validated once but built once
// per consumer, since an operator chain feeds exactly one downstream stage.
func Materialize(ctx context.Context, root *Dataset, opts ...MaterializeOption) (*ops.Plan, error) {
	cfg := materializeOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	if root == nil {
		return nil, core.Validationf("Dataset", "root", "cannot materialize a nil dataset")
	}

	m := &materializer{logger: cfg.logger}

	m.logger.Debug("checking pipeline structure", "root", root.Kind())
	if err := m.checkStructure(root, make(map[*Dataset]bool), make(map[*Dataset]bool)); err != nil {
		return nil, err
	}

	m.logger.Debug("validating pipeline parameters", "root", root.Kind())
	if err := m.validate(root, make(map[*Dataset]bool)); err != nil {
		return nil, err
	}

	m.logger.Debug("building pipeline", "root", root.Kind())
	if _, err := m.build(ctx, root); err != nil {
		return nil, err
	}

	plan := ops.NewPlan(m.operators)
	m.logger.Debug("pipeline materialized", "plan_id", plan.ID(), "stages", len(m.operators))
	return plan, nil
}

// materializer carries the state of one Materialize run.
type materializer struct {
	logger    *slog.Logger
	operators []ops.Operator
}

// checkStructure walks the tree pre-order, rejecting structural defects
// before any parameter is inspected. onPath tracks the current root-to-node
// path for cycle detection; seen short-circuits subtrees already checked
// through another combinator parent.
func (m *materializer) checkStructure(node *Dataset, onPath, seen map[*Dataset]bool) error {
	if onPath[node] {
		return core.Validationf(node.Kind(), "children", "the pipeline graph contains a cycle")
	}
	if seen[node] {
		return nil
	}
	onPath[node] = true

	kind := node.Kind()
	if total := node.parents + node.combinatorParents; total > 1 && node.parents > 0 {
		return core.Validationf(kind, "children",
			"node is attached to %d parents; sharing requires every parent to be a combinator", total)
	}

	switch node.Class() {
	case ClassSource:
		if len(node.children) != 0 {
			return core.Validationf(kind, "children", "source node must have no children, got %d", len(node.children))
		}
	case ClassTransform:
		if len(node.children) != 1 {
			return core.Validationf(kind, "children", "transform node must have exactly 1 child, got %d", len(node.children))
		}
	case ClassCombinator:
		if len(node.children) < 2 {
			return core.Validationf(kind, "children", "combinator node must have at least 2 children, got %d", len(node.children))
		}
	default:
		return core.Validationf(kind, "class", "unknown node class %d", node.Class())
	}

	for i, child := range node.children {
		if child == nil {
			return core.Validationf(kind, "children", "child %d is nil", i)
		}
		if err := m.checkStructure(child, onPath, seen); err != nil {
			return err
		}
	}

	delete(onPath, node)
	seen[node] = true
	return nil
}

// validate runs ValidateParams over the tree post-order, visiting each node
// once regardless of how many combinators share it.
func (m *materializer) validate(node *Dataset, visited map[*Dataset]bool) error {
	if visited[node] {
		return nil
	}
	for _, child := range node.children {
		if err := m.validate(child, visited); err != nil {
			return err
		}
	}
	m.logger.Debug("validated node", "kind", node.Kind())
	if err := node.ValidateParams(); err != nil {
		return err
	}
	visited[node] = true
	return nil
}

// build resolves the node's operators post-order and returns its terminal.
// There is deliberately no memoization: a subtree reached through two
// combinator parents is built once per consumer, because a built operator
// chain feeds exactly one downstream stage.
func (m *materializer) build(ctx context.Context, node *Dataset) (ops.Operator, error) {
	inputs := make([]ops.Operator, len(node.children))
	for i, child := range node.children {
		in, err := m.build(ctx, child)
		if err != nil {
			return nil, err
		}
		inputs[i] = in
	}

	produced, err := node.spec.Build(ctx, node, inputs)
	if err != nil {
		return nil, err
	}
	if len(produced) == 0 {
		if len(inputs) == 1 {
			return inputs[0], nil
		}
		return nil, core.Buildf(node.Kind(), "materialize", "node produced no operators")
	}

	m.operators = append(m.operators, produced...)
	terminal := produced[len(produced)-1]
	m.logger.Debug("built node", "kind", node.Kind(), "operators", len(produced), "terminal", terminal.Name())
	return terminal, nil
}
