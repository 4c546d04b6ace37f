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
	"runtime"

	"github.com/aaronlmathis/godataset/ops"
	"github.com/aaronlmathis/godataset/validators"
)

// Package godataset provides a declarative dataset-pipeline construction
// library for machine-learning training loops.
//
// A pipeline is declared as a tree of lazily-evaluated dataset nodes: source
// leaves name an external data origin (image folders, manifests, CSV or
// Parquet files, S3 object sets, database queries, generated data), transform
// nodes wrap a single child with a per-row or per-window operation (map,
// batch, bucketed batch, shuffle, repeat, skip, take, project, rename,
// filter, vocabulary build), and combinator nodes merge sibling trees
// (concat, zip). Declaring a tree performs no I/O; Materialize validates
// every node and compiles the tree into an executable operator list
// (ops.Plan), and CreateIterator pulls rows from the plan's terminal stage.
//
// Core Concepts:
//   - Dataset: one node of the pipeline tree; chaining methods grow the tree.
//   - NodeSpec: the variant payload carried by a node, dispatched through the
//     two-phase ValidateParams/Build protocol.
//   - Materialize: the structural check, validation pass, and build pass that
//     produce an ops.Plan.
//   - Iterator: single-goroutine row iteration over a materialized plan.
//
// Example usage:
//
//	train := godataset.CSV([]string{"train.csv"}).
//	    Map([]transform.Op{transform.Lowercase(), transform.Tokenize(" ")}, []string{"text"}).
//	    Batch(32, godataset.WithDropRemainder())
//	it, err := train.CreateIterator(ctx)
//	if err != nil { log.Fatal(err) }
//	defer it.Close()
//	for {
//	    row, err := it.Next(ctx)
//	    if err == io.EOF { break }
//	    ...
//	}
//
// Construction and materialization are synchronous and single-threaded; the
// per-node worker and queue tuning is validated here and passed through on
// the plan for an execution runtime to consume.

// NodeClass partitions node variants by their position in the tree: sources
// are leaves, transforms wrap exactly one child, combinators merge two or
// more children. The materializer's structural pass enforces the arity.
type NodeClass int

const (
	// ClassSource marks leaf nodes declaring an external data origin.
	ClassSource NodeClass = iota
	// ClassTransform marks single-child nodes transforming their upstream.
	ClassTransform
	// ClassCombinator marks multi-child nodes merging sibling trees.
	ClassCombinator
)

// String names the class for error messages.
func (c NodeClass) String() string {
	switch c {
	case ClassSource:
		return "source"
	case ClassTransform:
		return "transform"
	case ClassCombinator:
		return "combinator"
	default:
		return "unknown"
	}
}

// NodeSpec is the variant payload of a dataset node: the parameters of one
// source, transform, or combinator variant together with its two-phase
// behavior. The built-in factories and chaining methods construct specs
// internally; Custom admits user-defined variants through the same protocol.
type NodeSpec interface {
	// Kind names the variant (e.g. "BatchNode"); every validation and build
	// error carries it.
	Kind() string

	// Class declares the variant's arity class, which the materializer
	// checks against the actual child count.
	Class() NodeClass

	// ValidateParams checks the variant's own parameters. It must be
	// idempotent, side-effect-free, and perform no I/O; failures are
	// *core.ValidationError values naming the offending field.
	ValidateParams() error

	// OutputColumns returns the columns the variant declares it will
	// produce, given the declared columns of its children (one entry per
	// child, nil where a child's columns are unknown before build). A nil
	// result means the output set is only discoverable at build time.
	OutputColumns(inputs [][]string) []string

	// Build produces the variant's executable operators, wired to the
	// already-built terminal operators of its children in child order. The
	// materializer guarantees ValidateParams succeeded for the whole tree
	// first. Environment failures are *core.BuildError values.
	Build(ctx context.Context, node *Dataset, inputs []ops.Operator) ([]ops.Operator, error)
}

// Execution-tuning defaults attached to every new node.
const (
	defaultRowsPerBuffer       = 64
	defaultConnectorQueueSize  = 16
	defaultWorkerConnectorSize = 16
)

// defaultNumWorkers caps the default worker count at 8 so small trees do not
// claim every core of a large host.
func defaultNumWorkers() int {
	if n := runtime.NumCPU(); n < 8 {
		return n
	}
	return 8
}

// Dataset is one node of the declarative pipeline tree. A node owns its
// ordered children, carries a NodeSpec payload for its variant's parameters,
// and holds the execution-tuning fields the materializer passes through on
// the built operators. Nodes are created by the source factories and grown
// by the chaining methods; after materialization a tree is treated as
// immutable.
type Dataset struct {
	spec     NodeSpec
	children []*Dataset

	numWorkers          int
	rowsPerBuffer       int
	connectorQueueSize  int
	workerConnectorSize int
	seed                int64

	// Attach-time reference counts. A node attached to more than one parent
	// is rejected by the structural pass unless every attach came from a
	// combinator, which takes explicit shared ownership of its inputs.
	parents           int
	combinatorParents int
}

// newNode wraps a spec and its children in a node with default tuning,
// recording the attach on every child. The seed is inherited from the first
// child so a seed set on a source carries through the chain.
func newNode(spec NodeSpec, children ...*Dataset) *Dataset {
	d := &Dataset{
		spec:                spec,
		children:            children,
		numWorkers:          defaultNumWorkers(),
		rowsPerBuffer:       defaultRowsPerBuffer,
		connectorQueueSize:  defaultConnectorQueueSize,
		workerConnectorSize: defaultWorkerConnectorSize,
	}
	combinator := spec.Class() == ClassCombinator
	for _, c := range children {
		if c == nil {
			continue
		}
		if combinator {
			c.combinatorParents++
		} else {
			c.parents++
		}
	}
	if len(children) > 0 && children[0] != nil {
		d.seed = children[0].seed
	}
	return d
}

// Custom wraps a user-defined NodeSpec and its children as a dataset node.
// The spec participates in validation and build exactly like the built-in
// variants; the structural pass checks the child count against spec.Class().
func Custom(spec NodeSpec, children ...*Dataset) *Dataset {
	return newNode(spec, children...)
}

// Kind returns the node's variant name.
func (d *Dataset) Kind() string {
	return d.spec.Kind()
}

// Class returns the node's arity class.
func (d *Dataset) Class() NodeClass {
	return d.spec.Class()
}

// Children returns the node's owned children in attach order.
func (d *Dataset) Children() []*Dataset {
	out := make([]*Dataset, len(d.children))
	copy(out, d.children)
	return out
}

// Seed returns the seed the node's build resolves randomness from.
func (d *Dataset) Seed() int64 {
	return d.seed
}

// Tuning returns the execution-tuning fields stamped onto the node's built
// operators.
func (d *Dataset) Tuning() ops.Tuning {
	return ops.Tuning{
		NumWorkers:          d.numWorkers,
		RowsPerBuffer:       d.rowsPerBuffer,
		ConnectorQueueSize:  d.connectorQueueSize,
		WorkerConnectorSize: d.workerConnectorSize,
	}
}

// OutputColumns returns the columns the node declares it will produce, or
// nil when the set is only discoverable at build time (a CSV header, a
// Parquet file schema, a database cursor description).
func (d *Dataset) OutputColumns() []string {
	inputs := make([][]string, len(d.children))
	for i, c := range d.children {
		if c != nil {
			inputs[i] = c.OutputColumns()
		}
	}
	return d.spec.OutputColumns(inputs)
}

// SetNumWorkers sets the worker count an execution runtime should assign to
// this node's operators. Returns the node for chaining.
func (d *Dataset) SetNumWorkers(n int) *Dataset {
	d.numWorkers = n
	return d
}

// SetRowsPerBuffer sets the rows exchanged per buffer on this node's
// operators. Returns the node for chaining.
func (d *Dataset) SetRowsPerBuffer(n int) *Dataset {
	d.rowsPerBuffer = n
	return d
}

// SetConnectorQueueSize sets the depth of the inter-stage connector queue on
// this node's operators. Returns the node for chaining.
func (d *Dataset) SetConnectorQueueSize(n int) *Dataset {
	d.connectorQueueSize = n
	return d
}

// SetWorkerConnectorSize sets the depth of the per-worker feeder queue on
// this node's operators. Returns the node for chaining.
func (d *Dataset) SetWorkerConnectorSize(n int) *Dataset {
	d.workerConnectorSize = n
	return d
}

// SetSeed fixes the seed this node's build resolves randomness from: shuffle
// windows, fallback samplers, generated data. Nodes chained after this one
// inherit the seed at attach time. Returns the node for chaining.
func (d *Dataset) SetSeed(seed int64) *Dataset {
	d.seed = seed
	return d
}

// ValidateParams checks the node's tuning fields and its variant parameters.
// It is idempotent, side-effect-free, and performs no I/O; children are not
// visited (the materializer walks the tree). Failures are
// *core.ValidationError values naming the node kind and offending field.
func (d *Dataset) ValidateParams() error {
	kind := d.spec.Kind()
	if err := validators.WorkerCount(kind, d.numWorkers); err != nil {
		return err
	}
	if err := validators.QueueSize(kind, "rows_per_buffer", d.rowsPerBuffer); err != nil {
		return err
	}
	if err := validators.QueueSize(kind, "connector_queue_size", d.connectorQueueSize); err != nil {
		return err
	}
	if err := validators.QueueSize(kind, "worker_connector_size", d.workerConnectorSize); err != nil {
		return err
	}
	return d.spec.ValidateParams()
}
