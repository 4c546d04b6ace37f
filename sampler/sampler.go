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

package sampler

import (
	"fmt"
	"math/rand"
)

// Package sampler provides the standard implementations of the core.Sampler
// capability consumed by indexed source nodes: random, sequential, subset and
// distributed (sharded) visit orders. Source nodes fall back to RandomSampler
// or SequentialSampler when the caller supplies none; anything satisfying the
// interface can be swapped in.

// RandomSampler visits all indices in a seeded pseudo-random permutation.
// Each Indices call advances an internal epoch so that repeated passes over
// the same pipeline reshuffle while remaining reproducible from the seed.
type RandomSampler struct {
	seed       int64
	numSamples int64
	epoch      int64
}

// NewRandomSampler creates a random sampler. numSamples caps the returned
// order; 0 keeps everything.
func NewRandomSampler(seed int64, numSamples int64) *RandomSampler {
	return &RandomSampler{seed: seed, numSamples: numSamples}
}

// Name implements core.Sampler.
func (s *RandomSampler) Name() string { return "RandomSampler" }

// Indices implements core.Sampler.
func (s *RandomSampler) Indices(total int64) ([]int64, error) {
	if total < 0 {
		return nil, fmt.Errorf("random sampler: total must not be negative, got %d", total)
	}
	rng := rand.New(rand.NewSource(s.seed + s.epoch))
	s.epoch++
	order := make([]int64, total)
	for i := range order {
		order[i] = int64(i)
	}
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return capOrder(order, s.numSamples), nil
}

// SequentialSampler visits indices in their native order starting at an
// offset.
type SequentialSampler struct {
	start      int64
	numSamples int64
}

// NewSequentialSampler creates a sequential sampler starting at start;
// numSamples 0 keeps everything after the offset.
func NewSequentialSampler(start, numSamples int64) *SequentialSampler {
	return &SequentialSampler{start: start, numSamples: numSamples}
}

// Name implements core.Sampler.
func (s *SequentialSampler) Name() string { return "SequentialSampler" }

// Indices implements core.Sampler.
func (s *SequentialSampler) Indices(total int64) ([]int64, error) {
	if total < 0 {
		return nil, fmt.Errorf("sequential sampler: total must not be negative, got %d", total)
	}
	if s.start < 0 {
		return nil, fmt.Errorf("sequential sampler: start must not be negative, got %d", s.start)
	}
	if s.start >= total {
		return nil, nil
	}
	order := make([]int64, 0, total-s.start)
	for i := s.start; i < total; i++ {
		order = append(order, i)
	}
	return capOrder(order, s.numSamples), nil
}

// SubsetRandomSampler shuffles a caller-chosen subset of indices.
type SubsetRandomSampler struct {
	indices []int64
	seed    int64
	epoch   int64
}

// NewSubsetRandomSampler creates a sampler over the given indices.
func NewSubsetRandomSampler(indices []int64, seed int64) *SubsetRandomSampler {
	subset := make([]int64, len(indices))
	copy(subset, indices)
	return &SubsetRandomSampler{indices: subset, seed: seed}
}

// Name implements core.Sampler.
func (s *SubsetRandomSampler) Name() string { return "SubsetRandomSampler" }

// Indices implements core.Sampler.
func (s *SubsetRandomSampler) Indices(total int64) ([]int64, error) {
	for _, idx := range s.indices {
		if idx < 0 || idx >= total {
			return nil, fmt.Errorf("subset sampler: index %d out of range [0, %d)", idx, total)
		}
	}
	order := make([]int64, len(s.indices))
	copy(order, s.indices)
	rng := rand.New(rand.NewSource(s.seed + s.epoch))
	s.epoch++
	rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	return order, nil
}

// DistributedSampler slices a dataset across shards: positions congruent to
// shardID modulo numShards survive, optionally after a seeded shuffle.
type DistributedSampler struct {
	numShards int32
	shardID   int32
	shuffle   bool
	seed      int64
	epoch     int64
}

// NewDistributedSampler creates a sharded sampler.
func NewDistributedSampler(numShards, shardID int32, shuffle bool, seed int64) (*DistributedSampler, error) {
	if numShards < 1 {
		return nil, fmt.Errorf("distributed sampler: num_shards must be at least 1, got %d", numShards)
	}
	if shardID < 0 || shardID >= numShards {
		return nil, fmt.Errorf("distributed sampler: shard_id must be in [0, %d), got %d", numShards, shardID)
	}
	return &DistributedSampler{numShards: numShards, shardID: shardID, shuffle: shuffle, seed: seed}, nil
}

// Name implements core.Sampler.
func (s *DistributedSampler) Name() string { return "DistributedSampler" }

// Indices implements core.Sampler.
func (s *DistributedSampler) Indices(total int64) ([]int64, error) {
	if total < 0 {
		return nil, fmt.Errorf("distributed sampler: total must not be negative, got %d", total)
	}
	order := make([]int64, total)
	for i := range order {
		order[i] = int64(i)
	}
	if s.shuffle {
		rng := rand.New(rand.NewSource(s.seed + s.epoch))
		s.epoch++
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	shard := make([]int64, 0, total/int64(s.numShards)+1)
	for pos, idx := range order {
		if int32(pos%int(s.numShards)) == s.shardID {
			shard = append(shard, idx)
		}
	}
	return shard, nil
}

func capOrder(order []int64, numSamples int64) []int64 {
	if numSamples > 0 && int64(len(order)) > numSamples {
		return order[:numSamples]
	}
	return order
}
