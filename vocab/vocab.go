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

package vocab

import (
	"bufio"
	"fmt"
	"os"
	"sort"
)

// Package vocab implements the vocabulary produced by the BuildVocab node: a
// token <-> id mapping trained from a frequency pass over a dataset tree, plus
// the frequency accumulator that performs the pass.

// Vocab maps tokens to dense ids in training order. A Vocab is typically
// filled by materializing a BuildVocab tree; it can also be loaded from a
// token-per-line file or built from an explicit list.
type Vocab struct {
	tokens []string
	ids    map[string]int64
}

// New creates an empty vocabulary to be filled by a BuildVocab pass.
func New() *Vocab {
	return &Vocab{ids: make(map[string]int64)}
}

// FromList builds a vocabulary from an explicit token list.
func FromList(tokens []string) (*Vocab, error) {
	v := New()
	if err := v.Assign(tokens); err != nil {
		return nil, err
	}
	return v, nil
}

// FromFile loads a token-per-line vocabulary file.
func FromFile(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vocab load: %w", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vocab load: %w", err)
	}
	return FromList(tokens)
}

// Assign replaces the vocabulary's contents with the given token order.
// Tokens must be unique and non-empty.
func (v *Vocab) Assign(tokens []string) error {
	ids := make(map[string]int64, len(tokens))
	for i, tok := range tokens {
		if tok == "" {
			return fmt.Errorf("vocab: token at id %d is empty", i)
		}
		if _, dup := ids[tok]; dup {
			return fmt.Errorf("vocab: duplicate token %q", tok)
		}
		ids[tok] = int64(i)
	}
	v.tokens = append(v.tokens[:0], tokens...)
	v.ids = ids
	return nil
}

// Len returns the number of tokens.
func (v *Vocab) Len() int {
	return len(v.tokens)
}

// Tokens returns the tokens in id order.
func (v *Vocab) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// TokenToID looks up a token's id.
func (v *Vocab) TokenToID(token string) (int64, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// IDToToken looks up the token holding an id.
func (v *Vocab) IDToToken(id int64) (string, bool) {
	if id < 0 || id >= int64(len(v.tokens)) {
		return "", false
	}
	return v.tokens[id], true
}

// Save writes the vocabulary as a token-per-line file.
func (v *Vocab) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vocab save: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, tok := range v.tokens {
		if _, err := fmt.Fprintln(w, tok); err != nil {
			f.Close()
			return fmt.Errorf("vocab save: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("vocab save: %w", err)
	}
	return f.Close()
}

// BuildOptions holds the trained-vocabulary selection parameters.
type BuildOptions struct {
	// FreqMin and FreqMax bound token frequency inclusively. FreqMax 0 means
	// no upper bound.
	FreqMin int64
	FreqMax int64
	// TopK keeps only the k most frequent survivors; 0 keeps all.
	TopK int64
	// SpecialTokens are prepended (SpecialFirst) or appended to the result.
	SpecialTokens []string
	SpecialFirst  bool
}

// Builder tallies token frequency across a dataset pass. The BuildVocab
// operator feeds it one token at a time and finishes with Tokens.
type Builder struct {
	counts map[string]int64
	total  int64
}

// NewBuilder creates an empty frequency accumulator.
func NewBuilder() *Builder {
	return &Builder{counts: make(map[string]int64)}
}

// Add tallies one token occurrence.
func (b *Builder) Add(token string) {
	b.counts[token]++
	b.total++
}

// Distinct returns the number of distinct tokens seen so far.
func (b *Builder) Distinct() int64 {
	return int64(len(b.counts))
}

// Reset clears the accumulator.
func (b *Builder) Reset() {
	b.counts = make(map[string]int64)
	b.total = 0
}

// Tokens applies the selection options and returns the final token order:
// special tokens in caller order (prepended or appended), corpus tokens by
// frequency descending with lexicographic tie-breaks. Corpus tokens that
// collide with a special token are dropped from the corpus portion so ids
// stay unique.
func (b *Builder) Tokens(opts BuildOptions) ([]string, error) {
	if opts.FreqMin < 0 {
		return nil, fmt.Errorf("vocab build: freq_range minimum must not be negative, got %d", opts.FreqMin)
	}
	if opts.FreqMax != 0 && opts.FreqMax < opts.FreqMin {
		return nil, fmt.Errorf("vocab build: freq_range maximum %d is below minimum %d", opts.FreqMax, opts.FreqMin)
	}
	special := make(map[string]struct{}, len(opts.SpecialTokens))
	for _, tok := range opts.SpecialTokens {
		if tok == "" {
			return nil, fmt.Errorf("vocab build: special tokens must not be empty")
		}
		if _, dup := special[tok]; dup {
			return nil, fmt.Errorf("vocab build: duplicate special token %q", tok)
		}
		special[tok] = struct{}{}
	}

	corpus := make([]string, 0, len(b.counts))
	for tok, n := range b.counts {
		if n < opts.FreqMin {
			continue
		}
		if opts.FreqMax != 0 && n > opts.FreqMax {
			continue
		}
		if _, isSpecial := special[tok]; isSpecial {
			continue
		}
		corpus = append(corpus, tok)
	}
	sort.Slice(corpus, func(i, j int) bool {
		ci, cj := b.counts[corpus[i]], b.counts[corpus[j]]
		if ci != cj {
			return ci > cj
		}
		return corpus[i] < corpus[j]
	})
	if opts.TopK > 0 && int64(len(corpus)) > opts.TopK {
		corpus = corpus[:opts.TopK]
	}

	out := make([]string, 0, len(corpus)+len(opts.SpecialTokens))
	if opts.SpecialFirst {
		out = append(out, opts.SpecialTokens...)
		out = append(out, corpus...)
	} else {
		out = append(out, corpus...)
		out = append(out, opts.SpecialTokens...)
	}
	return out, nil
}
