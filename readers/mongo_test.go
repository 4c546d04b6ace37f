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

package readers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestMongoReader_Validation tests required option checking
func TestMongoReader_Validation(t *testing.T) {
	t.Run("missing_database", func(t *testing.T) {
		_, err := NewMongoReader(WithMongoCollection("samples"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database")
	})

	t.Run("missing_collection", func(t *testing.T) {
		_, err := NewMongoReader(WithMongoDB("training"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "collection")
	})

	t.Run("from_uri", func(t *testing.T) {
		reader, err := NewMongoReaderFromURI("mongodb://localhost:27017", "training", "samples")
		require.NoError(t, err)
		assert.NotNil(t, reader)
	})
}

// TestMongoReaderError_Formatting tests collection-tagged error messages
func TestMongoReaderError_Formatting(t *testing.T) {
	inner := errors.New("boom")

	withColl := &MongoReaderError{Op: "query", Collection: "samples", Err: inner}
	assert.Equal(t, "mongo reader query [samples]: boom", withColl.Error())
	assert.ErrorIs(t, withColl, inner)

	noColl := &MongoReaderError{Op: "connect", Err: inner}
	assert.Equal(t, "mongo reader connect: boom", noColl.Error())
}

// TestConvertBSONValue tests BSON to plain Go value conversions
func TestConvertBSONValue(t *testing.T) {
	t.Run("object_id_to_hex", func(t *testing.T) {
		id := primitive.NewObjectID()
		assert.Equal(t, id.Hex(), convertBSONValue(id))
	})

	t.Run("datetime_to_time", func(t *testing.T) {
		now := time.Now().Truncate(time.Millisecond)
		dt := primitive.NewDateTimeFromTime(now)
		converted, ok := convertBSONValue(dt).(time.Time)
		require.True(t, ok)
		assert.True(t, now.Equal(converted))
	})

	t.Run("null_and_undefined", func(t *testing.T) {
		assert.Nil(t, convertBSONValue(primitive.Null{}))
		assert.Nil(t, convertBSONValue(primitive.Undefined{}))
	})

	t.Run("binary_to_bytes", func(t *testing.T) {
		bin := primitive.Binary{Data: []byte{1, 2, 3}}
		assert.Equal(t, []byte{1, 2, 3}, convertBSONValue(bin))
	})

	t.Run("nested_documents", func(t *testing.T) {
		doc := bson.M{"meta": bson.M{"k": "v"}, "tags": bson.A{"x", int32(2)}}
		converted := convertBSONValue(doc).(map[string]any)
		assert.Equal(t, map[string]any{"k": "v"}, converted["meta"])
		assert.Equal(t, []any{"x", int32(2)}, converted["tags"])
	})

	t.Run("plain_values_pass_through", func(t *testing.T) {
		assert.Equal(t, "hello", convertBSONValue("hello"))
		assert.Equal(t, int64(7), convertBSONValue(int64(7)))
	})
}

// TestMongoReader_BuildClientOptions tests client option assembly
func TestMongoReader_BuildClientOptions(t *testing.T) {
	t.Run("valid_preference", func(t *testing.T) {
		reader, err := NewMongoReader(
			WithMongoDB("training"),
			WithMongoCollection("samples"),
			WithMongoReadPreference("secondary"),
		)
		require.NoError(t, err)

		opts, err := reader.buildClientOptions()
		require.NoError(t, err)
		assert.NotNil(t, opts.ReadPreference)
	})

	t.Run("invalid_preference", func(t *testing.T) {
		reader, err := NewMongoReader(
			WithMongoDB("training"),
			WithMongoCollection("samples"),
			WithMongoReadPreference("sometimes"),
		)
		require.NoError(t, err)

		_, err = reader.buildClientOptions()
		assert.Error(t, err)
	})

	t.Run("auth_defaults_to_database", func(t *testing.T) {
		reader, err := NewMongoReader(
			WithMongoDB("training"),
			WithMongoCollection("samples"),
			WithMongoAuth("user", "pass", ""),
		)
		require.NoError(t, err)

		opts, err := reader.buildClientOptions()
		require.NoError(t, err)
		require.NotNil(t, opts.Auth)
		assert.Equal(t, "training", opts.Auth.AuthSource)
	})
}
