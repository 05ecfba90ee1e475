// Copyright 2021 the cowlog Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cowlog

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	require.NoError(t, err)
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func TestReadDataCodecs(t *testing.T) {
	// Larger than one 4096 chunk so decode spans several chunks.
	plain := randBytes(3 * 4096)

	cases := []struct {
		name    string
		comp    Compression
		payload []byte
	}{
		{"none", CompressNone, plain},
		{"gz", CompressGz, gzBytes(t, plain)},
		{"zstd", CompressZstd, zstdBytes(t, plain)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := newLogBuilder().addReplace(1, tc.payload, tc.comp).build(true)
			r, err := parseBytes(data)
			require.NoError(t, err)
			defer r.Close()

			var sink bytes.Buffer
			require.NoError(t, r.ReadData(r.OpIter().Get(), &sink))
			assert.Equal(t, plain, sink.Bytes())
		})
	}
}

// An unknown compression tag must fail dispatch before any byte of the
// payload is read.
func TestReadDataUnknownCompression(t *testing.T) {
	data := newLogBuilder().addReplace(1, randBytes(64), Compression(9)).build(true)

	src := &countingSource{BlockSource: &ByteBlockSource{Source: data}}
	r, err := NewReader(src)
	require.NoError(t, err)
	defer r.Close()

	op := r.OpIter().Get()
	src.reads = 0
	err = r.ReadData(op, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrFormat)
	assert.Zero(t, src.reads)
}

func TestDataStreamBounded(t *testing.T) {
	payload := randBytes(100)
	data := newLogBuilder().addReplace(1, payload, CompressNone).build(true)
	r, err := parseBytes(data)
	require.NoError(t, err)
	defer r.Close()

	s := newDataStream(r, r.OpIter().Get())
	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Exhausted: every further read reports end of stream.
	n, err := s.Read(make([]byte, 10))
	assert.Zero(t, n)
	assert.Equal(t, io.EOF, err)
}

// A corrupt record pointing outside the data region must surface the
// bounds violation through decode, not an I/O error.
func TestDecodeCorruptPayloadOffset(t *testing.T) {
	data := newLogBuilder().addReplace(1, randBytes(64), CompressNone).build(true)
	r, err := parseBytes(data)
	require.NoError(t, err)
	defer r.Close()

	op := *r.OpIter().Get()
	op.Source = uint64(len(data)) // past EOF
	err = r.ReadData(&op, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrBounds)
}
