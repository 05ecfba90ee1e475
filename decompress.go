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
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// defaultChunkSize is used when the header carries no block size.
const defaultChunkSize = 4096

// ReadData decodes op's payload into sink, dispatching on the op's
// compression tag. No partial-output guarantee is made on error: the
// sink may have received some bytes already.
func (r *Reader) ReadData(op *Operation, sink io.Writer) error {
	var dec decompressor
	switch op.Compression {
	case CompressNone:
		dec = uncompressed{}
	case CompressGz:
		dec = gzDecompressor{}
	case CompressZstd:
		dec = zstdDecompressor{}
	default:
		return errors.Wrapf(ErrFormat, "unknown compression type %d", op.Compression)
	}
	return dec.decompress(newDataStream(r, op), sink, r.header.BlockSize)
}

// decompressor drives one codec from a source stream into a sink,
// chunked by the format's block size.
type decompressor interface {
	decompress(src io.Reader, sink io.Writer, blockSize uint32) error
}

// copyChunked moves src to dst in blockSize chunks. io.Copy would do,
// but the chunk size is part of the decode contract, so the loop is
// explicit.
func copyChunked(dst io.Writer, src io.Reader, blockSize uint32) error {
	if blockSize == 0 {
		blockSize = defaultChunkSize
	}
	buf := make([]byte, blockSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

type uncompressed struct{}

func (uncompressed) decompress(src io.Reader, sink io.Writer, blockSize uint32) error {
	return copyChunked(sink, src, blockSize)
}

type gzDecompressor struct{}

func (gzDecompressor) decompress(src io.Reader, sink io.Writer, blockSize uint32) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return errors.Wrap(err, "opening gz stream")
	}
	defer gz.Close()
	return copyChunked(sink, gz, blockSize)
}

type zstdDecompressor struct{}

func (zstdDecompressor) decompress(src io.Reader, sink io.Writer, blockSize uint32) error {
	// Concurrency 1: payloads are small and decode is already driven
	// synchronously per operation.
	dec, err := zstd.NewReader(src, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return errors.Wrap(err, "opening zstd stream")
	}
	defer dec.Close()
	return copyChunked(sink, dec, blockSize)
}
