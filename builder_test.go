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
	"encoding/binary"
)

// logBuilder assembles cow log files for tests. The library itself never
// writes; this reproduces just enough of the writer's wire format to
// feed the reader.
type logBuilder struct {
	blockSize   uint32
	numMergeOps uint64
	digester    Digester
	entries     []builderEntry
}

type builderEntry struct {
	op      Operation
	payload []byte
}

func newLogBuilder() *logBuilder {
	return &logBuilder{blockSize: 4096, digester: Disabled()}
}

func (b *logBuilder) withMergeOps(n uint64) *logBuilder {
	b.numMergeOps = n
	return b
}

func (b *logBuilder) withDigester(d Digester) *logBuilder {
	b.digester = d
	return b
}

func (b *logBuilder) addCopy(newBlock, srcBlock uint64) *logBuilder {
	b.entries = append(b.entries, builderEntry{
		op: Operation{Type: OpCopy, NewBlock: newBlock, Source: srcBlock},
	})
	return b
}

func (b *logBuilder) addZero(newBlock uint64) *logBuilder {
	b.entries = append(b.entries, builderEntry{
		op: Operation{Type: OpZero, NewBlock: newBlock},
	})
	return b
}

func (b *logBuilder) addLabel(label uint64) *logBuilder {
	b.entries = append(b.entries, builderEntry{
		op: Operation{Type: OpLabel, Source: label},
	})
	return b
}

// addReplace takes the payload as stored on disk (already compressed for
// gz/zstd tags). The payload's file offset is filled in at build time.
func (b *logBuilder) addReplace(newBlock uint64, payload []byte, c Compression) *logBuilder {
	b.entries = append(b.entries, builderEntry{
		op: Operation{
			Type:        OpReplace,
			NewBlock:    newBlock,
			Compression: c,
			DataLength:  uint16(len(payload)),
		},
		payload: payload,
	})
	return b
}

// build serializes the log. withFooter controls whether the trailing
// footer is written; leaving it off simulates a crash before finalize.
func (b *logBuilder) build(withFooter bool) []byte {
	var buf bytes.Buffer
	h := Header{
		Magic:        MagicNumber,
		MajorVersion: VersionMajor,
		MinorVersion: VersionMinor,
		HeaderSize:   HeaderSize,
		FooterSize:   FooterSize,
		BlockSize:    b.blockSize,
		NumMergeOps:  b.numMergeOps,
	}
	binary.Write(&buf, binary.LittleEndian, &h)

	recs := make([]Operation, 0, len(b.entries))
	for _, e := range b.entries {
		op := e.op
		if op.Type == OpReplace {
			op.Source = uint64(buf.Len()) + OpSize
		}
		binary.Write(&buf, binary.LittleEndian, &op)
		buf.Write(e.payload)
		recs = append(recs, op)
	}

	if withFooter {
		buf.Write(b.footerBytes(recs))
	}
	return buf.Bytes()
}

func (b *logBuilder) footerBytes(recs []Operation) []byte {
	fop := FooterOperation{
		Type:    OpFooter,
		OpsSize: uint64(len(recs)) * OpSize,
		NumOps:  uint64(len(recs)),
	}
	fdata := FooterData{
		OpsDigest:    b.digester(encodeOperations(recs)),
		FooterDigest: b.digester(encodeFooterOp(&fop)),
	}
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, &fop)
	binary.Write(&buf, binary.LittleEndian, &fdata)
	return buf.Bytes()
}

func (b *logBuilder) records() []Operation {
	data := b.build(false)
	recs := make([]Operation, 0, len(b.entries))
	pos := uint64(HeaderSize)
	for range b.entries {
		var op Operation
		decodeOperation(data[pos:pos+OpSize], &op)
		pos += OpSize + nextPayloadOffset(&op)
		recs = append(recs, op)
	}
	return recs
}

func parseBytes(data []byte, opts ...Option) (*Reader, error) {
	return NewReader(&ByteBlockSource{Source: data}, opts...)
}
