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

// MagicNumber identifies a cow operation log ("CowcOW" packed into a u64).
const MagicNumber uint64 = 0x436f77634f57

// The single format revision this reader supports.
const (
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0
)

// Fixed record sizes, in bytes. HeaderSize and FooterSize are also stored
// in the header itself; a file declaring anything else is not ours.
const (
	HeaderSize = 28
	FooterSize = 84
	OpSize     = 20
)

// DigestSize is the space reserved in the footer for each digest. The
// algorithm is not fixed by the format; see Digester.
const DigestSize = 32

// OpType tags an operation record.
type OpType uint8

const (
	// OpCopy copies Source block to NewBlock on the base device.
	OpCopy OpType = 1
	// OpReplace writes the payload following the record to NewBlock.
	OpReplace OpType = 2
	// OpZero zero-fills NewBlock.
	OpZero OpType = 3
	// OpLabel marks a flush point; Source holds the label value.
	OpLabel OpType = 4
	// OpFooter marks the footer metadata. Normally it lives in the
	// trailing footer region, but a crash before the final truncate can
	// leave it inline in the op stream.
	OpFooter OpType = 255
)

func (t OpType) String() string {
	switch t {
	case OpCopy:
		return "copy"
	case OpReplace:
		return "replace"
	case OpZero:
		return "zero"
	case OpLabel:
		return "label"
	case OpFooter:
		return "footer"
	}
	return "unknown"
}

// Compression tags the codec of a Replace payload.
type Compression uint8

const (
	CompressNone Compression = 0
	CompressGz   Compression = 1
	CompressZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressNone:
		return "none"
	case CompressGz:
		return "gz"
	case CompressZstd:
		return "zstd"
	}
	return "unknown"
}
