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

// Header is the fixed record at the start of the file. All multi-byte
// fields are little-endian, here and in every other record.
type Header struct {
	Magic        uint64
	MajorVersion uint16
	MinorVersion uint16
	HeaderSize   uint16
	FooterSize   uint16
	BlockSize    uint32
	NumMergeOps  uint64
}

// Operation is one fixed-size record of the op stream. A Replace op is
// followed by DataLength payload bytes; Source then holds the absolute
// file offset of that payload. For Copy, Source is the source block; for
// Label, the label value.
type Operation struct {
	Type        OpType
	Compression Compression
	DataLength  uint16
	NewBlock    uint64
	Source      uint64
}

// FooterOperation is the metadata part of the footer. It shares the
// Operation wire layout so an inline footer can be recognized while
// scanning ops: OpsSize and NumOps occupy the NewBlock/Source bytes.
type FooterOperation struct {
	Type        OpType
	Compression Compression
	DataLength  uint16
	OpsSize     uint64
	NumOps      uint64
}

// FooterData is the digest part of the footer.
type FooterData struct {
	OpsDigest    [DigestSize]byte
	FooterDigest [DigestSize]byte
}

// Footer is the record in the last FooterSize bytes of a cleanly
// finalized file.
type Footer struct {
	Op   FooterOperation
	Data FooterData
}

func decodeHeader(buf []byte, h *Header) error {
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, h)
}

func decodeOperation(buf []byte, op *Operation) error {
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, op)
}

func decodeFooter(buf []byte, f *Footer) error {
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, f)
}

func decodeFooterData(buf []byte, d *FooterData) error {
	return binary.Read(bytes.NewReader(buf), binary.LittleEndian, d)
}

// footerOpFromOperation reinterprets an op record scanned from the stream
// as footer metadata, for the inline-footer recovery path.
func footerOpFromOperation(op *Operation) FooterOperation {
	return FooterOperation{
		Type:        op.Type,
		Compression: op.Compression,
		DataLength:  op.DataLength,
		OpsSize:     op.NewBlock,
		NumOps:      op.Source,
	}
}

func encodeFooterOp(op *FooterOperation) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, op)
	return buf.Bytes()
}

func encodeOperations(ops []Operation) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, ops)
	return buf.Bytes()
}

// nextPayloadOffset returns how far past an op record its payload
// extends. Only Replace carries a payload.
func nextPayloadOffset(op *Operation) uint64 {
	if op.Type == OpReplace {
		return uint64(op.DataLength)
	}
	return 0
}
