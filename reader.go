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

// Package cowlog reads copy-on-write snapshot operation logs: append-only
// files of block-level edits that are later replayed against a base
// device. The reader validates the log, recovers from torn tails left by
// a crash mid-write, trims operations already merged by a previous run,
// and decodes per-operation payloads. It never writes.
package cowlog

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Option configures a Reader.
type Option func(*Reader)

// WithDigester sets the digest capability used to verify the footer
// against the op stream. The default is Disabled.
func WithDigester(d Digester) Option {
	return func(r *Reader) { r.digester = d }
}

// Reader provides access to a parsed operation log. The full file is
// parsed once on construction; all accessors afterwards are cheap and
// never touch the file again, except payload decoding. A Reader is safe
// for concurrent readers provided the backing file is stable.
type Reader struct {
	header    Header
	footer    Footer
	hasFooter bool

	watermark labelWatermark

	src  BlockSource
	size uint64

	digester Digester

	// Parsed, trimmed op sequence in on-disk order. Shared read-only
	// with iterators; never mutated after parse.
	ops []Operation
}

// Open opens the named file and parses it.
func Open(name string, opts ...Option) (*Reader, error) {
	src, err := NewFileBlockSource(name)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(src, opts...)
	if err != nil {
		src.Close()
		return nil, err
	}
	return r, nil
}

// NewReader parses the log in src. On success the Reader owns src and
// will close it on Close; on failure src is left to the caller.
func NewReader(src BlockSource, opts ...Option) (*Reader, error) {
	r := &Reader{
		src:      src,
		size:     src.Size(),
		digester: Disabled(),
	}
	for _, o := range opts {
		o(r)
	}

	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	if err := r.probeFooter(); err != nil {
		return nil, err
	}
	if err := r.parseOps(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the underlying block source. Iterators obtained from
// the Reader stay usable (the op sequence is in memory), but payload
// decoding is not.
func (r *Reader) Close() error {
	return r.src.Close()
}

// Header returns the validated file header.
func (r *Reader) Header() Header {
	return r.header
}

// Footer returns the footer and whether one was found. A file left
// unfinalized by a crash has none.
func (r *Reader) Footer() (Footer, bool) {
	if !r.hasFooter {
		return Footer{}, false
	}
	return r.footer, true
}

// LastLabel returns the most recent label known to have been durably
// flushed, if any.
func (r *Reader) LastLabel() (uint64, bool) {
	return r.watermark.get()
}

// UpdateMergeProgress records that n more operations have been merged.
// It only adjusts the in-memory counter for the merge executor's
// bookkeeping; the file is never touched.
func (r *Reader) UpdateMergeProgress(n uint64) {
	r.header.NumMergeOps += n
}

func (r *Reader) parseHeader() error {
	buf, err := r.src.ReadBlock(0, HeaderSize)
	if err != nil {
		return errors.Wrap(err, "reading header")
	}
	if len(buf) < HeaderSize {
		return errors.Wrapf(ErrFormat, "file too small for header (%d bytes)", r.size)
	}
	if err := decodeHeader(buf, &r.header); err != nil {
		return errors.Wrap(err, "decoding header")
	}

	h := &r.header
	if h.Magic != MagicNumber {
		return errors.Wrapf(ErrFormat, "magic %#x, want %#x", h.Magic, MagicNumber)
	}
	if h.HeaderSize != HeaderSize {
		return errors.Wrapf(ErrFormat, "header size %d, want %d", h.HeaderSize, HeaderSize)
	}
	if h.FooterSize != FooterSize {
		return errors.Wrapf(ErrFormat, "footer size %d, want %d", h.FooterSize, FooterSize)
	}
	if h.MajorVersion != VersionMajor || h.MinorVersion != VersionMinor {
		return errors.Wrapf(ErrFormat, "version %d.%d, want %d.%d",
			h.MajorVersion, h.MinorVersion, VersionMajor, VersionMinor)
	}
	return nil
}

// probeFooter reads the trailing FooterSize bytes and accepts them as the
// footer only if they carry the footer type tag. Anything else means the
// file was not cleanly finalized.
func (r *Reader) probeFooter() error {
	if r.size < HeaderSize+FooterSize {
		return nil
	}
	buf, err := r.src.ReadBlock(r.size-FooterSize, FooterSize)
	if err != nil {
		return errors.Wrap(err, "reading footer")
	}
	if len(buf) < FooterSize {
		return nil
	}
	var f Footer
	if err := decodeFooter(buf, &f); err != nil {
		return errors.Wrap(err, "decoding footer")
	}
	if f.Op.Type == OpFooter {
		r.footer = f
		r.hasFooter = true
	}
	return nil
}

func (r *Reader) parseOps() error {
	pos := uint64(HeaderSize)

	// Scan until the footer region, or with no footer, up to and
	// including the last position that can still hold one full record.
	// Trailing bytes shorter than a record are a torn write and ignored.
	lastPos := r.size - FooterSize
	if !r.hasFooter {
		lastPos = r.size - OpSize + 1
	}

	var ops []Operation
	if r.hasFooter {
		ops = make([]Operation, 0, r.footer.Op.NumOps)
	}

	for pos < lastPos {
		buf, err := r.src.ReadBlock(pos, OpSize)
		if err != nil {
			return errors.Wrapf(err, "reading op at %d", pos)
		}
		var op Operation
		if err := decodeOperation(buf, &op); err != nil {
			return errors.Wrapf(err, "decoding op at %d", pos)
		}
		pos += OpSize + nextPayloadOffset(&op)

		// Another record read successfully: any label pending from an
		// earlier record is now known to have been flushed.
		r.watermark.promote()

		switch op.Type {
		case OpLabel:
			// With a footer the file cannot have been truncated
			// mid-write, so the label is trusted immediately. Without
			// one, a label at the very tail could itself be torn; hold
			// it until another record confirms the flush completed.
			if r.hasFooter {
				r.watermark.commit(op.Source)
			} else {
				r.watermark.observe(op.Source)
			}
			ops = append(ops, op)

		case OpFooter:
			// The footer was appended but the file never truncated to
			// its final size. Capture it, read its digest part, and
			// stop; it is not a user operation.
			dbuf, err := r.src.ReadBlock(pos, FooterSize-OpSize)
			if err == nil && len(dbuf) == FooterSize-OpSize {
				r.footer.Op = footerOpFromOperation(&op)
				if err := decodeFooterData(dbuf, &r.footer.Data); err != nil {
					return errors.Wrapf(err, "decoding inline footer at %d", pos)
				}
				r.hasFooter = true
				r.watermark.promote()
			}
			return r.finishOps(ops)

		default:
			ops = append(ops, op)
		}
	}

	return r.finishOps(ops)
}

func (r *Reader) finishOps(ops []Operation) error {
	if r.hasFooter {
		if err := r.verifyFooter(ops); err != nil {
			return err
		}
	} else {
		logrus.Info("cowlog: no footer, recovered data")
	}

	trimmed, err := trimMerged(ops, r.header.NumMergeOps)
	if err != nil {
		return err
	}
	r.ops = trimmed
	return nil
}

func (r *Reader) verifyFooter(ops []Operation) error {
	if uint64(len(ops)) != r.footer.Op.NumOps {
		return errors.Wrapf(ErrIntegrity, "parsed %d ops, footer declares %d",
			len(ops), r.footer.Op.NumOps)
	}
	if uint64(len(ops))*OpSize != r.footer.Op.OpsSize {
		return errors.Wrapf(ErrIntegrity, "op records span %d bytes, footer declares %d",
			uint64(len(ops))*OpSize, r.footer.Op.OpsSize)
	}
	if got := r.digester(encodeFooterOp(&r.footer.Op)); got != r.footer.Data.FooterDigest {
		return errors.Wrap(ErrIntegrity, "footer digest mismatch")
	}
	if got := r.digester(encodeOperations(ops)); got != r.footer.Data.OpsDigest {
		return errors.Wrap(ErrIntegrity, "ops digest mismatch")
	}
	return nil
}

// trimMerged drops the leading numMergeOps mergeable operations, plus any
// metadata records interleaved among them, from a prior partially
// completed merge.
func trimMerged(ops []Operation, numMergeOps uint64) ([]Operation, error) {
	if numMergeOps == 0 {
		return ops, nil
	}

	remaining := numMergeOps
	i := 0
	for remaining > 0 {
		if i >= len(ops) {
			return nil, errors.Wrapf(ErrConsistency,
				"header declares %d merged ops, stream holds %d mergeable ops",
				numMergeOps, numMergeOps-remaining)
		}
		switch ops[i].Type {
		case OpLabel, OpFooter:
			// metadata, does not count against merge progress
		default:
			remaining--
		}
		i++
	}
	return ops[i:], nil
}

// ReadRawBytes fills buf with bytes starting at offset, which must lie
// entirely inside the data region between the header and the reserved
// trailing footer region. A violation returns ErrBounds before any I/O:
// it means the op metadata (or the caller) is wrong, not the storage.
func (r *Reader) ReadRawBytes(offset uint64, buf []byte) (int, error) {
	length := uint64(len(buf))
	if r.size < HeaderSize+FooterSize {
		return 0, errors.Wrapf(ErrBounds, "no data region in %d byte file", r.size)
	}
	dataEnd := r.size - FooterSize
	if offset < HeaderSize || offset >= dataEnd || length >= r.size ||
		offset+length > dataEnd {
		return 0, errors.Wrapf(ErrBounds, "offset %d, %d bytes", offset, length)
	}
	b, err := r.src.ReadBlock(offset, len(buf))
	if err != nil {
		return 0, err
	}
	return copy(buf, b), nil
}

// labelState tracks how far the label watermark has been validated.
type labelState int

const (
	// no label seen
	labelNone labelState = iota
	// a label was seen but nothing yet proves its flush completed
	labelPending
	// a durably flushed label is known
	labelCommitted
	// a durably flushed label is known, and a newer unconfirmed
	// candidate follows it
	labelCommittedPending
)

// labelWatermark is the state machine for the last-label derivation. A
// label record in a footer-less file is only a candidate until a later
// record (or an inline footer) proves the write that produced it was
// complete.
type labelWatermark struct {
	state     labelState
	committed uint64
	pending   uint64
}

// observe records an unconfirmed candidate label.
func (w *labelWatermark) observe(label uint64) {
	w.pending = label
	switch w.state {
	case labelNone, labelPending:
		w.state = labelPending
	case labelCommitted, labelCommittedPending:
		w.state = labelCommittedPending
	}
}

// commit records a label proven durable (footer-backed file).
func (w *labelWatermark) commit(label uint64) {
	w.committed = label
	w.state = labelCommitted
}

// promote confirms the pending candidate, if any.
func (w *labelWatermark) promote() {
	switch w.state {
	case labelPending, labelCommittedPending:
		w.committed = w.pending
		w.state = labelCommitted
	}
}

func (w *labelWatermark) get() (uint64, bool) {
	switch w.state {
	case labelCommitted, labelCommittedPending:
		return w.committed, true
	}
	return 0, false
}
