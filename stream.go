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

import "io"

// dataStream is a finite, forward-only view over one operation's payload
// region. It is single-pass; build a fresh one to re-read.
type dataStream struct {
	r         *Reader
	offset    uint64
	remaining uint64
}

func newDataStream(r *Reader, op *Operation) *dataStream {
	return &dataStream{
		r:         r,
		offset:    op.Source,
		remaining: uint64(op.DataLength),
	}
}

func (s *dataStream) Read(p []byte) (int, error) {
	if s.remaining == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > s.remaining {
		p = p[:s.remaining]
	}
	n, err := s.r.ReadRawBytes(s.offset, p)
	if err != nil {
		return 0, err
	}
	s.offset += uint64(n)
	s.remaining -= uint64(n)
	return n, nil
}
