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

// OpIter traverses the parsed operation sequence in on-disk order, which
// is replay order. It holds a non-owning view of the Reader's sequence;
// any number of iterators may be live at once.
type OpIter struct {
	ops []Operation
	idx int
}

// OpIter returns a forward iterator positioned at the first operation.
func (r *Reader) OpIter() *OpIter {
	return &OpIter{ops: r.ops}
}

// Done reports whether the iterator is exhausted.
func (it *OpIter) Done() bool {
	return it.idx >= len(it.ops)
}

// Get returns the current operation. It must not be called once Done.
func (it *OpIter) Get() *Operation {
	return &it.ops[it.idx]
}

// Next advances to the next operation.
func (it *OpIter) Next() {
	it.idx++
}

// RevOpIter traverses the sequence in exact reverse of on-disk order.
type RevOpIter struct {
	ops []Operation
	idx int
}

// RevOpIter returns a reverse iterator positioned at the last operation.
func (r *Reader) RevOpIter() *RevOpIter {
	return &RevOpIter{ops: r.ops, idx: len(r.ops) - 1}
}

// Done reports whether the iterator is exhausted.
func (it *RevOpIter) Done() bool {
	return it.idx < 0
}

// Get returns the current operation. It must not be called once Done.
func (it *RevOpIter) Get() *Operation {
	return &it.ops[it.idx]
}

// Next advances towards the front of the sequence.
func (it *RevOpIter) Next() {
	it.idx--
}
