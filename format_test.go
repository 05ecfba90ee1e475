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
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The wire structs must stay in lockstep with the declared record sizes;
// encoding/binary serializes them field by field with no padding.
func TestRecordSizes(t *testing.T) {
	assert.Equal(t, HeaderSize, binary.Size(Header{}))
	assert.Equal(t, OpSize, binary.Size(Operation{}))
	assert.Equal(t, OpSize, binary.Size(FooterOperation{}))
	assert.Equal(t, FooterSize, binary.Size(Footer{}))
}

func TestFooterOpFromOperation(t *testing.T) {
	op := Operation{
		Type:        OpFooter,
		DataLength:  0,
		NewBlock:    360, // OpsSize on the footer wire layout
		Source:      18,  // NumOps
	}
	fop := footerOpFromOperation(&op)
	assert.Equal(t, OpFooter, fop.Type)
	assert.Equal(t, uint64(360), fop.OpsSize)
	assert.Equal(t, uint64(18), fop.NumOps)
}

func TestNextPayloadOffset(t *testing.T) {
	assert.Equal(t, uint64(512),
		nextPayloadOffset(&Operation{Type: OpReplace, DataLength: 512}))
	assert.Equal(t, uint64(0),
		nextPayloadOffset(&Operation{Type: OpCopy, Source: 99}))
	assert.Equal(t, uint64(0),
		nextPayloadOffset(&Operation{Type: OpLabel, Source: 7}))
	assert.Equal(t, uint64(0),
		nextPayloadOffset(&Operation{Type: OpZero}))
}
