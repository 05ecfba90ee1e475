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
	"encoding/hex"

	"github.com/opencontainers/go-digest"
)

// Digest is the fixed-width digest stored in the footer.
type Digest [DigestSize]byte

// Digester computes the digest of a byte slice. The format reserves
// DigestSize bytes per digest but does not fix the algorithm; a digest
// shorter than DigestSize is zero-padded on the right.
type Digester func(data []byte) Digest

// Disabled returns a digester that produces the all-zero digest. It is
// the default: writers in the field currently store zeros, so footer
// verification degrades to comparing placeholders. Real verification
// requires both sides to agree on ForAlgorithm.
func Disabled() Digester {
	return func([]byte) Digest { return Digest{} }
}

// ForAlgorithm returns a digester backed by the given algorithm.
func ForAlgorithm(algo digest.Algorithm) Digester {
	return func(data []byte) Digest {
		var out Digest
		raw, err := hex.DecodeString(algo.FromBytes(data).Encoded())
		if err != nil {
			return out
		}
		copy(out[:], raw)
		return out
	}
}
