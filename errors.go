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

import "github.com/pkg/errors"

// Error categories. Failures from this package wrap exactly one of these
// (match with errors.Is), except underlying storage errors, which
// propagate as returned by the BlockSource.
var (
	// ErrFormat: the file is not a valid instance of this format
	// (magic/size/version mismatch, unknown compression tag). Never
	// recoverable.
	ErrFormat = errors.New("cowlog: invalid format")

	// ErrIntegrity: a present, trusted footer disagrees with the parsed
	// op stream (count, size, or digest mismatch).
	ErrIntegrity = errors.New("cowlog: integrity check failed")

	// ErrConsistency: the header's merge progress counter exceeds the
	// operations actually present.
	ErrConsistency = errors.New("cowlog: header inconsistent with op stream")

	// ErrBounds: a requested read falls outside the data region. The
	// on-disk metadata (or the caller) is wrong; no I/O was performed.
	ErrBounds = errors.New("cowlog: read outside data region")
)
