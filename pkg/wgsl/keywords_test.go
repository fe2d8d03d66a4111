// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package wgsl

import "testing"

func TestIsIdentAccepted(t *testing.T) {
	accepted := []string{"x", "x_0", "total_42", "Point_7", "op_add_3", "_leading"}
	//
	for _, name := range accepted {
		if !IsIdentAccepted(name) {
			t.Errorf("%q rejected, expected accepted", name)
		}
	}
	//
	rejected := []string{"_", "__add__", "__x", "storage", "var", "fn", "vec4", "read_write"}
	//
	for _, name := range rejected {
		if IsIdentAccepted(name) {
			t.Errorf("%q accepted, expected rejected", name)
		}
	}
}
