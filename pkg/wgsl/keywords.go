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

import "strings"

// wgslReserved contains the WGSL keywords and reserved words which must not
// appear as emitted identifiers.  Based on the WGSL specification keyword and
// reserved-word lists.
var wgslReserved = map[string]struct{}{
	// Keywords
	"alias": {}, "break": {}, "case": {}, "const": {}, "const_assert": {},
	"continue": {}, "continuing": {}, "default": {}, "diagnostic": {},
	"discard": {}, "else": {}, "enable": {}, "false": {}, "fn": {}, "for": {},
	"if": {}, "let": {}, "loop": {}, "override": {}, "requires": {},
	"return": {}, "struct": {}, "switch": {}, "true": {}, "var": {},
	"while": {},

	// Predeclared types and type generators
	"array": {}, "atomic": {}, "bool": {}, "f16": {}, "f32": {}, "i32": {},
	"mat2x2": {}, "mat2x3": {}, "mat2x4": {}, "mat3x2": {}, "mat3x3": {},
	"mat3x4": {}, "mat4x2": {}, "mat4x3": {}, "mat4x4": {}, "ptr": {},
	"sampler": {}, "sampler_comparison": {}, "texture_1d": {},
	"texture_2d": {}, "texture_2d_array": {}, "texture_3d": {},
	"texture_cube": {}, "texture_cube_array": {}, "u32": {}, "vec2": {},
	"vec3": {}, "vec4": {},

	// Address spaces and qualifiers
	"function": {}, "private": {}, "read": {}, "read_write": {},
	"storage": {}, "uniform": {}, "workgroup": {}, "write": {},

	// Reserved words
	"as": {}, "asm": {}, "async": {}, "attribute": {}, "auto": {},
	"await": {}, "become": {}, "cast": {}, "catch": {}, "class": {},
	"co_await": {}, "co_return": {}, "co_yield": {}, "coherent": {},
	"common": {}, "compile": {}, "compile_fragment": {}, "concept": {},
	"constexpr": {}, "constinit": {}, "crate": {}, "debugger": {},
	"decltype": {}, "delete": {}, "demote": {}, "demote_to_helper": {},
	"do": {}, "dynamic_cast": {}, "enum": {}, "explicit": {}, "export": {},
	"extends": {}, "extern": {}, "external": {}, "fallthrough": {},
	"filter": {}, "final": {}, "finally": {}, "friend": {}, "from": {},
	"fxgroup": {}, "get": {}, "goto": {}, "groupshared": {}, "highp": {},
	"impl": {}, "implements": {}, "import": {}, "inline": {},
	"instanceof": {}, "interface": {}, "layout": {}, "lowp": {},
	"macro": {}, "macro_rules": {}, "match": {}, "mediump": {}, "meta": {},
	"mod": {}, "module": {}, "move": {}, "mut": {}, "mutable": {},
	"namespace": {}, "new": {}, "nil": {}, "noexcept": {}, "noinline": {},
	"nointerpolation": {}, "noperspective": {}, "null": {}, "nullptr": {},
	"of": {}, "operator": {}, "package": {}, "packoffset": {},
	"partition": {}, "pass": {}, "patch": {}, "pixelfragment": {},
	"precise": {}, "precision": {}, "premerge": {}, "priv": {},
	"protected": {}, "pub": {}, "public": {}, "readonly": {}, "ref": {},
	"regardless": {}, "register": {}, "reinterpret_cast": {},
	"require": {}, "resource": {}, "restrict": {}, "self": {}, "set": {},
	"shared": {}, "sizeof": {}, "smooth": {}, "snorm": {}, "static": {},
	"static_assert": {}, "static_cast": {}, "std": {}, "subroutine": {},
	"super": {}, "target": {}, "template": {}, "this": {}, "thread_local": {},
	"throw": {}, "trait": {}, "try": {}, "type": {}, "typedef": {},
	"typeid": {}, "typename": {}, "typeof": {}, "union": {}, "unless": {},
	"unorm": {}, "unsafe": {}, "unsized": {}, "use": {}, "using": {},
	"varying": {}, "virtual": {}, "volatile": {}, "wgsl": {}, "where": {},
	"with": {}, "writeonly": {}, "yield": {},
}

// IsIdentAccepted reports whether an identifier may appear in emitted WGSL.
// Names equal to `_`, beginning with `__`, or reserved by WGSL are rejected;
// emitting one is an internal invariant violation.
//
// Based on https://www.w3.org/TR/WGSL/#identifiers
func IsIdentAccepted(ident string) bool {
	if ident == "_" || strings.HasPrefix(ident, "__") {
		return false
	}
	//
	_, reserved := wgslReserved[ident]
	//
	return !reserved
}
