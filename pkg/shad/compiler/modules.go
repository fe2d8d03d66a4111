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
package compiler

import (
	"strings"

	"github.com/shad-lang/shad/pkg/shad/ast"
)

// RegisterModules computes, for every module, the ordered list of modules
// visible from it: the module itself, followed by its imports in reverse
// textual order, followed by the prelude.  Unknown imports produce an error
// and are omitted from the list, so that resolution can continue.
func RegisterModules(a *Analysis) {
	for _, module := range a.Modules {
		var imports []string
		//
		for _, item := range a.Asts[module].Items {
			imported, ok := item.(*ast.Import)
			if !ok {
				continue
			}
			//
			name := importedModule(module, imported)
			//
			if _, ok := a.Asts[name]; ok {
				imports = append(imports, name)
			} else {
				a.Error(errModuleNotFound(imported, name))
			}
		}
		//
		visible := []string{module}
		// Imports in reverse textual order
		for i := len(imports) - 1; i >= 0; i-- {
			visible = append(visible, imports[i])
		}
		// The prelude is visible from every module
		if module != PreludeModule {
			visible = append(visible, PreludeModule)
		}
		//
		a.VisibleModules[module] = visible
	}
}

// Compute the module named by an import item.  A path without `~` segments is
// absolute from the source root; each leading `~` segment drops one trailing
// segment of the importing module's name, so a single `~` names a module in
// the importing module's own directory.
func importedModule(current string, imported *ast.Import) string {
	segments := make([]string, 0, len(imported.Segments))
	//
	for i := range imported.Segments {
		segments = append(segments, imported.Segments[i].Label)
	}
	//
	if imported.ParentCount == 0 {
		return strings.Join(segments, ".")
	}
	// Drop the importing module's own name, then one further directory per
	// additional `~`.
	base := strings.Split(current, ".")
	drop := imported.ParentCount
	//
	if drop > len(base) {
		drop = len(base)
	}
	//
	base = base[:len(base)-drop]
	//
	return strings.Join(append(base, segments...), ".")
}
