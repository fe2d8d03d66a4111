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
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/shad-lang/shad/pkg/shad"
	"github.com/shad-lang/shad/pkg/shad/compiler"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] path",
	Short: "compile a Shad script and print its execution plan.",
	Long: `Compile the Shad file (or folder of files) at the given path and print the
	 execution plan: the WGSL of every init shader in dependency order, then the
	 step shaders repeated for the requested number of steps.  Feeding the
	 shaders to a GPU is left to an embedding runtime.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			program = compileOrExit(cmd, args[0])
			buffers = GetStringArray(cmd, "buffer")
			steps   = GetUint(cmd, "steps")
		)
		//
		for _, shader := range program.InitShaders {
			printShader(&shader)
		}
		//
		for step := uint(0); step < steps; step++ {
			fmt.Printf("// step %d\n", step+1)
			//
			for _, shader := range program.StepShaders {
				printShader(&shader)
			}
		}
		//
		for _, name := range buffers {
			printBuffer(program, name)
		}
	},
}

func printShader(shader *shad.Shader) {
	fmt.Printf("// shader %s\n%s\n\n", shader.Name, shader.Code)
}

// Print the binding metadata of a buffer given as `module.name`, or as a
// bare name when it is unambiguous.
func printBuffer(program *shad.Program, name string) {
	var (
		buffer shad.BufferInfo
		ok     bool
	)
	//
	if index := strings.LastIndex(name, "."); index >= 0 {
		id := compiler.BufferId{Module: name[:index], Name: name[index+1:]}
		buffer, ok = program.Buffer(id)
	}
	//
	if !ok {
		for _, candidate := range program.Buffers() {
			if candidate.Id.Name == name {
				buffer, ok = candidate, true
				break
			}
		}
	}
	//
	if !ok {
		fmt.Printf("unknown buffer \"%s\"\n", name)
		os.Exit(1)
	}
	//
	fmt.Printf("Buffer `%s`: %s, %d bytes, index %d\n",
		name, buffer.TypeName, buffer.Size, buffer.Index)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringArrayP("buffer", "b", []string{}, "buffer to display at the end")
	runCmd.Flags().UintP("steps", "s", 1, "number of steps to plan")
}
