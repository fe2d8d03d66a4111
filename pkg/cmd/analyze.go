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

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze path",
	Short: "display the analysis result of a Shad script.",
	Long: `Compile the Shad file (or folder of files) at the given path and display the
	 analysis result: buffers, shaders and their execution order.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		program := compileOrExit(cmd, args[0])
		//
		fmt.Println("Buffers:")
		//
		for _, buffer := range program.Buffers() {
			fmt.Printf("  %s: %s (%d bytes, index %d)\n",
				buffer.Id, buffer.TypeName, buffer.Size, buffer.Index)
		}
		//
		fmt.Println("Init shaders (in execution order):")
		//
		for _, shader := range program.InitShaders {
			fmt.Printf("  %s (%d buffer(s))\n", shader.Name, len(shader.Buffers))
		}
		//
		fmt.Println("Step shaders (in execution order):")
		//
		for _, shader := range program.StepShaders {
			fmt.Printf("  %s (%d buffer(s))\n", shader.Name, len(shader.Buffers))
		}
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
