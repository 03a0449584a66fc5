// Copyright 2024 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package format_test

import (
	"bytes"
	"os"

	"github.com/streammd/streammd"
	"github.com/streammd/streammd/format"
)

func ExampleFormat() {
	p := streammd.NewParser()
	blocks := p.Parse([]byte(`
 Hello, World!


This is a very loose document with:
  - Wildly indented blocks
 - A shortcut reference [link],
   along with [inline links]( https://www.example.com/ "with titles" )

[link]: https://www.example.com/
`), false)
	out := new(bytes.Buffer)
	if err := format.Format(out, blocks); err != nil {
		// Writing in-memory shouldn't fail.
		panic(err)
	}
	os.Stdout.Write(out.Bytes())
	// Output:
	// Hello, World!
	//
	// This is a very loose document with:
	//
	// - Wildly indented blocks
	// - A shortcut reference [link](https://www.example.com/),
	//   along with [inline links](https://www.example.com/ "with titles")
	//
	// [link]: https://www.example.com/
}
