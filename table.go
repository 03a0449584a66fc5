// Copyright 2023 Ross Light
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

package streammd

import "bytes"

// splitTableRow splits a pipe-table row into its cells, honoring
// backslash-escaped pipes and an optional leading/trailing pipe.
func splitTableRow(row []byte) [][]byte {
	row = bytes.TrimSpace(row)
	row = bytes.TrimPrefix(row, []byte("|"))
	row = bytes.TrimSuffix(row, []byte("|"))

	var cells [][]byte
	var cur []byte
	for i := 0; i < len(row); i++ {
		switch {
		case row[i] == '\\' && i+1 < len(row):
			cur = append(cur, row[i], row[i+1])
			i++
		case row[i] == '|':
			cells = append(cells, bytes.TrimSpace(cur))
			cur = nil
		default:
			cur = append(cur, row[i])
		}
	}
	cells = append(cells, bytes.TrimSpace(cur))
	return cells
}

// parseTableDelimiterRow reports whether line is a valid GFM table
// delimiter row (e.g. "| --- | :--: | ---: |") and, if so, returns the
// per-column alignment it declares.
func parseTableDelimiterRow(line []byte) ([]CellAlignment, bool) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil, false
	}
	cells := splitTableRow(trimmed)
	if len(cells) == 0 {
		return nil, false
	}
	align := make([]CellAlignment, len(cells))
	for i, c := range cells {
		c = bytes.TrimSpace(c)
		if len(c) == 0 {
			return nil, false
		}
		left := bytes.HasPrefix(c, []byte(":"))
		right := bytes.HasSuffix(c, []byte(":"))
		body := c
		if left {
			body = body[1:]
		}
		if right && len(body) > 0 {
			body = body[:len(body)-1]
		}
		if len(body) == 0 {
			return nil, false
		}
		for _, ch := range body {
			if ch != '-' {
				return nil, false
			}
		}
		switch {
		case left && right:
			align[i] = AlignCenter
		case left:
			align[i] = AlignLeft
		case right:
			align[i] = AlignRight
		default:
			align[i] = AlignNone
		}
	}
	return align, true
}
