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

import "unsafe"

type nodeType uint8

const (
	nodeTypeBlock nodeType = iota
	nodeTypeInline
)

// Node is a reference to either a [Block] or an [Inline] in a parsed
// document tree. The zero Node is not a valid reference to anything; use
// [*Block.AsNode] or [*Inline.AsNode] to obtain one.
type Node struct {
	ptr unsafe.Pointer
	typ nodeType
}

// AsNode converts a *Block into a Node.
func (b *Block) AsNode() Node {
	return Node{ptr: unsafe.Pointer(b), typ: nodeTypeBlock}
}

// AsNode converts an *Inline into a Node.
func (in *Inline) AsNode() Node {
	return Node{ptr: unsafe.Pointer(in), typ: nodeTypeInline}
}

// IsValid reports whether the node refers to a block or inline.
func (n Node) IsValid() bool {
	return n.ptr != nil
}

// Block returns the node as a *Block, or nil if the node is an inline or
// invalid.
func (n Node) Block() *Block {
	if n.ptr == nil || n.typ != nodeTypeBlock {
		return nil
	}
	return (*Block)(n.ptr)
}

// Inline returns the node as an *Inline, or nil if the node is a block or
// invalid.
func (n Node) Inline() *Inline {
	if n.ptr == nil || n.typ != nodeTypeInline {
		return nil
	}
	return (*Inline)(n.ptr)
}

// Span returns the byte span of the underlying block or inline.
func (n Node) Span() Span {
	if b := n.Block(); b != nil {
		return b.Span()
	}
	if in := n.Inline(); in != nil {
		return in.Span()
	}
	return NullSpan()
}

// ChildCount returns the number of children the underlying block or
// inline has.
func (n Node) ChildCount() int {
	if b := n.Block(); b != nil {
		return b.ChildCount()
	}
	if in := n.Inline(); in != nil {
		return in.ChildCount()
	}
	return 0
}

// Child returns the i'th child of the underlying block or inline as a
// Node.
func (n Node) Child(i int) Node {
	if b := n.Block(); b != nil {
		return b.Child(i)
	}
	if in := n.Inline(); in != nil {
		return in.Child(i)
	}
	return Node{}
}
