// Copyright (C) 2019-2025 Algorand, Inc.
// This file is part of go-zkvm
//
// go-zkvm is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-zkvm is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-zkvm.  If not, see <https://www.gnu.org/licenses/>.

package protocol

import (
	"fmt"
	"sync"

	"github.com/algorand/go-codec/codec"
)

// msgpHandle encodes stored records. Map keys are sorted and unknown
// fields are rejected, so equal records always encode to equal bytes.
var msgpHandle = new(codec.MsgpackHandle)

// jsonHandle encodes the command-line input and output files.
var jsonHandle = new(codec.JsonHandle)

func init() {
	for _, h := range []*codec.BasicHandle{&msgpHandle.BasicHandle, &jsonHandle.BasicHandle} {
		h.ErrorIfNoField = true
		h.ErrorIfNoArrayExpand = true
		h.Canonical = true
		h.RecursiveEmptyCheck = true
	}
	msgpHandle.WriteExt = true
	msgpHandle.PositiveIntUnsigned = true
	msgpHandle.Raw = true

	jsonHandle.Indent = 2
	jsonHandle.HTMLCharsAsIs = true
	jsonHandle.MapKeyAsString = true
}

var encoderPool = sync.Pool{
	New: func() interface{} {
		return codec.NewEncoderBytes(nil, msgpHandle)
	},
}

// Encode returns the msgpack encoding of obj.
func Encode(obj interface{}) []byte {
	enc := encoderPool.Get().(*codec.Encoder)
	buf := make([]byte, 0, 64)
	enc.ResetBytes(&buf)
	enc.MustEncode(obj)
	encoderPool.Put(enc)
	return buf
}

// Decode decodes the msgpack record b into objptr. Trailing bytes after the
// record are an error.
func Decode(b []byte, objptr interface{}) error {
	dec := codec.NewDecoderBytes(b, msgpHandle)
	if err := dec.Decode(objptr); err != nil {
		return err
	}
	if n := dec.NumBytesRead(); n != len(b) {
		return fmt.Errorf("%d trailing bytes after record", len(b)-n)
	}
	return nil
}

// EncodeJSON returns the indented JSON encoding of obj.
func EncodeJSON(obj interface{}) []byte {
	var b []byte
	codec.NewEncoderBytes(&b, jsonHandle).MustEncode(obj)
	return b
}

// DecodeJSON decodes the JSON document b into objptr.
func DecodeJSON(b []byte, objptr interface{}) error {
	return codec.NewDecoderBytes(b, jsonHandle).Decode(objptr)
}
