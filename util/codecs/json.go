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

package codecs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
)

// NewFormattedJSONEncoder returns a json encoder configured for
// pretty-printed output (human-readable)
func NewFormattedJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "\t")
	enc.SetEscapeHTML(false)
	return enc
}

// LoadObjectFromFile implements the common pattern for loading an instance
// of an object from a json file.
func LoadObjectFromFile(filename string, object interface{}) (err error) {
	f, err := os.Open(filename)
	if err != nil {
		return
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	err = dec.Decode(object)
	return
}

// SaveObjectToFile implements the common pattern for saving an object to a file as json
func SaveObjectToFile(filename string, object interface{}, prettyFormat bool) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	var enc *json.Encoder
	if prettyFormat {
		enc = NewFormattedJSONEncoder(f)
	} else {
		enc = json.NewEncoder(f)
	}
	return enc.Encode(object)
}

// SaveNonDefaultValuesToFile saves the exported fields of the struct object
// that differ from defaultObject, plus the fields named in always, in field
// declaration order.
func SaveNonDefaultValuesToFile(filename string, object, defaultObject interface{}, always []string, prettyFormat bool) error {
	fields, err := nonDefaultFields(object, defaultObject, always)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	newline, indent, colon := "", "", ":"
	if prettyFormat {
		newline, indent, colon = "\n", "\t", ": "
	}
	buf.WriteString("{" + newline)
	for i, f := range fields {
		value, err := json.Marshal(f.value)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.name, err)
		}
		fmt.Fprintf(&buf, "%s%q%s%s", indent, f.name, colon, value)
		if i < len(fields)-1 {
			buf.WriteByte(',')
		}
		buf.WriteString(newline)
	}
	buf.WriteString("}\n")
	return os.WriteFile(filename, buf.Bytes(), 0644)
}

type namedValue struct {
	name  string
	value interface{}
}

func nonDefaultFields(object, defaultObject interface{}, always []string) ([]namedValue, error) {
	v := reflect.ValueOf(object)
	d := reflect.ValueOf(defaultObject)
	if v.Kind() != reflect.Struct || v.Type() != d.Type() {
		return nil, fmt.Errorf("cannot compare %T with default %T", object, defaultObject)
	}
	var fields []namedValue
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		value := v.Field(i).Interface()
		if slices.Contains(always, field.Name) || !isDefaultValue(value, d.Field(i).Interface()) {
			fields = append(fields, namedValue{field.Name, value})
		}
	}
	return fields, nil
}

func isDefaultValue(value, defaultValue interface{}) bool {
	return reflect.DeepEqual(value, defaultValue)
}
