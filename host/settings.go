// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/beevik/go6809/cpu"
	"github.com/beevik/prefixtree/v2"
)

// Host settings are looked up by case-insensitive prefix of the field name.
type settings struct {
	HexMode         bool     `doc:"hexadecimal input mode"`
	MemDumpBytes    int      `doc:"default number of memory bytes to dump" max:"65535"`
	DisasmLines     int      `doc:"default number of lines to disassemble" max:"1000"`
	MaxStepLines    int      `doc:"max lines to disassemble when stepping" max:"1000"`
	NextDisasmAddr  cpu.Word `doc:"address of next disassembly"`
	NextMemDumpAddr cpu.Word `doc:"address of next memory dump"`
}

func newSettings() *settings {
	return &settings{
		MemDumpBytes: 64,
		DisasmLines:  10,
		MaxStepLines: 20,
	}
}

type settingInfo struct {
	name  string
	index int
	typ   reflect.Type
	doc   string
	max   int64
}

var (
	settingsByPrefix = prefixtree.New[*settingInfo]()
	settingsInfo     []settingInfo
)

var (
	errSettingType  = errors.New("invalid type")
	errSettingRange = errors.New("value out of range")
)

func init() {
	t := reflect.TypeFor[settings]()
	settingsInfo = make([]settingInfo, t.NumField())
	for i := range settingsInfo {
		f := t.Field(i)
		info := &settingsInfo[i]
		*info = settingInfo{name: f.Name, index: i, typ: f.Type, doc: f.Tag.Get("doc")}

		switch f.Type.Kind() {
		case reflect.Uint16:
			info.max = 0xffff
		case reflect.Int:
			fmt.Sscan(f.Tag.Get("max"), &info.max)
		}

		settingsByPrefix.Add(strings.ToLower(f.Name), info)
	}
}

// Display writes every setting, its value and its description to w.
func (s *settings) Display(w io.Writer) {
	value := reflect.ValueOf(s).Elem()
	for _, info := range settingsInfo {
		v := value.Field(info.index)
		var str string
		switch info.typ.Kind() {
		case reflect.Uint16:
			str = fmt.Sprintf("    %-16s $%04X", info.name, uint16(v.Uint()))
		default:
			str = fmt.Sprintf("    %-16s %v", info.name, v)
		}
		fmt.Fprintf(w, "%-28s (%s)\n", str, info.doc)
	}
}

// Kind returns the kind of the setting matching key, or reflect.Invalid if
// no setting matches.
func (s *settings) Kind(key string) reflect.Kind {
	info, err := settingsByPrefix.FindValue(strings.ToLower(key))
	if err != nil {
		return reflect.Invalid
	}
	return info.typ.Kind()
}

// Set assigns value to the setting matching key. Numeric settings reject
// values outside 0 through their maximum.
func (s *settings) Set(key string, value any) error {
	info, err := settingsByPrefix.FindValue(strings.ToLower(key))
	if err != nil {
		return fmt.Errorf("setting '%s': %w", key, err)
	}

	in := reflect.ValueOf(value)
	isBool := info.typ.Kind() == reflect.Bool
	if isBool != (in.Kind() == reflect.Bool) || !in.Type().ConvertibleTo(info.typ) {
		return errSettingType
	}

	if !isBool {
		n := in.Convert(reflect.TypeFor[int64]()).Int()
		if n < 0 || (info.max > 0 && n > info.max) {
			return fmt.Errorf("setting '%s': %w", info.name, errSettingRange)
		}
	}

	reflect.ValueOf(s).Elem().Field(info.index).Set(in.Convert(info.typ))
	return nil
}
