// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package envvar

import "strings"

// SliceToMap converts a slice of "key=value" strings, as returned by
// os.Environ, into a map. Entries without an "=" are ignored.
func SliceToMap(slice []string) map[string]string {
	m := make(map[string]string, len(slice))
	for _, kv := range slice {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	return m
}

// MapToSlice converts a map into a slice of "key=value" strings,
// suitable for os/exec.Cmd.Env.
func MapToSlice(m map[string]string) []string {
	slice := make([]string, 0, len(m))
	for k, v := range m {
		slice = append(slice, k+"="+v)
	}
	return slice
}

// CopyMap returns a shallow copy of m.
func CopyMap(m map[string]string) map[string]string {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
