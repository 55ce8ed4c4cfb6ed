// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package textutil

import (
	"os"

	"golang.org/x/term"
)

// TerminalSize returns the width and height of os.Stdout, if it is a
// terminal. Returns an error if stdout isn't a terminal (e.g. when
// output is piped or redirected).
func TerminalSize() (height, width int, err error) {
	width, height, err = term.GetSize(int(os.Stdout.Fd()))
	return height, width, err
}
