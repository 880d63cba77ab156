// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package wavegrid

import (
	"math/big"
	"strings"
)

// FormatValue renders v according to f. Rendering of unknown states and
// waveform glyphs is up to the display layer.
//
//	Bit        0 or 1
//	Vector     lowercase hex
//	BitVector  binary, zero padded to the format width
//	Analog     decimal
//	Comment    empty string
//
func FormatValue(v *big.Int, f Format) string {
	switch f.Kind {
	case Bit:
		if v.Sign() == 0 {
			return "0"
		}
		return "1"
	case Vector:
		return v.Text(16)
	case BitVector:
		s := v.Text(2)
		if len(s) < f.Width {
			s = strings.Repeat("0", f.Width-len(s)) + s
		}
		return s
	case Analog:
		return v.Text(10)
	}
	return ""
}
