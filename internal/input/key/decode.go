package key

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Press is one decoded key press. Text holds the printable character the
// press produced and is empty for control and modified keys.
type Press struct {
	Text  string
	Event Event
}

// Decoder turns raw terminal input into key presses. Bytes that form an
// incomplete escape sequence or UTF-8 character are held until the next
// call to Decode. A lone ESC at the end of a chunk is not held: it is
// reported as Escape right away.
type Decoder struct {
	pending []byte
}

// Decode appends p to any held bytes and returns the presses it completes.
func (d *Decoder) Decode(p []byte) []Press {
	buf := append(d.pending, p...)
	d.pending = nil

	var out []Press
	for len(buf) > 0 {
		press, n, ok := decodeOne(buf)
		if n == 0 {
			d.pending = append([]byte(nil), buf...)
			break
		}
		if ok {
			out = append(out, press)
		}
		buf = buf[n:]
	}
	return out
}

// Pending reports whether bytes are held for the next Decode.
func (d *Decoder) Pending() bool {
	return len(d.pending) > 0
}

// Flush reports held bytes as best it can and resets the decoder.
func (d *Decoder) Flush() []Press {
	if len(d.pending) == 0 {
		return nil
	}
	held := d.pending
	d.pending = nil
	if held[0] == 0x1b {
		return []Press{{Event: NewSpecialEvent(KeyEscape, ModNone)}}
	}
	return []Press{{Event: NewRuneEvent(utf8.RuneError, ModNone)}}
}

// decodeOne decodes the press at the start of buf. It returns n == 0 when
// more input is needed and ok == false for sequences it drops.
func decodeOne(buf []byte) (Press, int, bool) {
	b := buf[0]
	switch {
	case b == 0x1b:
		return decodeEscape(buf)
	case b == '\r' || b == '\n':
		return special(KeyEnter, ModNone), 1, true
	case b == '\t':
		return special(KeyTab, ModNone), 1, true
	case b == 0x7f || b == 0x08:
		return special(KeyBackspace, ModNone), 1, true
	case b == 0x00:
		return Press{Event: NewRuneEvent(' ', ModCtrl)}, 1, true
	case b < 0x20:
		return Press{Event: NewRuneEvent(ctrlRune(b), ModCtrl)}, 1, true
	}

	if !utf8.FullRune(buf) {
		return Press{}, 0, false
	}
	r, n := utf8.DecodeRune(buf)
	return printable(r, ModNone), n, true
}

// ctrlRune maps a C0 control byte to the key pressed with Ctrl.
func ctrlRune(b byte) rune {
	if b <= 0x1a {
		return rune('a' + b - 1)
	}
	return rune('@' + b)
}

func special(k Key, mods Modifier) Press {
	return Press{Event: NewSpecialEvent(k, mods)}
}

func printable(r rune, mods Modifier) Press {
	if unicode.IsUpper(r) {
		mods = mods.With(ModShift)
	}
	p := Press{Event: NewRuneEvent(r, mods)}
	if mods&(ModCtrl|ModAlt|ModMeta) == 0 && unicode.IsPrint(r) {
		p.Text = string(r)
	}
	return p
}

func decodeEscape(buf []byte) (Press, int, bool) {
	if len(buf) == 1 {
		return special(KeyEscape, ModNone), 1, true
	}
	switch buf[1] {
	case '[':
		return decodeCSI(buf)
	case 'O':
		if len(buf) < 3 {
			return Press{}, 0, false
		}
		if k, ok := cursorKeys[buf[2]]; ok {
			return special(k, ModNone), 3, true
		}
		return Press{}, 3, false
	case 0x1b:
		return special(KeyEscape, ModNone), 1, true
	}

	// ESC followed by a key is that key with Alt.
	press, n, ok := decodeOne(buf[1:])
	if n == 0 {
		return Press{}, 0, false
	}
	press.Event.Modifiers = press.Event.Modifiers.With(ModAlt)
	press.Text = ""
	return press, n + 1, ok
}

// cursorKeys are the final bytes shared by SS3 and CSI key sequences.
var cursorKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'P': KeyF1,
	'Q': KeyF2,
	'R': KeyF3,
	'S': KeyF4,
}

var csiTildeKeys = map[int]Key{
	1:  KeyHome,
	2:  KeyInsert,
	3:  KeyDelete,
	4:  KeyEnd,
	5:  KeyPageUp,
	6:  KeyPageDown,
	7:  KeyHome,
	8:  KeyEnd,
	11: KeyF1,
	12: KeyF2,
	13: KeyF3,
	14: KeyF4,
	15: KeyF5,
	17: KeyF6,
	18: KeyF7,
	19: KeyF8,
	20: KeyF9,
	21: KeyF10,
	23: KeyF11,
	24: KeyF12,
}

// decodeCSI decodes "ESC [ params final". Unknown sequences are consumed
// and dropped.
func decodeCSI(buf []byte) (Press, int, bool) {
	i := 2
	for i < len(buf) && buf[i] >= 0x20 && buf[i] <= 0x3f {
		i++
	}
	if i == len(buf) {
		return Press{}, 0, false
	}
	final := buf[i]
	n := i + 1
	if final < 0x40 || final > 0x7e {
		// Malformed; drop the introducer and resync.
		return Press{}, 2, false
	}

	params := strings.Split(string(buf[2:i]), ";")
	mods := ModNone
	if len(params) > 1 {
		if p, err := strconv.Atoi(params[1]); err == nil {
			mods = modifierFromParam(p)
		}
	}

	if final == '~' {
		code, err := strconv.Atoi(params[0])
		if err != nil {
			return Press{}, n, false
		}
		if k, ok := csiTildeKeys[code]; ok {
			return special(k, mods), n, true
		}
		return Press{}, n, false
	}
	if final == 'Z' {
		return special(KeyTab, ModShift), n, true
	}
	if k, ok := cursorKeys[final]; ok {
		return special(k, mods), n, true
	}
	return Press{}, n, false
}
