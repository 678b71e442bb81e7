package hotkey

// evdevKeyNames maps Linux input key codes (linux/input-event-codes.h) to
// the names TokenForKeyName understands.
var evdevKeyNames = map[uint16]string{
	1: "esc", 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	12: "-", 13: "=", 14: "backspace", 15: "tab",
	16: "q", 17: "w", 18: "e", 19: "r", 20: "t", 21: "y", 22: "u", 23: "i", 24: "o", 25: "p",
	26: "[", 27: "]", 28: "enter", 29: "left ctrl",
	30: "a", 31: "s", 32: "d", 33: "f", 34: "g", 35: "h", 36: "j", 37: "k", 38: "l",
	39: ";", 40: "'", 41: "`", 42: "left shift", 43: "\\",
	44: "z", 45: "x", 46: "c", 47: "v", 48: "b", 49: "n", 50: "m",
	51: ",", 52: ".", 53: "/", 54: "right shift",
	56: "left alt", 57: "space", 58: "caps lock",
	59: "f1", 60: "f2", 61: "f3", 62: "f4", 63: "f5", 64: "f6", 65: "f7", 66: "f8", 67: "f9", 68: "f10",
	87: "f11", 88: "f12",
	97: "right ctrl", 100: "right alt",
	102: "home", 103: "up", 104: "page up", 105: "left", 106: "right", 107: "end", 108: "down", 109: "page down",
	110: "insert", 111: "delete",
	125: "left windows", 126: "right windows",
	183: "f13", 184: "f14", 185: "f15", 186: "f16", 187: "f17", 188: "f18",
	189: "f19", 190: "f20", 191: "f21", 192: "f22", 193: "f23", 194: "f24",
}

// evdev event types and key values
const (
	evKey = 0x01

	keyUp     = 0
	keyDown   = 1
	keyRepeat = 2
)

// evdevKeyEvent turns a raw EV_KEY record into a KeyEvent. Auto-repeat
// counts as a press. ok is false for other event types and unknown codes.
func evdevKeyEvent(typ, code uint16, value int32) (KeyEvent, bool) {
	if typ != evKey {
		return KeyEvent{}, false
	}
	name, known := evdevKeyNames[code]
	if !known {
		return KeyEvent{}, false
	}
	switch value {
	case keyDown, keyRepeat:
		return KeyEvent{Name: name, Down: true}, true
	case keyUp:
		return KeyEvent{Name: name, Down: false}, true
	default:
		return KeyEvent{}, false
	}
}
