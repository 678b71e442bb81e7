package hotkey

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	mapset "github.com/deckarep/golang-set/v2"
)

var (
	ErrInvalidHotkey   = errors.New("hotkey: invalid hotkey")
	ErrDuplicateHotkey = errors.New("hotkey: duplicate hotkey")
)

// Token is one normalized key: a lower-case single character or a symbolic
// name such as "ctrl", "page_up" or "f5".
type Token string

const (
	TokenCtrl  Token = "ctrl"
	TokenAlt   Token = "alt"
	TokenShift Token = "shift"
	TokenCmd   Token = "cmd"
)

var modifierOrder = []Token{TokenCtrl, TokenAlt, TokenShift, TokenCmd}

// symbolic names accepted inside brackets, with their display text
var symbolic = map[Token]string{
	TokenCtrl:   "Ctrl",
	TokenAlt:    "Alt",
	TokenShift:  "Shift",
	TokenCmd:    "Cmd",
	"space":     "Space",
	"enter":     "Enter",
	"tab":       "Tab",
	"esc":       "Esc",
	"backspace": "Backspace",
	"delete":    "Delete",
	"insert":    "Insert",
	"home":      "Home",
	"end":       "End",
	"page_up":   "PageUp",
	"page_down": "PageDown",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	"caps_lock": "CapsLock",
}

var aliases = map[string]Token{
	"control":   TokenCtrl,
	"option":    TokenAlt,
	"alt_gr":    TokenAlt,
	"altgr":     TokenAlt,
	"meta":      TokenCmd,
	"super":     TokenCmd,
	"win":       TokenCmd,
	"windows":   TokenCmd,
	"command":   TokenCmd,
	"return":    "enter",
	"escape":    "esc",
	"del":       "delete",
	"ins":       "insert",
	"pageup":    "page_up",
	"pagedown":  "page_down",
	"pgup":      "page_up",
	"pgdn":      "page_down",
	"capslock":  "caps_lock",
	"spacebar":  "space",
	"backspace": "backspace",
}

// Chord is a parsed hotkey. Tokens holds modifiers first in a fixed order,
// then the other keys in the order they were written.
type Chord struct {
	Tokens []Token
}

// Set returns the tokens as a set.
func (c Chord) Set() mapset.Set[Token] {
	return mapset.NewThreadUnsafeSet(c.Tokens...)
}

// String renders the canonical "<ctrl>+<alt>+1" form.
func (c Chord) String() string {
	parts := make([]string, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		if utf8.RuneCountInString(string(t)) == 1 {
			parts = append(parts, string(t))
		} else {
			parts = append(parts, "<"+string(t)+">")
		}
	}
	return strings.Join(parts, "+")
}

// Display renders "Ctrl+Alt+1".
func (c Chord) Display() string {
	parts := make([]string, 0, len(c.Tokens))
	for _, t := range c.Tokens {
		parts = append(parts, displayToken(t))
	}
	return strings.Join(parts, "+")
}

// Parse reads a "part+part" hotkey. A part is a single character, a
// bracketed name like <ctrl> or <f5>, or the same name without brackets.
func Parse(hotkey string) (Chord, error) {
	seen := mapset.NewThreadUnsafeSet[Token]()
	var mods, keys []Token

	for _, raw := range strings.Split(hotkey, "+") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		token, err := parsePart(part)
		if err != nil {
			return Chord{}, fmt.Errorf("%w: %q: %w", ErrInvalidHotkey, hotkey, err)
		}
		if !seen.Add(token) {
			continue
		}
		if isModifier(token) {
			mods = append(mods, token)
		} else {
			keys = append(keys, token)
		}
	}

	if len(mods) == 0 && len(keys) == 0 {
		return Chord{}, fmt.Errorf("%w: %q is empty", ErrInvalidHotkey, hotkey)
	}

	slices.SortFunc(mods, func(a, b Token) int {
		return slices.Index(modifierOrder, a) - slices.Index(modifierOrder, b)
	})
	return Chord{Tokens: append(mods, keys...)}, nil
}

// Normalize returns the canonical form of hotkey.
func Normalize(hotkey string) (string, error) {
	chord, err := Parse(hotkey)
	if err != nil {
		return "", err
	}
	return chord.String(), nil
}

// DisplayText renders hotkey for people. Unparseable input is returned
// upper-cased as is.
func DisplayText(hotkey string) string {
	if strings.TrimSpace(hotkey) == "" {
		return ""
	}
	chord, err := Parse(hotkey)
	if err != nil {
		return strings.ToUpper(hotkey)
	}
	return chord.Display()
}

func parsePart(part string) (Token, error) {
	lower := strings.ToLower(part)

	if strings.HasPrefix(lower, "<") && strings.HasSuffix(lower, ">") && len(lower) > 2 {
		name := strings.TrimSpace(lower[1 : len(lower)-1])
		if token, ok := symbolicToken(name); ok {
			return token, nil
		}
		return "", fmt.Errorf("unknown key <%s>", name)
	}

	if utf8.RuneCountInString(lower) == 1 {
		return Token(lower), nil
	}
	if token, ok := symbolicToken(lower); ok {
		return token, nil
	}
	return "", fmt.Errorf("unknown key %q", part)
}

func symbolicToken(name string) (Token, bool) {
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	if _, ok := symbolic[Token(name)]; ok {
		return Token(name), true
	}
	if token, ok := aliases[name]; ok {
		return token, true
	}
	if isFunctionKey(name) {
		return Token(name), true
	}
	return "", false
}

func isFunctionKey(name string) bool {
	rest, ok := strings.CutPrefix(name, "f")
	if !ok || rest == "" || len(rest) > 2 {
		return false
	}
	n, err := strconv.Atoi(rest)
	return err == nil && n >= 1 && n <= 24 && rest[0] != '0'
}

func isModifier(t Token) bool {
	return slices.Contains(modifierOrder, t)
}

func displayToken(t Token) string {
	if text, ok := symbolic[t]; ok {
		return text
	}
	return strings.ToUpper(string(t))
}

// TokenForKeyName maps a key name reported by a hook ("left ctrl", "A",
// "page up", "f5") to its token. Left and right variants collapse. ok is
// false for empty names.
func TokenForKeyName(name string) (Token, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "", false
	}
	if utf8.RuneCountInString(lower) == 1 {
		return Token(lower), true
	}

	for _, side := range []string{"left ", "right ", "left_", "right_"} {
		if base, ok := strings.CutPrefix(lower, side); ok {
			lower = base
			break
		}
	}

	if token, ok := symbolicToken(lower); ok {
		return token, true
	}
	// unknown keys still take part in the pressed set
	return Token(strings.ReplaceAll(lower, " ", "_")), true
}
