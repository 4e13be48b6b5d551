package braille

// Unicode braille patterns block.
const (
	CellRangeStart = '⠀'
	CellRangeEnd   = '⣿'
	// BlankCell is the empty braille cell, used for spaces and any character
	// the deterministic table does not recognize.
	BlankCell = '⠀'
)

// cellTable maps lowercase letters, digits, and common punctuation to Grade 1
// braille cells. Digits reuse the a-j cells so output stays one cell per input
// character.
var cellTable = map[rune]rune{
	'a': '⠁', 'b': '⠃', 'c': '⠉', 'd': '⠙', 'e': '⠑',
	'f': '⠋', 'g': '⠛', 'h': '⠓', 'i': '⠊', 'j': '⠚',
	'k': '⠅', 'l': '⠇', 'm': '⠍', 'n': '⠝', 'o': '⠕',
	'p': '⠏', 'q': '⠟', 'r': '⠗', 's': '⠎', 't': '⠞',
	'u': '⠥', 'v': '⠧', 'w': '⠺', 'x': '⠭', 'y': '⠽',
	'z': '⠵',

	'1': '⠁', '2': '⠃', '3': '⠉', '4': '⠙', '5': '⠑',
	'6': '⠋', '7': '⠛', '8': '⠓', '9': '⠊', '0': '⠚',

	'.': '⠲', ',': '⠂', ';': '⠆', ':': '⠒', '?': '⠦',
	'!': '⠖', '\'': '⠄', '"': '⠐', '(': '⠶', ')': '⠶',
	'-': '⠤', '/': '⠌',

	' ': BlankCell,
}

// InCellRange reports whether r lies in the braille patterns block.
func InCellRange(r rune) bool {
	return r >= CellRangeStart && r <= CellRangeEnd
}
