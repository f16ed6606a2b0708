package gcode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Word is a single <LETTER><NUMBER> token of a command line
type Word struct {
	Letter byte
	Value  string
}

// Command is one machine instruction with an optional trailing comment
type Command struct {
	Words   []Word
	Comment string
}

// Cmd starts a command from its code, e.g. Cmd("G1")
func Cmd(code string) Command {
	return Command{Words: []Word{{Letter: code[0], Value: code[1:]}}}
}

// With appends a word whose value is already formatted
func (c Command) With(letter byte, value string) Command {
	words := make([]Word, len(c.Words), len(c.Words)+1)
	copy(words, c.Words)
	c.Words = append(words, Word{Letter: letter, Value: value})
	return c
}

// Fixed appends a word rendered with a fixed number of decimals
func (c Command) Fixed(letter byte, v float64, decimals int) Command {
	return c.With(letter, strconv.FormatFloat(v, 'f', decimals, 64))
}

// Num appends a word rendered with the shortest exact representation
func (c Command) Num(letter byte, v float64) Command {
	return c.With(letter, FormatNumber(v))
}

// Note sets the trailing comment
func (c Command) Note(comment string) Command {
	c.Comment = comment
	return c
}

func (c Command) String() string {
	var b strings.Builder
	for i, w := range c.Words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(w.Letter)
		b.WriteString(w.Value)
	}
	if c.Comment != "" {
		b.WriteString(" ; ")
		b.WriteString(c.Comment)
	}
	return b.String()
}

// Comment renders a full-line comment
func Comment(text string) string {
	if text == "" {
		return ";"
	}
	return "; " + text
}

// FormatNumber renders v without trailing zeros: 210 -> "210", 0.2 -> "0.2"
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Line is a parsed document line
type Line struct {
	Words   []ParsedWord
	Comment string
}

// ParsedWord is a word with its numeric value decoded
type ParsedWord struct {
	Letter byte
	Number float64
}

// IsComment reports whether the line carries no command
func (l Line) IsComment() bool {
	return len(l.Words) == 0
}

// Code returns the command code such as "G1", or "" for comment lines
func (l Line) Code() string {
	if l.IsComment() {
		return ""
	}
	w := l.Words[0]
	return string(w.Letter) + FormatNumber(w.Number)
}

// Value returns the number attached to letter and whether it is present
func (l Line) Value(letter byte) (float64, bool) {
	for _, w := range l.Words[min(1, len(l.Words)):] {
		if w.Letter == letter {
			return w.Number, true
		}
	}
	return 0, false
}

// ParseLine tokenises a line: an optional run of whitespace separated
// <LETTER><NUMBER> words followed by an optional "; comment".
func ParseLine(text string) (Line, error) {
	var line Line

	body, comment, hasComment := strings.Cut(text, ";")
	if hasComment {
		line.Comment = strings.TrimSpace(comment)
	}

	for _, token := range strings.Fields(body) {
		letter := token[0]
		if letter < 'A' || letter > 'Z' {
			return Line{}, fmt.Errorf("invalid word %q: expected an upper case letter", token)
		}
		n, err := strconv.ParseFloat(token[1:], 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Line{}, fmt.Errorf("invalid word %q: expected a number after %c", token, letter)
		}
		line.Words = append(line.Words, ParsedWord{Letter: letter, Number: n})
	}

	return line, nil
}
