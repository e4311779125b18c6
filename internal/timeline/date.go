// Package timeline holds the pure timeline logic: turning loosely formatted
// date strings into a fixed-width canonical form, ordering entries by that
// form, and checking the drafts an editor submits.
//
// Canonical form is "<sign><YYYYYY>-<MM>-<DD> <hh>:<mm>:<ss>", for example
// "001990-05-03 00:00:00" or "-000221-01-01 00:00:00". Being fixed width and
// zero padded, canonical strings order correctly under plain string
// comparison, including for years no time.Time layout can represent.
package timeline

import (
	"strconv"
	"strings"
	"time"
)

// yearWidth is the fixed number of digits in the canonical year field.
const yearWidth = 6

// Date is a parsed, possibly partial date. Missing components hold "".
// All fields hold ASCII digits only, except Sign which is "" or "-".
type Date struct {
	Sign   string
	Year   string
	Month  string
	Day    string
	Hour   string
	Minute string
	Second string
}

// String renders d in canonical form, filling defaults for missing
// components and fitting the year to exactly six digits.
func (d Date) String() string {
	var b strings.Builder
	b.Grow(len("-000000-00-00 00:00:00"))
	b.WriteString(d.Sign)
	b.WriteString(fitYear(d.Year))
	b.WriteByte('-')
	b.WriteString(pad2(d.Month, "01"))
	b.WriteByte('-')
	b.WriteString(pad2(d.Day, "01"))
	b.WriteByte(' ')
	b.WriteString(pad2(d.Hour, "00"))
	b.WriteByte(':')
	b.WriteString(pad2(d.Minute, "00"))
	b.WriteByte(':')
	b.WriteString(pad2(d.Second, "00"))
	return b.String()
}

// Normalize returns s in canonical form. Input that does not match the date
// grammar is returned unchanged; callers that need strictness should check
// the result with IsCanonical.
func Normalize(s string) string {
	d, ok := Parse(s)
	if !ok {
		return s
	}
	return d.String()
}

// NormalizeAt is Normalize, except that an empty or whitespace-only start
// stands for "now" and becomes now in canonical form, in UTC.
func NormalizeAt(s string, now time.Time) string {
	if strings.TrimSpace(s) == "" {
		return Format(now)
	}
	return Normalize(s)
}

// Format renders t in UTC in canonical form, truncated to the second.
func Format(t time.Time) string {
	t = t.UTC()
	var d Date
	year := t.Year()
	if year < 0 {
		d.Sign = "-"
		year = -year
	}
	d.Year = strconv.Itoa(year)
	d.Month = strconv.Itoa(int(t.Month()))
	d.Day = strconv.Itoa(t.Day())
	d.Hour = strconv.Itoa(t.Hour())
	d.Minute = strconv.Itoa(t.Minute())
	d.Second = strconv.Itoa(t.Second())
	return d.String()
}

// IsCanonical reports whether s is exactly in canonical form.
func IsCanonical(s string) bool {
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	const layout = "dddddd-dd-dd dd:dd:dd"
	if len(s) != len(layout) {
		return false
	}
	for i := 0; i < len(layout); i++ {
		if layout[i] == 'd' {
			if !isDigit(s[i]) {
				return false
			}
		} else if s[i] != layout[i] {
			return false
		}
	}
	return true
}

// Parse reads s against the date grammar:
//
//	input := [ "-" ] date [ sep time ]
//	date  := YYYYMMDD | year [ "-" month [ "-" day ] ] | year "-" MMDD
//	sep   := whitespace+ | "T"
//	time  := hhmmss | hhmm | hour [ ":" minute [ ":" second ] ] [ "." digits ] [ "Z" ]
//
// Month, day, hour, minute and second take one or two digits when separated
// and exactly two when run together. A separator-free run after the sign is
// split as YYYYMMDD only when it is exactly eight digits; otherwise it is the
// year. Surrounding whitespace is ignored. The bool is false when s does not
// match the whole grammar.
func Parse(s string) (Date, bool) {
	p := &parser{in: strings.TrimSpace(s)}
	var d Date

	if p.accept('-') {
		d.Sign = "-"
	}
	if !p.date(&d) {
		return Date{}, false
	}
	if p.done() {
		return d, true
	}
	if !p.separator() || !p.time(&d) {
		return Date{}, false
	}
	p.fraction()
	p.accept('Z')
	if !p.done() {
		return Date{}, false
	}
	return d, true
}

// parser is a single-pass cursor over the trimmed input.
type parser struct {
	in  string
	pos int
}

func (p *parser) done() bool {
	return p.pos >= len(p.in)
}

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.in[p.pos]
}

func (p *parser) accept(c byte) bool {
	if !p.done() && p.in[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// digits consumes a maximal run of ASCII digits, possibly empty.
func (p *parser) digits() string {
	start := p.pos
	for !p.done() && isDigit(p.in[p.pos]) {
		p.pos++
	}
	return p.in[start:p.pos]
}

func (p *parser) date(d *Date) bool {
	run := p.digits()
	if run == "" {
		return false
	}
	if p.peek() != '-' {
		if len(run) == 8 {
			d.Year, d.Month, d.Day = run[:4], run[4:6], run[6:]
		} else {
			d.Year = run
		}
		return true
	}
	d.Year = run

	p.accept('-')
	run = p.digits()
	switch {
	case len(run) == 4:
		d.Month, d.Day = run[:2], run[2:]
		return true
	case len(run) == 1 || len(run) == 2:
		d.Month = run
	default:
		return false
	}

	if !p.accept('-') {
		return true
	}
	run = p.digits()
	if len(run) != 1 && len(run) != 2 {
		return false
	}
	d.Day = run
	return true
}

// separator consumes the date/time separator: one "T" or any whitespace.
func (p *parser) separator() bool {
	if p.accept('T') {
		return true
	}
	start := p.pos
	for !p.done() && isSpace(p.in[p.pos]) {
		p.pos++
	}
	return p.pos > start
}

func (p *parser) time(d *Date) bool {
	run := p.digits()
	switch len(run) {
	case 6:
		d.Hour, d.Minute, d.Second = run[:2], run[2:4], run[4:]
		return true
	case 4:
		d.Hour, d.Minute = run[:2], run[2:]
		return true
	case 1, 2:
		d.Hour = run
	default:
		return false
	}

	for _, field := range []*string{&d.Minute, &d.Second} {
		if !p.accept(':') {
			return true
		}
		run = p.digits()
		if len(run) != 1 && len(run) != 2 {
			return false
		}
		*field = run
	}
	return true
}

// fraction drops sub-second digits; the canonical form has none.
func (p *parser) fraction() {
	if p.peek() != '.' {
		return
	}
	save := p.pos
	p.pos++
	if p.digits() == "" {
		p.pos = save
	}
}

// fitYear left-pads y with zeros to six digits, or keeps its rightmost six.
func fitYear(y string) string {
	if len(y) > yearWidth {
		return y[len(y)-yearWidth:]
	}
	return strings.Repeat("0", yearWidth-len(y)) + y
}

func pad2(v, def string) string {
	switch len(v) {
	case 0:
		return def
	case 1:
		return "0" + v
	default:
		return v
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
