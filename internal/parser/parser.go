package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/combatlog/internal/lines"
	"github.com/OCAP2/combatlog/pkg/core"
	"github.com/coder/quartz"
)

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
// Some client builds and addons write whole amounts with a decimal part.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// parseIntFromFloat parses a string that may be an integer or float into int64.
func parseIntFromFloat(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("parseIntFromFloat: %q is not a valid int64", s)
	}
	return int64(f), nil
}

// parseFlags accepts unit and school flags written as hex ("0x511") or decimal.
func parseFlags(s string) (uint32, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		v, err := strconv.ParseUint(s[2:], 16, 32)
		return uint32(v), err
	}
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err
}

// Option configures a Parser.
type Option func(*Parser)

// WithYear fixes the year used for timestamps instead of guessing it.
func WithYear(year int) Option {
	return func(p *Parser) {
		p.year = year
	}
}

// WithClock sets the clock used for year guessing.
func WithClock(clock quartz.Clock) Option {
	return func(p *Parser) {
		p.clock = clock
	}
}

// Parser decodes log lines into events. Between calls it keeps the base year
// and the last timestamp of each stream.
type Parser struct {
	logger *slog.Logger
	clock  quartz.Clock
	last   map[core.Stream]time.Time
	year   int
}

// NewParser creates a new parser.
func NewParser(logger *slog.Logger, opts ...Option) *Parser {
	p := &Parser{
		logger: logger,
		clock:  quartz.NewReal(),
		last:   make(map[core.Stream]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Year returns the year of the first parsed line, or 0 if no line has been parsed yet.
func (p *Parser) Year() int {
	return p.year
}

// ParseLine decodes one line. A nil event means the line carried nothing to dispatch:
// it was blank or could not be placed in time. Problems come back as a diagnostic,
// at most one per line, and never abort the parse.
func (p *Parser) ParseLine(l lines.Line, stream core.Stream) (*core.Event, *core.Diagnostic) {
	text := strings.TrimPrefix(l.Text, "\uFEFF")
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	malformed := func(format string, args ...any) *core.Diagnostic {
		return &core.Diagnostic{
			Line:    l.Number,
			Stream:  stream,
			Kind:    core.DiagMalformedLine,
			Message: fmt.Sprintf(format, args...),
		}
	}

	ts, content, err := p.timestamp(text, stream)
	if err != nil {
		return nil, malformed("invalid timestamp: %v", err)
	}

	fields, err := splitFields(content)
	if err != nil {
		return nil, malformed("invalid fields: %v", err)
	}

	tag := fields[0]
	if tag.IsList() || tag.Quoted || !validKind(tag.Value) {
		return nil, malformed("invalid event kind %q", tag.String())
	}

	ev := &core.Event{
		Time:   ts,
		Kind:   core.EventKind(tag.Value),
		Line:   l.Number,
		Stream: stream,
	}

	s, ok := schemas[ev.Kind]
	if !ok {
		raw := make([]string, len(fields)-1)
		for i, f := range fields[1:] {
			raw[i] = f.String()
		}
		ev.Payload = core.Generic{Kind: tag.Value, RawFields: raw}
		return ev, nil
	}

	d := &decoder{fields: fields[1:]}
	s.decode(d, ev)
	return ev, d.diagnostic(l.Number, stream, ev.Kind)
}

// validKind accepts upper-case identifiers such as SPELL_DAMAGE.
func validKind(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '_' {
			return false
		}
	}
	return true
}

// decoder reads typed values out of a field list and remembers every failure,
// so one bad field never hides the rest of the line.
type decoder struct {
	fields  []Field
	bad     []string
	badGUID []string
}

func (d *decoder) raw(i int, name string) (Field, bool) {
	if i >= len(d.fields) {
		d.bad = append(d.bad, fmt.Sprintf("%s (missing)", name))
		return Field{}, false
	}
	return d.fields[i], true
}

func (d *decoder) str(i int, name string) string {
	f, ok := d.raw(i, name)
	if !ok {
		return ""
	}
	if f.Value == "nil" && !f.Quoted {
		return ""
	}
	return f.String()
}

// optStr reads a field that may be left off the end of the line.
func (d *decoder) optStr(i int) string {
	if i >= len(d.fields) {
		return ""
	}
	f := d.fields[i]
	if f.Value == "nil" && !f.Quoted {
		return ""
	}
	return f.String()
}

func (d *decoder) uint32(i int, name string) uint32 {
	f, ok := d.raw(i, name)
	if !ok {
		return 0
	}
	v, err := parseUintFromFloat(f.Value)
	if err != nil || f.IsList() || v > 0xFFFFFFFF {
		d.bad = append(d.bad, fmt.Sprintf("%s (%q)", name, f.String()))
		return 0
	}
	return uint32(v)
}

func (d *decoder) int64(i int, name string) int64 {
	f, ok := d.raw(i, name)
	if !ok {
		return 0
	}
	v, err := parseIntFromFloat(f.Value)
	if err != nil || f.IsList() {
		d.bad = append(d.bad, fmt.Sprintf("%s (%q)", name, f.String()))
		return 0
	}
	return v
}

// optInt64 treats an empty, nil or missing field as zero.
func (d *decoder) optInt64(i int, name string) int64 {
	if i >= len(d.fields) {
		return 0
	}
	if f := d.fields[i]; !f.IsList() && (f.Value == "" || f.Value == "nil") {
		return 0
	}
	return d.int64(i, name)
}

func (d *decoder) flags(i int, name string) uint32 {
	f, ok := d.raw(i, name)
	if !ok {
		return 0
	}
	if !f.IsList() && (f.Value == "" || f.Value == "nil") {
		return 0
	}
	v, err := parseFlags(f.Value)
	if err != nil || f.IsList() {
		d.bad = append(d.bad, fmt.Sprintf("%s (%q)", name, f.String()))
		return 0
	}
	return v
}

// bool reads "1", "0", "true", "false" and "nil". Missing trailing flags are false.
func (d *decoder) bool(i int, name string) bool {
	if i >= len(d.fields) {
		return false
	}
	f := d.fields[i]
	switch strings.ToLower(f.Value) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no", "nil", "":
		return false
	}
	d.bad = append(d.bad, fmt.Sprintf("%s (%q)", name, f.String()))
	return false
}

// guid decodes a GUID field. Empty, "nil" and unparseable values are absent.
func (d *decoder) guid(i int, name string) core.GUID {
	f, ok := d.raw(i, name)
	if !ok {
		return core.NilGUID
	}
	if !f.IsList() && (f.Value == "" || f.Value == "nil") {
		return core.NilGUID
	}
	g, err := core.ParseGUID(f.Value)
	if err != nil || f.IsList() {
		d.badGUID = append(d.badGUID, fmt.Sprintf("%s (%q)", name, f.String()))
		return core.NilGUID
	}
	return g
}

// school reads a single flag value or a sub-list of them.
func (d *decoder) school(i int, name string) core.School {
	f, ok := d.raw(i, name)
	if !ok {
		return core.School{}
	}
	if !f.IsList() {
		if f.Value == "" || f.Value == "nil" {
			return core.School{}
		}
		v, err := parseFlags(f.Value)
		if err != nil {
			d.bad = append(d.bad, fmt.Sprintf("%s (%q)", name, f.Value))
			return core.School{}
		}
		return core.School{Flags: []uint32{v}}
	}

	s := core.School{Flags: make([]uint32, 0, len(f.List))}
	for _, c := range f.List {
		v, err := parseFlags(c.Value)
		if err != nil || c.IsList() {
			d.bad = append(d.bad, fmt.Sprintf("%s (%q)", name, f.String()))
			return core.School{}
		}
		s.Flags = append(s.Flags, v)
	}
	return s
}

func (d *decoder) unit(i int, side string) core.Unit {
	return core.Unit{
		GUID:  d.guid(i, side+"GUID"),
		Name:  d.str(i+1, side+"Name"),
		Flags: d.flags(i+2, side+"Flags"),
	}
}

func (d *decoder) spell(i int) core.Spell {
	return core.Spell{
		ID:     d.uint32(i, "spellId"),
		Name:   d.str(i+1, "spellName"),
		School: d.school(i+2, "spellSchool"),
	}
}

func (d *decoder) list(i int) []string {
	if i >= len(d.fields) {
		return nil
	}
	f := d.fields[i]
	if !f.IsList() {
		if f.Value == "" || f.Value == "nil" {
			return nil
		}
		return []string{f.Value}
	}
	out := make([]string, len(f.List))
	for j, c := range f.List {
		out[j] = c.String()
	}
	return out
}

func (d *decoder) diagnostic(line int, stream core.Stream, kind core.EventKind) *core.Diagnostic {
	switch {
	case len(d.bad) > 0:
		problems := append(append([]string{}, d.bad...), d.badGUID...)
		return &core.Diagnostic{
			Line:    line,
			Stream:  stream,
			Kind:    core.DiagMalformedLine,
			Message: fmt.Sprintf("%s: malformed %s", kind, strings.Join(problems, ", ")),
		}
	case len(d.badGUID) > 0:
		return &core.Diagnostic{
			Line:    line,
			Stream:  stream,
			Kind:    core.DiagInvalidGUID,
			Message: fmt.Sprintf("%s: invalid %s", kind, strings.Join(d.badGUID, ", ")),
		}
	}
	return nil
}

// optUint32 treats an empty, nil or missing field as zero.
func (d *decoder) optUint32(i int, name string) uint32 {
	if i >= len(d.fields) {
		return 0
	}
	if f := d.fields[i]; !f.IsList() && (f.Value == "" || f.Value == "nil") {
		return 0
	}
	return d.uint32(i, name)
}
