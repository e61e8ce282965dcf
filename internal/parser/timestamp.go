package parser

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/OCAP2/combatlog/pkg/core"
)

// LogDateFormat is the client's timestamp layout. It carries no year.
const LogDateFormat = "1/2 15:04:05.000"

// rolloverGap is how far a stamp may fall behind the previous one on the same
// stream before it is read as belonging to the next year.
const rolloverGap = 180 * 24 * time.Hour

var errNoTimestamp = errors.New("line does not start with a timestamp")

// splitTimestamp separates "M/D HH:MM:SS.mmm" from the rest of the line.
func splitTimestamp(line string) (date, clock, rest string, err error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return "", "", "", errNoTimestamp
	}
	return parts[0], parts[1], strings.TrimLeft(parts[2], " \t"), nil
}

func parseStamp(year int, date, clock string) (time.Time, error) {
	return time.ParseInLocation("2006 "+LogDateFormat, strconv.Itoa(year)+" "+date+" "+clock, time.UTC)
}

// timestamp parses the leading timestamp of line and returns the remaining content.
// The base year is fixed on first use, either from WithYear or guessed from the clock.
// Each stream then advances its own year when the log crosses New Year.
func (p *Parser) timestamp(line string, stream core.Stream) (time.Time, string, error) {
	date, clock, rest, err := splitTimestamp(line)
	if err != nil {
		return time.Time{}, "", err
	}

	if p.year == 0 {
		if err := p.guessYear(date, clock); err != nil {
			return time.Time{}, "", err
		}
	}

	year := p.year
	last, seen := p.last[stream]
	if seen {
		year = last.Year()
	}

	ts, err := parseStamp(year, date, clock)
	if err != nil {
		return time.Time{}, "", err
	}
	if seen && last.Sub(ts) > rolloverGap {
		if ts, err = parseStamp(year+1, date, clock); err != nil {
			return time.Time{}, "", err
		}
		p.logger.Debug("log crossed into a new year", "stream", stream, "year", year+1)
	}

	p.last[stream] = ts
	return ts, rest, nil
}

// guessYear picks the current year unless that would put the line in the future,
// in which case the log is from last year. A day of slack covers time zones.
func (p *Parser) guessYear(date, clock string) error {
	now := p.clock.Now().UTC().Add(24 * time.Hour)

	this, err := parseStamp(now.Year(), date, clock)
	if err != nil {
		return err
	}

	if this.After(now) {
		p.year = now.Year() - 1
	} else {
		p.year = now.Year()
	}
	p.logger.Debug("guessed log year", "year", p.year)
	return nil
}
