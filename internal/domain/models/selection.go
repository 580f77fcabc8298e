package models

import (
	"errors"
	"time"

	xutil "PerfDash/pkg/util"
)

// Symbol identifies an instrument (ticker).
type Symbol string

var ErrInvalidDateRange = errors.New("start date must not be after end date")

// Selection is the user's current choice of instruments and date range.
// The zero value is not usable; build it with NewSelection.
type Selection struct {
	instruments []Symbol
	start       time.Time
	end         time.Time
}

// NewSelection creates a selection over [start, end] with the given instruments.
func NewSelection(instruments []Symbol, start, end time.Time) (*Selection, error) {
	start, end = xutil.Day(start), xutil.Day(end)
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}
	return &Selection{instruments: dedupe(instruments), start: start, end: end}, nil
}

// SetInstruments replaces the instrument set. Duplicates collapse to their first occurrence.
func (s *Selection) SetInstruments(instruments []Symbol) {
	s.instruments = dedupe(instruments)
}

// SetStartDate replaces the start date unless it would fall after the end date.
func (s *Selection) SetStartDate(d time.Time) error {
	d = xutil.Day(d)
	if d.After(s.end) {
		return ErrInvalidDateRange
	}
	s.start = d
	return nil
}

// SetEndDate replaces the end date unless it would fall before the start date.
func (s *Selection) SetEndDate(d time.Time) error {
	d = xutil.Day(d)
	if d.Before(s.start) {
		return ErrInvalidDateRange
	}
	s.end = d
	return nil
}

// Snapshot returns an immutable copy for one fetch cycle.
func (s *Selection) Snapshot() Snapshot {
	return Snapshot{
		Instruments: append([]Symbol(nil), s.instruments...),
		Start:       s.start,
		End:         s.end,
	}
}

// Snapshot is a frozen selection. Holders must not mutate Instruments.
type Snapshot struct {
	Instruments []Symbol
	Start       time.Time
	End         time.Time
}

func (s Snapshot) Empty() bool { return len(s.Instruments) == 0 }

// Tickers returns the instruments as plain strings, in display order.
func (s Snapshot) Tickers() []string {
	out := make([]string, len(s.Instruments))
	for i, sym := range s.Instruments {
		out[i] = string(sym)
	}
	return out
}

func (s Snapshot) StartISO() string { return xutil.FormatDate(s.Start) }
func (s Snapshot) EndISO() string   { return xutil.FormatDate(s.End) }

func dedupe(in []Symbol) []Symbol {
	raw := make([]string, len(in))
	for i, s := range in {
		raw[i] = xutil.NormalizeSymbol(string(s))
	}
	raw = xutil.Dedupe(raw)
	out := make([]Symbol, len(raw))
	for i, s := range raw {
		out[i] = Symbol(s)
	}
	return out
}
