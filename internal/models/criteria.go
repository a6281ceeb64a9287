package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Network selects one of the supported Cardano networks.
type Network string

const (
	Mainnet Network = "mainnet"
	Preprod Network = "preprod"
	Preview Network = "preview"
)

// Networks lists every supported network.
var Networks = []Network{Mainnet, Preprod, Preview}

// ParseNetwork validates a network name.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	switch n {
	case Mainnet, Preprod, Preview:
		return n, nil
	}
	return "", fmt.Errorf("invalid network %q: must be one of mainnet, preprod, preview", s)
}

const (
	DefaultLimit = 20
	MaxLimit     = 50

	dateLayout = "2006-01-02"
)

// DateRange is a calendar window. Empty bounds are unbounded.
type DateRange struct {
	From string
	To   string

	from time.Time
	to   time.Time
}

// ParseDateRange parses both bounds as YYYY-MM-DD dates in UTC. A from date
// later than the to date is rejected; equal dates select one day.
func ParseDateRange(from, to string) (DateRange, error) {
	dr := DateRange{From: strings.TrimSpace(from), To: strings.TrimSpace(to)}
	var err error
	if dr.From != "" {
		if dr.from, err = time.Parse(dateLayout, dr.From); err != nil {
			return DateRange{}, fmt.Errorf("invalid from date %q: %w", from, err)
		}
	}
	if dr.To != "" {
		if dr.to, err = time.Parse(dateLayout, dr.To); err != nil {
			return DateRange{}, fmt.Errorf("invalid to date %q: %w", to, err)
		}
	}
	if dr.From != "" && dr.To != "" && dr.from.After(dr.to) {
		return DateRange{}, fmt.Errorf("from date %s is after to date %s", dr.From, dr.To)
	}
	return dr, nil
}

// IsBounded reports whether at least one bound is set.
func (d DateRange) IsBounded() bool {
	return d.From != "" || d.To != ""
}

// HasFrom reports whether the lower bound is set.
func (d DateRange) HasFrom() bool { return d.From != "" }

// HasTo reports whether the upper bound is set.
func (d DateRange) HasTo() bool { return d.To != "" }

// FromSeconds returns 00:00:00Z of the from date, or 0 when unbounded.
func (d DateRange) FromSeconds() int64 {
	if !d.HasFrom() {
		return 0
	}
	return d.from.Unix()
}

// ToSeconds returns 23:59:59Z of the to date, or math.MaxInt64 when unbounded.
func (d DateRange) ToSeconds() int64 {
	if !d.HasTo() {
		return math.MaxInt64
	}
	return d.to.Add(24*time.Hour - time.Millisecond).Unix()
}

// Criteria describes one query.
type Criteria struct {
	Network  Network
	Limit    int
	Label    string
	Regex    string
	Wallet   string
	DateFrom string
	DateTo   string
}

// Normalize trims inputs, clamps the limit to [1, MaxLimit] and validates the
// network and dates. The returned DateRange is ready for use.
func (c *Criteria) Normalize() (DateRange, error) {
	network, err := ParseNetwork(string(c.Network))
	if err != nil {
		return DateRange{}, err
	}
	c.Network = network

	switch {
	case c.Limit == 0:
		c.Limit = DefaultLimit
	case c.Limit < 1:
		c.Limit = 1
	case c.Limit > MaxLimit:
		c.Limit = MaxLimit
	}

	c.Label = strings.TrimSpace(c.Label)
	c.Regex = strings.TrimSpace(c.Regex)
	c.Wallet = strings.TrimSpace(c.Wallet)

	return ParseDateRange(c.DateFrom, c.DateTo)
}

// LabelMode reports whether the query runs against the label search endpoint.
func (c Criteria) LabelMode() bool {
	return c.Label != ""
}
