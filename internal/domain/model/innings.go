package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const outsPerInning = 3

// Innings is an innings-pitched total measured in outs. The canonical
// notation is "W.O" where W is whole innings and O is outs in the partial
// inning (0, 1 or 2). Arithmetic always goes through total outs; the
// notation is never treated as a decimal number.
type Innings int

// InningsFromOuts builds an Innings value from a total out count.
func InningsFromOuts(outs int) Innings {
	return Innings(outs)
}

// ParseInnings parses "W.O" notation. "5" and "5.0" both mean five whole
// innings. The empty string parses to zero innings.
func ParseInnings(s string) (Innings, error) {
	if s == "" {
		return 0, nil
	}
	whole, partial, found := strings.Cut(s, ".")
	w, err := strconv.Atoi(whole)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("%w: innings %q", ErrInvalidRecord, s)
	}
	outs := 0
	if found {
		o, err := strconv.Atoi(partial)
		if err != nil || o < 0 || o >= outsPerInning {
			return 0, fmt.Errorf("%w: innings %q", ErrInvalidRecord, s)
		}
		outs = o
	}
	return Innings(w*outsPerInning + outs), nil
}

// Outs returns the total out count.
func (i Innings) Outs() int {
	return int(i)
}

// Float returns the true innings value (outs/3), for rate computation.
func (i Innings) Float() float64 {
	return float64(i) / outsPerInning
}

// Add sums two innings totals in outs space.
func (i Innings) Add(o Innings) Innings {
	return i + o
}

// String renders the canonical "W.O" notation.
func (i Innings) String() string {
	return fmt.Sprintf("%d.%d", int(i)/outsPerInning, int(i)%outsPerInning)
}

// MarshalJSON encodes the value as its "W.O" string.
func (i Innings) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// UnmarshalJSON accepts the "W.O" string notation.
func (i *Innings) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: innings must be a string", ErrInvalidRecord)
	}
	parsed, err := ParseInnings(s)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
