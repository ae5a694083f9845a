// Package repository layers typed storage keys, the value codec, and the
// macro and raw-game stores over the kv contract.
package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/dugout/internal/domain/model"
)

const (
	macroPrefix = "macro"
	gamePrefix  = "game"
	keySep      = ":"
)

// MacroKey addresses one persisted macro tree.
type MacroKey struct {
	Kind    model.SubjectKind
	Subject string
	Season  int
}

func (k MacroKey) String() string {
	return strings.Join([]string{macroPrefix, string(k.Kind), k.Subject, strconv.Itoa(k.Season)}, keySep)
}

// ParseMacroKey inverts MacroKey.String. Subjects never contain the key
// separator, so a plain split is exact.
func ParseMacroKey(s string) (MacroKey, error) {
	parts := strings.Split(s, keySep)
	if len(parts) != 4 || parts[0] != macroPrefix {
		return MacroKey{}, fmt.Errorf("%w: %q", ErrBadKey, s)
	}
	kind := model.SubjectKind(parts[1])
	if !kind.Valid() {
		return MacroKey{}, fmt.Errorf("%w: kind in %q", ErrBadKey, s)
	}
	if parts[2] == "" {
		return MacroKey{}, fmt.Errorf("%w: empty subject in %q", ErrBadKey, s)
	}
	season, err := strconv.Atoi(parts[3])
	if err != nil {
		return MacroKey{}, fmt.Errorf("%w: season in %q", ErrBadKey, s)
	}
	return MacroKey{Kind: kind, Subject: parts[2], Season: season}, nil
}

// MacroPattern returns a glob over macro keys. Zero values widen: an empty
// kind matches both kinds, a zero season matches every season.
func MacroPattern(kind model.SubjectKind, season int) string {
	k := "*"
	if kind != "" {
		k = string(kind)
	}
	s := "*"
	if season != 0 {
		s = strconv.Itoa(season)
	}
	return strings.Join([]string{macroPrefix, k, "*", s}, keySep)
}

// RawGameKey addresses one stored game record.
type RawGameKey struct {
	Kind    model.SubjectKind
	Subject string
	Season  int
	GameID  string
}

func (k RawGameKey) String() string {
	return strings.Join([]string{gamePrefix, string(k.Kind), k.Subject, strconv.Itoa(k.Season), k.GameID}, keySep)
}

// ParseRawGameKey inverts RawGameKey.String. Game ids never contain the
// key separator either.
func ParseRawGameKey(s string) (RawGameKey, error) {
	parts := strings.Split(s, keySep)
	if len(parts) != 5 || parts[0] != gamePrefix {
		return RawGameKey{}, fmt.Errorf("%w: %q", ErrBadKey, s)
	}
	kind := model.SubjectKind(parts[1])
	if !kind.Valid() {
		return RawGameKey{}, fmt.Errorf("%w: kind in %q", ErrBadKey, s)
	}
	if parts[2] == "" || parts[4] == "" {
		return RawGameKey{}, fmt.Errorf("%w: empty segment in %q", ErrBadKey, s)
	}
	season, err := strconv.Atoi(parts[3])
	if err != nil {
		return RawGameKey{}, fmt.Errorf("%w: season in %q", ErrBadKey, s)
	}
	return RawGameKey{Kind: kind, Subject: parts[2], Season: season, GameID: parts[4]}, nil
}

// RawGamePattern returns the glob covering every game of one subject and
// season.
func RawGamePattern(kind model.SubjectKind, subject string, season int) string {
	return strings.Join([]string{gamePrefix, string(kind), subject, strconv.Itoa(season), "*"}, keySep)
}
