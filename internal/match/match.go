// Package match selects which declared operation applies to a media
// record by testing its
// Requirements - an ordered set of (key, anchored-regex) pairs - against
// the keys the record currently carries. Matching is first-match-wins
// over a candidate list; a May-Resolve mode instead reports which
// required keys a candidate is missing, without deciding a winner.
package match

import (
	"fmt"
	"regexp"

	"github.com/antflydb/xmlsource/internal/expand"
)

// Requirement is one key a candidate needs present on the media record,
// optionally constrained to values matching an anchored regular
// expression (an empty pattern means "present", any value accepted).
type Requirement struct {
	Key     string
	Pattern string

	compiled *regexp.Regexp
}

// Compile pre-compiles the requirement's pattern, anchoring it to the
// whole value the way the original plugin's key-match grammar requires
// (a partial match never qualifies as "requirement satisfied").
func (r *Requirement) Compile() error {
	if r.Pattern == "" {
		return nil
	}
	re, err := regexp.Compile("^(?:" + r.Pattern + ")$")
	if err != nil {
		return fmt.Errorf("compile requirement pattern for key %q: %w", r.Key, err)
	}
	r.compiled = re
	return nil
}

// Requirements is an ordered set of Requirement checks; all must be
// satisfied for a candidate to match.
type Requirements []Requirement

// CompileAll compiles every requirement's pattern.
func (rs Requirements) CompileAll() error {
	for i := range rs {
		if err := rs[i].Compile(); err != nil {
			return err
		}
	}
	return nil
}

// Satisfied reports whether every requirement is met by keys, and - for
// May-Resolve introspection - which required keys are entirely absent
// (as opposed to present but pattern-mismatched). A key that is present
// but fails its pattern rejects the candidate outright: it is not a gap
// introspection can close by fetching more metadata, so missing is
// cleared rather than padded with requirements checked after it.
func (rs Requirements) Satisfied(keys expand.MediaKeys) (ok bool, missing []string) {
	for _, r := range rs {
		value, present := keys.Key(r.Key)
		if !present {
			missing = append(missing, r.Key)
			continue
		}
		if r.compiled != nil && !r.compiled.MatchString(coerce(value)) {
			return false, nil
		}
	}
	return len(missing) == 0, missing
}

func coerce(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// Candidate is one matchable operation: the Requirements that gate it.
// Its priority is its position in the list given to New.
type Candidate interface {
	Requirements() Requirements
}

// Typed is implemented by an input key set that exposes the media type it
// describes, letting Matcher filter candidates by required-type
// compatibility before it ever tests Requirements. *media.Record
// satisfies this without match importing media.
type Typed interface {
	MediaType() string
}

// TypedCandidate is a Candidate that additionally declares the media type
// it requires of its input - operation selection step one: a candidate
// whose required type isn't a match for the input is skipped outright,
// regardless of whether its Requirements would otherwise be satisfied. A
// candidate with no declared required type (RequiredType() == "") or
// with the generic type "media" matches any input; any other required
// type matches only an input of exactly that type.
type TypedCandidate interface {
	Candidate
	RequiredType() string
}

// Matcher selects among an ordered list of candidates - the operations
// declared for a source, in document order.
type Matcher struct {
	candidates []Candidate
}

// New builds a Matcher over candidates in first-to-last priority order.
func New(candidates ...Candidate) *Matcher {
	return &Matcher{candidates: candidates}
}

// Match returns the first candidate whose required media type accepts
// keys and whose Requirements are fully satisfied by keys, and its index.
// The second return is false if none match.
func (m *Matcher) Match(keys expand.MediaKeys) (Candidate, int, bool) {
	inputType := typeOf(keys)
	for i, c := range m.candidates {
		if !typeCompatible(c, inputType) {
			continue
		}
		if ok, _ := c.Requirements().Satisfied(keys); ok {
			return c, i, true
		}
	}
	return nil, -1, false
}

func typeOf(keys expand.MediaKeys) string {
	if t, ok := keys.(Typed); ok {
		return t.MediaType()
	}
	return ""
}

func typeCompatible(c Candidate, inputType string) bool {
	tc, ok := c.(TypedCandidate)
	if !ok {
		return true
	}
	required := tc.RequiredType()
	if required == "" || required == "media" || inputType == "" {
		return true
	}
	return required == inputType
}

// MayResolve returns the required keys that the candidate at index i is
// missing from keys - the introspection mode a host uses to decide
// whether fetching more metadata could unlock a resolve operation. ok is
// false only when i is out of range. The missing set is empty both when
// the candidate already matches and when a present key fails its
// pattern, since supplying more keys cannot help in that case.
func (m *Matcher) MayResolve(i int, keys expand.MediaKeys) (missing []string, ok bool) {
	if i < 0 || i >= len(m.candidates) {
		return nil, false
	}
	_, missing = m.candidates[i].Requirements().Satisfied(keys)
	return missing, true
}

// First returns the first declared candidate, unconditionally. Search
// operations use this instead of Match: a search always runs the first
// declared search operation, ignoring Requirements.
func (m *Matcher) First() (Candidate, bool) {
	if len(m.candidates) == 0 {
		return nil, false
	}
	return m.candidates[0], true
}
