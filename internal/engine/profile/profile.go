// Package profile holds per-keyword setup for detectors configured through
// an object API, such as how many sensitivity values a keyword model
// expects.
package profile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile describes how a detector is configured for one keyword.
type Profile struct {
	// Phrases is the number of hotwords inside the keyword model. Models
	// with more than one phrase take one comma-separated sensitivity per
	// phrase.
	Phrases int `yaml:"phrases"`
}

// Sensitivity renders value once per phrase, e.g. "0.5,0.5".
func (p Profile) Sensitivity(value float64) string {
	n := p.Phrases
	if n < 1 {
		n = 1
	}
	v := strconv.FormatFloat(value, 'f', -1, 64)
	parts := make([]string, n)
	for i := range parts {
		parts[i] = v
	}
	return strings.Join(parts, ",")
}

// Set maps lower-cased keyword names to profiles. Unknown keywords use a
// single-phrase profile.
type Set struct {
	Keywords map[string]Profile `yaml:"keywords"`
}

// Builtin returns the profiles for the pretrained universal models that
// ship with multi-phrase keyword files. Only jarvis does.
func Builtin() *Set {
	return &Set{Keywords: map[string]Profile{
		"jarvis": {Phrases: 2},
	}}
}

// Lookup returns the profile for keyword.
func (s *Set) Lookup(keyword string) Profile {
	if s != nil {
		if p, ok := s.Keywords[normalize(keyword)]; ok {
			return p
		}
	}
	return Profile{Phrases: 1}
}

// Merge overlays other onto s. Entries in other win.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	if s.Keywords == nil {
		s.Keywords = make(map[string]Profile, len(other.Keywords))
	}
	for k, p := range other.Keywords {
		s.Keywords[normalize(k)] = p
	}
}

// Load reads a YAML profile file.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: open %q: %w", path, err)
	}
	defer f.Close()

	set, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("profile: parse %q: %w", path, err)
	}
	return set, nil
}

// LoadFromReader decodes a YAML profile set from r and validates it.
func LoadFromReader(r io.Reader) (*Set, error) {
	set := &Set{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(set); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("profile: decode yaml: %w", err)
	}

	normalized := make(map[string]Profile, len(set.Keywords))
	var errs []error
	for k, p := range set.Keywords {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, errors.New("profile: empty keyword name"))
			continue
		}
		if p.Phrases < 1 {
			errs = append(errs, fmt.Errorf("profile: keyword %q: phrases must be at least 1, got %d", k, p.Phrases))
			continue
		}
		normalized[normalize(k)] = p
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	set.Keywords = normalized
	return set, nil
}

func normalize(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}
