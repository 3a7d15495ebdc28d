// Package settings holds the editable vocabularies offered when employees
// are created or edited.
package settings

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
)

const (
	KeyDepartments = "departments"
	KeyPositions   = "positions"
)

var ErrUnknownKey = errors.New("unknown settings key")

var (
	DefaultDepartments = []string{"Engineering", "Sales", "Marketing", "HR", "Operations", "Finance", "Legal"}
	DefaultPositions   = []string{"Senior Dev", "Lead Designer", "Associate", "Manager", "Intern"}
)

type Settings struct {
	Departments []string `json:"departments"`
	Positions   []string `json:"positions"`
}

func Defaults() Settings {
	return Settings{
		Departments: slices.Clone(DefaultDepartments),
		Positions:   slices.Clone(DefaultPositions),
	}
}

func ValidKey(key string) bool {
	return key == KeyDepartments || key == KeyPositions
}

// List returns the list stored under key.
func (s Settings) List(key string) []string {
	if key == KeyPositions {
		return slices.Clone(s.Positions)
	}
	return slices.Clone(s.Departments)
}

// With returns a copy of s with key replaced by values.
func (s Settings) With(key string, values []string) Settings {
	if key == KeyPositions {
		s.Positions = slices.Clone(values)
	} else {
		s.Departments = slices.Clone(values)
	}
	return s
}

// Add appends value unless it is blank or already present, ignoring case.
// The second result reports whether the list changed.
func Add(list []string, value string) ([]string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return list, false
	}
	for _, existing := range list {
		if strings.EqualFold(existing, value) {
			return list, false
		}
	}
	return append(slices.Clone(list), value), true
}

// Remove drops value, ignoring case. The second result reports whether the
// list changed.
func Remove(list []string, value string) ([]string, bool) {
	value = strings.TrimSpace(value)
	out := make([]string, 0, len(list))
	changed := false
	for _, existing := range list {
		if strings.EqualFold(existing, value) {
			changed = true
			continue
		}
		out = append(out, existing)
	}
	if !changed {
		return list, false
	}
	return out, true
}

// Decode reads a stored list value. Stores hand back JSON text, raw bytes or
// an already decoded slice depending on the driver.
func Decode(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return slices.Clone(v), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, nil
	case string:
		return decodeJSON([]byte(v))
	case []byte:
		return decodeJSON(v)
	default:
		return nil, errors.New("unsupported settings value")
	}
}

func decodeJSON(raw []byte) ([]string, error) {
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Merge overlays stored lists onto the defaults.
func Merge(stored map[string][]string) Settings {
	s := Defaults()
	if v, ok := stored[KeyDepartments]; ok {
		s.Departments = slices.Clone(v)
	}
	if v, ok := stored[KeyPositions]; ok {
		s.Positions = slices.Clone(v)
	}
	return s
}
