package config

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Section provides access to one config section with access tracking.
type Section struct {
	name    string
	options map[string]string

	mu       sync.RWMutex
	accessed map[string]struct{}
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{
		name:     name,
		options:  opts,
		accessed: make(map[string]struct{}),
	}
}

// GetName returns the section name.
func (s *Section) GetName() string {
	return s.name
}

func (s *Section) markAccessed(option string) {
	s.mu.Lock()
	s.accessed[strings.ToLower(option)] = struct{}{}
	s.mu.Unlock()
}

// GetUnusedOptions returns options that were never read.
func (s *Section) GetUnusedOptions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []string
	for opt := range s.options {
		if _, ok := s.accessed[opt]; !ok {
			result = append(result, opt)
		}
	}
	sort.Strings(result)
	return result
}

// HasOption checks if an option exists in this section.
func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// Get returns a string option value. If a fallback is provided and the
// option doesn't exist, the fallback is returned; otherwise an error.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	key := strings.ToLower(option)
	if v, ok := s.options[key]; ok {
		s.markAccessed(option)
		return v, nil
	}
	if len(fallback) > 0 {
		s.markAccessed(option)
		return fallback[0], nil
	}
	return "", ErrMissingOption(s.name, option)
}

// GetInt returns an integer option value.
func (s *Section) GetInt(option string, fallback ...int) (int, error) {
	key := strings.ToLower(option)
	if v, ok := s.options[key]; ok {
		s.markAccessed(option)
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, ErrInvalidValue(s.name, option, v, "integer")
		}
		return i, nil
	}
	if len(fallback) > 0 {
		s.markAccessed(option)
		return fallback[0], nil
	}
	return 0, ErrMissingOption(s.name, option)
}

// GetIntWithBounds returns an integer option value with bounds checking.
func (s *Section) GetIntWithBounds(option string, minVal, maxVal *int, fallback ...int) (int, error) {
	v, err := s.GetInt(option, fallback...)
	if err != nil {
		return 0, err
	}
	if minVal != nil && v < *minVal {
		return 0, ErrOutOfRange(s.name, option, float64(v), "must have minimum of "+strconv.Itoa(*minVal))
	}
	if maxVal != nil && v > *maxVal {
		return 0, ErrOutOfRange(s.name, option, float64(v), "must have maximum of "+strconv.Itoa(*maxVal))
	}
	return v, nil
}

// GetFloat returns a float64 option value.
func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	key := strings.ToLower(option)
	if v, ok := s.options[key]; ok {
		s.markAccessed(option)
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, ErrInvalidValue(s.name, option, v, "float")
		}
		return f, nil
	}
	if len(fallback) > 0 {
		s.markAccessed(option)
		return fallback[0], nil
	}
	return 0, ErrMissingOption(s.name, option)
}

// GetBool returns a boolean option value.
// Accepts: 1, true, yes, on (true) and 0, false, no, off (false).
func (s *Section) GetBool(option string, fallback ...bool) (bool, error) {
	key := strings.ToLower(option)
	if v, ok := s.options[key]; ok {
		s.markAccessed(option)
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			return true, nil
		case "0", "false", "no", "off":
			return false, nil
		default:
			return false, ErrInvalidValue(s.name, option, v, "boolean (true/false/yes/no/on/off/1/0)")
		}
	}
	if len(fallback) > 0 {
		s.markAccessed(option)
		return fallback[0], nil
	}
	return false, ErrMissingOption(s.name, option)
}
