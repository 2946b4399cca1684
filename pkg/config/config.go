package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Config provides access to a parsed configuration file with access
// tracking, so unused sections and options can be reported at startup.
type Config struct {
	mu       sync.RWMutex
	sections map[string]*Section
	order    []string

	accessedSections map[string]struct{}
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections:         make(map[string]*Section),
		accessedSections: make(map[string]struct{}),
	}
}

// Load reads a configuration file and returns a Config.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()

	c := New()
	if err := c.parse(bufio.NewScanner(f), path); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses configuration data from a string.
func LoadString(data string) (*Config, error) {
	c := New()
	if err := c.parse(bufio.NewScanner(strings.NewReader(data)), "<string>"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parse(scanner *bufio.Scanner, path string) error {
	var currentSection string
	var currentOptions map[string]string

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// Strip comments
		if idx := strings.IndexAny(line, "#;"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
			if line == "" {
				continue
			}
		}

		// Section header
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if currentSection != "" {
				c.addSection(currentSection, currentOptions)
			}
			header := strings.TrimSpace(line[1 : len(line)-1])
			if header == "" {
				return fmt.Errorf("config: empty section header at line %d in %s", lineNum, path)
			}
			currentSection = header
			currentOptions = make(map[string]string)
			continue
		}

		// Option line: "key: value" or "key = value"
		var key, value string
		if idx := strings.IndexAny(line, ":="); idx >= 0 {
			key = strings.TrimSpace(line[:idx])
			value = strings.TrimSpace(line[idx+1:])
		} else {
			return fmt.Errorf("config: malformed line %d in %s: %q", lineNum, path, line)
		}
		if key == "" {
			return fmt.Errorf("config: empty option name at line %d in %s", lineNum, path)
		}
		if currentSection == "" {
			return fmt.Errorf("config: option %q before any section at line %d in %s", key, lineNum, path)
		}
		currentOptions[key] = value
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if currentSection != "" {
		c.addSection(currentSection, currentOptions)
	}
	return nil
}

func (c *Config) addSection(name string, options map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(name)
	if existing, ok := c.sections[key]; ok {
		// Later definitions extend earlier ones
		for k, v := range options {
			existing.options[strings.ToLower(k)] = v
		}
		return
	}
	c.sections[key] = newSection(name, options)
	c.order = append(c.order, key)
}

// GetSection returns the named section or an error if it is missing.
func (c *Config) GetSection(name string) (*Section, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(name)
	s, ok := c.sections[key]
	if !ok {
		return nil, ErrMissingSection(name)
	}
	c.accessedSections[key] = struct{}{}
	return s, nil
}

// GetSectionOptional returns the named section, or nil if it is missing.
func (c *Config) GetSectionOptional(name string) *Section {
	s, err := c.GetSection(name)
	if err != nil {
		return nil
	}
	return s
}

// HasSection checks if a section exists without marking it accessed.
func (c *Config) HasSection(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.sections[strings.ToLower(name)]
	return ok
}

// GetSectionNames returns all section names in file order.
func (c *Config) GetSectionNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.order))
	for _, key := range c.order {
		names = append(names, c.sections[key].name)
	}
	return names
}

// GetUnusedSections returns sections that were never accessed.
func (c *Config) GetUnusedSections() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var unused []string
	for _, key := range c.order {
		if _, ok := c.accessedSections[key]; !ok {
			unused = append(unused, c.sections[key].name)
		}
	}
	return unused
}

// CheckUnusedOptions returns an error if any accessed section holds
// options that were never read. Typos in option names surface here.
func (c *Config) CheckUnusedOptions() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, key := range c.order {
		if _, ok := c.accessedSections[key]; !ok {
			continue
		}
		s := c.sections[key]
		if unused := s.GetUnusedOptions(); len(unused) > 0 {
			return fmt.Errorf("config: section '%s' has unknown options: %s",
				s.name, strings.Join(unused, ", "))
		}
	}
	return nil
}
