package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidScript = errors.New("invalid script")

// Script is a scripted editing session on one document.
type Script struct {
	Document string   `yaml:"document"`
	Sites    []string `yaml:"sites"`
	Steps    []Step   `yaml:"steps"`
	// Expect, when set, is the text every site must converge to.
	Expect *string `yaml:"expect"`
}

// Step does exactly one thing. Text replaces the site's whole text; the
// operation is inferred from the difference. Deliver is "all", "server" or a
// site name.
type Step struct {
	Site       string  `yaml:"site"`
	Text       *string `yaml:"text"`
	Undo       bool    `yaml:"undo"`
	Redo       bool    `yaml:"redo"`
	Deliver    string  `yaml:"deliver"`
	Disconnect bool    `yaml:"disconnect"`
	Reconnect  bool    `yaml:"reconnect"`
}

func ReadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScript, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if s.Document == "" {
		return fmt.Errorf("%w: missing document", ErrInvalidScript)
	}
	if len(s.Sites) == 0 {
		return fmt.Errorf("%w: no sites", ErrInvalidScript)
	}
	sites := make(map[string]bool, len(s.Sites))
	for _, site := range s.Sites {
		if site == "" || site == "all" || site == "server" || sites[site] {
			return fmt.Errorf("%w: bad site name %q", ErrInvalidScript, site)
		}
		sites[site] = true
	}

	for i, step := range s.Steps {
		actions := 0
		for _, set := range []bool{step.Text != nil, step.Undo, step.Redo, step.Deliver != "", step.Disconnect, step.Reconnect} {
			if set {
				actions++
			}
		}
		if actions != 1 {
			return fmt.Errorf("%w: step %d must do exactly one thing", ErrInvalidScript, i)
		}
		switch {
		case step.Deliver != "":
			if step.Deliver != "all" && step.Deliver != "server" && !sites[step.Deliver] {
				return fmt.Errorf("%w: step %d delivers to unknown %q", ErrInvalidScript, i, step.Deliver)
			}
		case !sites[step.Site]:
			return fmt.Errorf("%w: step %d names unknown site %q", ErrInvalidScript, i, step.Site)
		}
	}
	return nil
}
