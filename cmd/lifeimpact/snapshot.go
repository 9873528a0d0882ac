package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/amped/longevity/internal/domain/model"
)

var errNoSnapshot = errors.New("no snapshot: pass --file")

// snapshot is the on-disk input of every subcommand.
type snapshot struct {
	Profile      model.UserProfile    `yaml:"profile"`
	Metrics      []model.HealthMetric `yaml:"metrics"`
	Completeness *model.Completeness  `yaml:"completeness"`
}

func loadSnapshot(path string, stdin io.Reader) (*snapshot, error) {
	if path == "" {
		return nil, errNoSnapshot
	}
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}

	var s snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	for i, m := range s.Metrics {
		if m.Type == "" {
			return nil, fmt.Errorf("metrics[%d]: missing type", i)
		}
	}
	s.Profile.Gender = model.ParseGender(string(s.Profile.Gender))
	s.Metrics = model.WithIDs(s.Metrics)
	return &s, nil
}
