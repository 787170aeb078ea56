package repository

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xiaot623/serenai/internal/domain"
)

//go:embed seed_circles.yaml
var defaultCircleSeed []byte

type circleSeedFile struct {
	Circles []circleSeed `yaml:"circles"`
}

type circleSeed struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Category    domain.Category `yaml:"category"`
	Private     bool            `yaml:"private"`
	Anonymous   *bool           `yaml:"anonymous"`
	MaxMembers  int             `yaml:"max_members"`
}

// LoadCircleSeeds reads circle definitions from path, or the built-in set when path is empty.
func LoadCircleSeeds(path string) ([]domain.Circle, error) {
	data := defaultCircleSeed
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read circle seed file: %w", err)
		}
	}
	return ParseCircleSeeds(data)
}

// ParseCircleSeeds decodes a YAML circle seed document.
func ParseCircleSeeds(data []byte) ([]domain.Circle, error) {
	var file circleSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse circle seeds: %w", err)
	}

	circles := make([]domain.Circle, 0, len(file.Circles))
	for i, s := range file.Circles {
		c := domain.Circle{
			CircleID:    s.ID,
			Name:        s.Name,
			Description: s.Description,
			Category:    s.Category,
			IsPrivate:   s.Private,
			IsAnonymous: true,
			MaxMembers:  s.MaxMembers,
		}
		if s.Anonymous != nil {
			c.IsAnonymous = *s.Anonymous
		}
		if c.MaxMembers == 0 {
			c.MaxMembers = domain.DefaultMaxMembers
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("circle seed %d: %w", i, err)
		}
		circles = append(circles, c)
	}
	return circles, nil
}

// SeedCircles creates the given circles, skipping ones that already exist.
// It returns the number of circles created.
func (s *SQLiteStore) SeedCircles(ctx context.Context, circles []domain.Circle) (int, error) {
	created := 0
	for i := range circles {
		c := circles[i]
		if err := s.CreateCircle(ctx, &c); err != nil {
			// Ignore if exists
			if IsUniqueViolation(err) {
				continue
			}
			return created, fmt.Errorf("seed circle %s: %w", c.CircleID, err)
		}
		created++
	}
	return created, nil
}
