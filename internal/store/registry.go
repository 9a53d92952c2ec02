// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// Registry is the exported catalog of published skills.
type Registry struct {
	LastUpdated string                    `json:"last_updated" yaml:"last_updated"`
	TotalSkills int                       `json:"total_skills" yaml:"total_skills"`
	Categories  map[string]*CategoryEntry `json:"categories" yaml:"categories"`
	Skills      []RegistryEntry           `json:"skills" yaml:"skills"`
	Statistics  RegistryStatistics        `json:"statistics" yaml:"statistics"`
}

// CategoryEntry lists the skills of one category.
type CategoryEntry struct {
	Count  int             `json:"count" yaml:"count"`
	Skills []CategorySkill `json:"skills" yaml:"skills"`
}

// CategorySkill is the short form of a skill inside a category.
type CategorySkill struct {
	Name       string `json:"name" yaml:"name"`
	Difficulty string `json:"difficulty" yaml:"difficulty"`
	CreatedAt  string `json:"created_at" yaml:"created_at"`
}

// RegistryEntry describes one published skill.
type RegistryEntry struct {
	Name       string   `json:"name" yaml:"name"`
	Title      string   `json:"title" yaml:"title"`
	Category   string   `json:"category" yaml:"category"`
	Difficulty string   `json:"difficulty" yaml:"difficulty"`
	Tags       []string `json:"tags" yaml:"tags"`
	CreatedAt  string   `json:"created_at" yaml:"created_at"`
	PostPath   string   `json:"post_path" yaml:"post_path"`
	SkillPath  string   `json:"skill_path" yaml:"skill_path"`
}

// RegistryStatistics aggregates the registry.
type RegistryStatistics struct {
	ByDifficulty map[string]int          `json:"by_difficulty" yaml:"by_difficulty"`
	ByMonth      map[string]*MonthlyStat `json:"by_month" yaml:"by_month"`
}

// MonthlyStat counts skills published in one YYYY-MM month.
type MonthlyStat struct {
	Total     int            `json:"total" yaml:"total"`
	Breakdown map[string]int `json:"breakdown" yaml:"breakdown"`
}

var (
	registryCategories   = []string{string(types.CategoryWorkflow), string(types.CategoryAgent), string(types.CategorySkill)}
	registryDifficulties = []string{string(types.DifficultyBeginner), string(types.DifficultyIntermediate), string(types.DifficultyAdvanced)}
)

func newRegistry() *Registry {
	r := &Registry{
		Categories: make(map[string]*CategoryEntry, len(registryCategories)),
		Skills:     []RegistryEntry{},
		Statistics: RegistryStatistics{
			ByDifficulty: make(map[string]int, len(registryDifficulties)),
			ByMonth:      map[string]*MonthlyStat{},
		},
	}
	for _, c := range registryCategories {
		r.Categories[c] = &CategoryEntry{Skills: []CategorySkill{}}
	}
	for _, d := range registryDifficulties {
		r.Statistics.ByDifficulty[d] = 0
	}
	return r
}

func (r *Registry) add(e RegistryEntry) {
	r.Skills = append(r.Skills, e)
	r.TotalSkills = len(r.Skills)

	if c, ok := r.Categories[e.Category]; ok {
		c.Count++
		c.Skills = append(c.Skills, CategorySkill{Name: e.Name, Difficulty: e.Difficulty, CreatedAt: e.CreatedAt})
	}
	if _, ok := r.Statistics.ByDifficulty[e.Difficulty]; ok {
		r.Statistics.ByDifficulty[e.Difficulty]++
	}

	if len(e.CreatedAt) < 7 {
		return
	}
	month := e.CreatedAt[:7]
	m, ok := r.Statistics.ByMonth[month]
	if !ok {
		m = &MonthlyStat{Breakdown: make(map[string]int, len(registryCategories))}
		for _, c := range registryCategories {
			m.Breakdown[c] = 0
		}
		r.Statistics.ByMonth[month] = m
	}
	m.Total++
	m.Breakdown[e.Category]++
}

// BuildRegistry assembles the registry from the skills table.
func (s *Store) BuildRegistry(ctx context.Context) (*Registry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, title, category, difficulty, COALESCE(tags, '[]'), created_at
		 FROM skills ORDER BY created_at, slug`)
	if err != nil {
		return nil, fmt.Errorf("querying skills: %w", err)
	}
	defer rows.Close()

	reg := newRegistry()
	for rows.Next() {
		var (
			e    RegistryEntry
			tags string
		)
		if err := rows.Scan(&e.Name, &e.Title, &e.Category, &e.Difficulty, &tags, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning skill: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil || e.Tags == nil {
			e.Tags = []string{}
		}
		e.PostPath = "/posts/" + e.Name + "/"
		e.SkillPath = "/skills/" + e.Name + "/"
		reg.add(e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reg.LastUpdated = s.now().Format(time.RFC3339)
	return reg, nil
}

// ExportRegistry writes the registry to dataDir/skill_registry.yaml.
func (s *Store) ExportRegistry(ctx context.Context) error {
	reg, err := s.BuildRegistry(ctx)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	if err := os.WriteFile(s.RegistryPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}
