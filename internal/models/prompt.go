package models

import (
	"path"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Header is the typed projection of a prompt's YAML front matter
type Header struct {
	// Required frontmatter fields
	ID                    string   `yaml:"id" json:"id"`
	Name                  string   `yaml:"title" json:"title"`
	Summary               string   `yaml:"description" json:"description"`
	Category              string   `yaml:"category" json:"category"`
	Tags                  []string `yaml:"tags" json:"tags"`
	Version               string   `yaml:"version" json:"version"`
	Status                string   `yaml:"status" json:"status"`
	LLMModelCompatibility []string `yaml:"llm_model_compatibility" json:"llm_model_compatibility"`

	// Optional frontmatter fields
	SubCategory string      `yaml:"sub_category,omitempty" json:"sub_category,omitempty"`
	Parameters  []Parameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	PlanTask    string      `yaml:"plan_task,omitempty" json:"plan_task,omitempty"`
	PlanSteps   []PlanStep  `yaml:"plan_steps,omitempty" json:"plan_steps,omitempty"`

	// Injected by the collector on every run
	LastModified time.Time `yaml:"last_modified" json:"last_modified"`
	FilePath     string    `yaml:"file_path" json:"file_path"`
}

// Parameter describes a named input a prompt expects
type Parameter struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
}

// PlanStep is one step of a prompt's execution plan
type PlanStep struct {
	Title     string `yaml:"title" json:"title"`
	Details   string `yaml:"details" json:"details"`
	AgentName string `yaml:"agent_name,omitempty" json:"agent_name,omitempty"`
}

// FileName returns the base name of the prompt file
func (h *Header) FileName() string {
	return path.Base(h.FilePath)
}

// Dir returns the root-relative directory holding the prompt file
func (h *Header) Dir() string {
	return path.Dir(h.FilePath)
}

// Implement list.Item interface for bubbles list component

// FilterValue returns the value used for filtering in lists
func (h Header) FilterValue() string {
	return cleanString(h.Name + " " + h.ID + " " + strings.Join(h.Tags, " "))
}

// Title satisfies the list.Item interface
func (h Header) Title() string {
	if h.Name != "" {
		return cleanString(h.Name)
	}
	return cleanString(h.ID)
}

// Description satisfies the list.Item interface
func (h Header) Description() string {
	var parts []string

	if h.Summary != "" {
		summary := runewidth.Truncate(cleanString(h.Summary), 60, "...")
		parts = append(parts, summary)
	}

	if h.Category != "" {
		parts = append(parts, h.Category)
	}

	if len(h.Tags) > 0 {
		parts = append(parts, "Tags: "+joinTags(h.Tags))
	}

	result := strings.Join(parts, " • ")

	// Leave space for list indicator and margins
	return runewidth.Truncate(cleanString(result), 100, "...")
}

// cleanString removes problematic characters that might cause rendering issues
func cleanString(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			b.WriteRune(' ')
		} else if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
