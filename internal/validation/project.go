package validation

import (
	"time"

	"github.com/dpshade/promptlib/internal/models"
)

// Project converts a validated header mapping into a typed Header.
// Unknown keys are ignored; wrongly shaped optional values project as zero.
func Project(m *models.Mapping) *models.Header {
	h := &models.Header{
		ID:                    str(m, "id"),
		Name:                  str(m, "title"),
		Summary:               str(m, "description"),
		Category:              str(m, "category"),
		SubCategory:           str(m, "sub_category"),
		Tags:                  strList(m, "tags"),
		Version:               str(m, "version"),
		Status:                str(m, "status"),
		LLMModelCompatibility: strList(m, "llm_model_compatibility"),
		PlanTask:              str(m, "plan_task"),
		FilePath:              str(m, "file_path"),
	}

	for _, entry := range mappingList(m, "parameters") {
		h.Parameters = append(h.Parameters, models.Parameter{
			Name:        str(entry, "name"),
			Type:        str(entry, "type"),
			Description: str(entry, "description"),
		})
	}

	for _, entry := range mappingList(m, "plan_steps") {
		h.PlanSteps = append(h.PlanSteps, models.PlanStep{
			Title:     str(entry, "title"),
			Details:   str(entry, "details"),
			AgentName: str(entry, "agent_name"),
		})
	}

	if v, ok := m.Get("last_modified"); ok {
		switch t := v.(type) {
		case time.Time:
			h.LastModified = t
		case string:
			if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
				h.LastModified = parsed
			}
		}
	}

	return h
}

func str(m *models.Mapping, key string) string {
	v, _ := m.Get(key)
	s, _ := models.ScalarString(v)
	return s
}

func strList(m *models.Mapping, key string) []string {
	v, _ := m.Get(key)
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := models.ScalarString(item); ok {
			out = append(out, s)
		}
	}
	return out
}

func mappingList(m *models.Mapping, key string) []*models.Mapping {
	v, _ := m.Get(key)
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []*models.Mapping
	for _, item := range items {
		if entry, ok := item.(*models.Mapping); ok {
			out = append(out, entry)
		}
	}
	return out
}
