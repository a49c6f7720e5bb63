package validation

import (
	"testing"

	"github.com/dpshade/promptlib/internal/codec"
	"github.com/dpshade/promptlib/internal/errors"
	"github.com/dpshade/promptlib/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validHeader = `id: market-summary
title: Market Summary
description: Summarize the market
category: analysis
tags:
  - markets
  - summary
version: "1.0"
status: active
llm_model_compatibility:
  - gpt-4
parameters:
  - name: ticker
    type: string
    description: Symbol to analyze
plan_task: summarize
plan_steps:
  - title: Gather
    details: Fetch quotes
    agent_name: fetcher
`

func decode(t *testing.T, text string) *models.Mapping {
	t.Helper()
	m, err := codec.NewYAML().Decode([]byte(text))
	require.NoError(t, err)
	return m
}

func TestValidateValidHeader(t *testing.T) {
	v := NewValidator(nil)
	result := v.Validate(decode(t, validHeader), "analysis/market.md")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Nil(t, result.ToAppErrors())
}

func TestValidateMissingTags(t *testing.T) {
	m := decode(t, validHeader)
	stripped := models.NewMapping()
	for _, k := range m.Keys() {
		if k == "tags" {
			continue
		}
		v, _ := m.Get(k)
		stripped.Set(k, v)
	}

	result := NewValidator(nil).Validate(stripped, "analysis/market.md")
	require.False(t, result.Valid)
	assert.Equal(t, []string{"tags"}, result.Fields())
	assert.Contains(t, result.Errors[0].Message, "'tags'")

	appErrs := result.ToAppErrors()
	require.Len(t, appErrs, 1)
	assert.Equal(t, errors.ErrCodeSchema, appErrs[0].Code)
	assert.Equal(t, "analysis/market.md", appErrs[0].Path)
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	header := `id: x
title: X
category: analysis
tags: single
version: "1"
llm_model_compatibility: gpt-4
parameters: not-a-list
plan_steps:
  - just a string
`
	result := NewValidator(nil).Validate(decode(t, header), "analysis/x.md")
	require.False(t, result.Valid)
	assert.Equal(t,
		[]string{"description", "tags", "status", "llm_model_compatibility", "parameters", "plan_steps"},
		result.Fields())
}

func TestValidateScalarFieldsRejectCollections(t *testing.T) {
	header := `id:
  - a
  - b
title: X
description: d
category: analysis
tags: []
version: "1"
status: draft
llm_model_compatibility: []
`
	result := NewValidator(nil).Validate(decode(t, header), "analysis/x.md")
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "id", result.Errors[0].Field)
	assert.Equal(t, "INVALID_TYPE", result.Errors[0].Code)
}

func TestValidateTagElements(t *testing.T) {
	header := `id: x
title: X
description: d
category: analysis
tags:
  - ok
  - nested: map
version: "1"
status: draft
llm_model_compatibility: [a]
`
	result := NewValidator(nil).Validate(decode(t, header), "analysis/x.md")
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_ELEMENT", result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, "item 2")
}

func TestValidateRequiredMeansPresent(t *testing.T) {
	header := `id: x
title: X
description: ""
category: analysis
tags: [a]
version: "1"
status:
llm_model_compatibility: [any]
`
	result := NewValidator(nil).Validate(decode(t, header), "analysis/x.md")
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestValidateNullCollections(t *testing.T) {
	header := `id: x
title: X
description: d
category: analysis
tags:
version: "1"
status: draft
llm_model_compatibility: [any]
parameters:
`
	result := NewValidator(nil).Validate(decode(t, header), "analysis/x.md")
	require.False(t, result.Valid)
	assert.Equal(t, []string{"tags", "parameters"}, result.Fields())
	for _, e := range result.Errors {
		assert.Equal(t, "INVALID_TYPE", e.Code)
	}
}

func TestCustomRequiredFields(t *testing.T) {
	v := NewValidator([]string{"id", "owner"})
	result := v.Validate(decode(t, "id: x\n"), "analysis/x.md")
	require.False(t, result.Valid)
	assert.Equal(t, []string{"owner"}, result.Fields())
}

func TestUnknownSchema(t *testing.T) {
	result := NewValidator(nil).ValidateWith("nope", models.NewMapping(), "a.md")
	require.False(t, result.Valid)
	assert.Equal(t, "SCHEMA_NOT_FOUND", result.Errors[0].Code)
}

func TestProject(t *testing.T) {
	m := decode(t, validHeader)
	m.Set("last_modified", "2024-05-01T10:00:00Z")
	m.Set("file_path", "analysis/market.md")

	h := Project(m)
	assert.Equal(t, "market-summary", h.ID)
	assert.Equal(t, "Market Summary", h.Name)
	assert.Equal(t, "Summarize the market", h.Summary)
	assert.Equal(t, []string{"markets", "summary"}, h.Tags)
	assert.Equal(t, "1.0", h.Version)
	assert.Equal(t, []string{"gpt-4"}, h.LLMModelCompatibility)
	require.Len(t, h.Parameters, 1)
	assert.Equal(t, "ticker", h.Parameters[0].Name)
	require.Len(t, h.PlanSteps, 1)
	assert.Equal(t, "fetcher", h.PlanSteps[0].AgentName)
	assert.Equal(t, 2024, h.LastModified.Year())
	assert.Equal(t, "market.md", h.FileName())
	assert.Equal(t, "analysis", h.Dir())
}

func TestProjectKeepsNumericLiteral(t *testing.T) {
	h := Project(decode(t, "version: 1.0\n"))
	assert.Equal(t, "1.0", h.Version)
}
