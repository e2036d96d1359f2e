package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gopkg.in/yaml.v3"

	"pulsescore-backend/internal/scoring"
)

const surveyYAML = `organizationName: Acme
title: Q3 pulse
questions:
  - id: q1
    text: I trust leadership
    responseType: numeric-scale
    theme: trust-in-leadership
  - id: q2
    text: I can speak up
    responseType: numeric-scale
    theme: psychological-safety
  - id: q3
    text: Anything else?
    responseType: free-text
    theme: mission-alignment
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreJSONAcrossFiles(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	survey := writeFile(t, dir, "survey.yaml", surveyYAML)
	high := writeFile(t, dir, "high.json", `[{"questionId":"q1","value":5},{"questionId":"q2","value":5},{"questionId":"q3","value":"great"}]`)
	low := writeFile(t, dir, "low.yaml", "- questionId: q1\n  value: 1\n- questionId: q2\n  value: 1\n")

	stdout, err := run(t, "score", "--survey", survey, "--responses", high, "--responses", low)
	require.NoError(t, err)

	var got scoreOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "Acme", got.OrganizationName)
	assert.Equal(t, scoring.DefaultConfig().Version, got.ConfigVersion)
	require.Len(t, got.Reports, 2)
	assert.Equal(t, high, got.Reports[0].Responses)
	assert.Equal(t, low, got.Reports[1].Responses)

	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	require.NoError(t, err)
	var file surveyFile
	require.NoError(t, yaml.Unmarshal([]byte(surveyYAML), &file))
	want := engine.Evaluate(file.Questions, scoring.Responses{
		scoring.NumericResponse{QuestionID: "q1", Value: 5},
		scoring.NumericResponse{QuestionID: "q2", Value: 5},
	}).Result
	assert.Equal(t, want, got.Reports[0].Result)
	assert.Greater(t, got.Reports[0].Result.OverallScore, got.Reports[1].Result.OverallScore)
}

func TestScoreTextFormat(t *testing.T) {
	dir := t.TempDir()
	survey := writeFile(t, dir, "survey.yaml", surveyYAML)
	answers := writeFile(t, dir, "team.json", `[{"questionId":"q1","value":4}]`)

	stdout, err := run(t, "score", "--survey", survey, "--responses", answers, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Acme Q3 pulse")
	assert.Contains(t, stdout, "team.json")
	assert.Contains(t, stdout, "Trust In Leadership")
	assert.Contains(t, stdout, "Culture Trust")
}

func TestScoreFormatFromEnv(t *testing.T) {
	t.Setenv("PULSECTL_FORMAT", "yaml")
	dir := t.TempDir()
	survey := writeFile(t, dir, "survey.yaml", surveyYAML)
	answers := writeFile(t, dir, "team.json", `[]`)

	_, err := run(t, "score", "--survey", survey, "--responses", answers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestScoreRequiresInputs(t *testing.T) {
	_, err := run(t, "score")
	assert.Error(t, err)

	dir := t.TempDir()
	empty := writeFile(t, dir, "empty.yaml", "title: nothing\n")
	answers := writeFile(t, dir, "a.json", `[]`)
	_, err = run(t, "score", "--survey", empty, "--responses", answers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no questions")

	survey := writeFile(t, dir, "survey.yaml", surveyYAML)
	bad := writeFile(t, dir, "bad.json", `[{"questionId":"q1","value":[1]}]`)
	_, err = run(t, "score", "--survey", survey, "--responses", bad)
	assert.Error(t, err)
}

func TestConfigValidateAndPrint(t *testing.T) {
	stdout, err := run(t, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "built-in default")
	assert.Contains(t, stdout, "3 categories")

	stdout, err = run(t, "config", "print")
	require.NoError(t, err)
	cfg, err := scoring.ParseConfig([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, scoring.DefaultConfig(), cfg)

	path := writeFile(t, t.TempDir(), "broken.yaml", "version: x\nscale: {min: 3, max: 3}\n")
	_, err = run(t, "config", "validate", "--config", path)
	assert.ErrorIs(t, err, scoring.ErrInvalidConfig)
}
