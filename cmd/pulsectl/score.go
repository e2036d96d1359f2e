package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"pulsescore-backend/internal/scoring"
)

const defaultConcurrency = 4

// surveyFile is the on-disk survey definition.
type surveyFile struct {
	OrganizationName string             `yaml:"organizationName" json:"organizationName"`
	Title            string             `yaml:"title" json:"title"`
	Questions        []scoring.Question `yaml:"questions" json:"questions"`
}

// report is one scored responses file.
type report struct {
	Responses string         `json:"responses"`
	Result    scoring.Result `json:"result"`
}

type scoreOutput struct {
	OrganizationName string   `json:"organizationName,omitempty"`
	Title            string   `json:"title,omitempty"`
	ConfigVersion    string   `json:"configVersion"`
	Reports          []report `json:"reports"`
}

func newScoreCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score one or more responses files against a survey",
		Long: `Score response files against a survey definition.

Each --responses file is a JSON or YAML list of {questionId, value} items and
is scored independently; several files are scored in parallel.`,
		Example: "  pulsectl score --survey survey.yaml --responses team-a.json --responses team-b.json --format text",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScore(cmd, v)
		},
	}
	cmd.Flags().String("survey", "", "Survey definition (YAML or JSON)")
	cmd.Flags().StringSlice("responses", nil, "Responses file; repeat for several")
	cmd.Flags().StringP("format", "f", "json", "Output format (json|text)")
	cmd.Flags().Int("concurrency", defaultConcurrency, "Maximum files scored at once")
	for _, name := range []string{"survey", "responses", "format", "concurrency"} {
		_ = v.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	return cmd
}

func runScore(cmd *cobra.Command, v *viper.Viper) error {
	format := strings.ToLower(strings.TrimSpace(v.GetString("format")))
	if format != "json" && format != "text" {
		return fmt.Errorf("unsupported format %q (want json or text)", format)
	}
	surveyPath := v.GetString("survey")
	if surveyPath == "" {
		return errors.New("--survey is required")
	}
	responsePaths := v.GetStringSlice("responses")
	if len(responsePaths) == 0 {
		return errors.New("at least one --responses file is required")
	}

	survey, err := readSurvey(surveyPath)
	if err != nil {
		return err
	}
	engine, err := buildEngine(v)
	if err != nil {
		return err
	}

	batches := make([]scoring.Batch, 0, len(responsePaths))
	for _, path := range responsePaths {
		responses, err := readResponses(path)
		if err != nil {
			return err
		}
		batches = append(batches, scoring.Batch{Key: path, Questions: survey.Questions, Responses: responses})
	}

	results, err := engine.ScoreBatch(cmd.Context(), batches, v.GetInt("concurrency"))
	if err != nil {
		return err
	}

	out := scoreOutput{
		OrganizationName: survey.OrganizationName,
		Title:            survey.Title,
		ConfigVersion:    engine.Config().Version,
		Reports:          make([]report, len(results)),
	}
	for i, result := range results {
		out.Reports[i] = report{Responses: batches[i].Key, Result: result}
	}

	if format == "text" {
		_, err = fmt.Fprint(cmd.OutOrStdout(), renderText(cmd.OutOrStdout(), out))
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readSurvey(path string) (surveyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return surveyFile{}, fmt.Errorf("read survey: %w", err)
	}
	var survey surveyFile
	if isJSON(path) {
		err = json.Unmarshal(data, &survey)
	} else {
		err = yaml.Unmarshal(data, &survey)
	}
	if err != nil {
		return surveyFile{}, fmt.Errorf("%s: %w", path, err)
	}
	if len(survey.Questions) == 0 {
		return surveyFile{}, fmt.Errorf("%s: survey has no questions", path)
	}
	return survey, nil
}

func readResponses(path string) (scoring.Responses, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}
	var responses scoring.Responses
	if isJSON(path) {
		err = json.Unmarshal(data, &responses)
	} else {
		err = yaml.Unmarshal(data, &responses)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return responses, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
