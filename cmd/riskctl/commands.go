package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/wwwlqh/insurance-risk-modeling/ml"
	"github.com/wwwlqh/insurance-risk-modeling/scoring"
	"github.com/wwwlqh/insurance-risk-modeling/validation"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var (
	inputFlag = &cli.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "JSON file holding one application object or an array of them",
		Required: true,
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "Output format: text or json",
		Value: formatText,
	}

	checkCmd = &cli.Command{
		Name:   "check",
		Usage:  "Load every artifact slot and score the built-in sample application",
		Action: runCheck,
	}

	scoreCmd = &cli.Command{
		Name:  "score",
		Usage: "Score applications from a JSON file",
		Flags: []cli.Flag{
			inputFlag,
			formatFlag,
		},
		Action: runScore,
	}

	printer = message.NewPrinter(language.English)
)

func runCheck(ctx context.Context, cmd *cli.Command) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	bundle := rt.artifacts.Bundle

	fmt.Fprintf(out, "Artifacts:       %s\n", rt.cfg.Artifacts.Dir)
	fmt.Fprintf(out, "Models:          %s / %s (threshold %.2f)\n", rt.artifacts.ClassifierType, rt.artifacts.RegressorType, rt.artifacts.Threshold)
	fmt.Fprintf(out, "Feature order:   %d columns: %s\n", len(bundle.FeatureOrder), strings.Join(bundle.FeatureOrder, ", "))
	fmt.Fprintf(out, "Scale features:  %d columns: %s\n", len(bundle.ScaleFeatures), strings.Join(bundle.ScaleFeatures, ", "))
	fmt.Fprintf(out, "Encoded columns: %s\n", strings.Join(ml.EncodedColumns(), ", "))

	sample := ml.SampleApplication()
	validator, err := validation.New(rt.cfg.Validation.ExtraRules...)
	if err != nil {
		return err
	}
	if err := validator.Check(sample); err != nil {
		return fmt.Errorf("sample application: %w", err)
	}
	vec, err := rt.service.Build(sample)
	if err != nil {
		return fmt.Errorf("build sample features: %w", err)
	}
	fmt.Fprintf(out, "Sample features (%d):\n", vec.Len())
	writeVector(out, vec)

	scores, err := rt.service.ScoreBatch([]ml.Application{sample})
	if err != nil {
		return fmt.Errorf("score sample application: %w", err)
	}
	fmt.Fprintln(out, "Sample application:")
	writeScore(out, scores[0])
	return nil
}

// writeVector prints each column's value before and after scaling.
func writeVector(out io.Writer, vec ml.FeatureVector) {
	for _, column := range vec.Columns {
		raw, _ := vec.UnscaledValue(column)
		scaled, _ := vec.Value(column)
		fmt.Fprintf(out, "  %-22s %14.4f %10.4f\n", column, raw, scaled)
	}
}

func runScore(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String(formatFlag.Name)
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q, want text or json", format)
	}

	payload, err := os.ReadFile(cmd.String(inputFlag.Name))
	if err != nil {
		return err
	}
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	validator, err := validation.New(rt.cfg.Validation.ExtraRules...)
	if err != nil {
		return err
	}
	apps, err := parseApplications(payload, validator)
	if err != nil {
		return err
	}

	scores, err := rt.service.ScoreBatch(apps)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(scores)
	}
	for i, s := range scores {
		fmt.Fprintf(out, "Application %d:\n", i+1)
		writeScore(out, s)
	}
	return nil
}

// parseApplications accepts a single object or an array of objects.
func parseApplications(payload []byte, validator *validation.Validator) ([]ml.Application, error) {
	var bodies []map[string]any
	trimmed := bytes.TrimSpace(payload)

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := dec.Decode(&bodies); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
	} else {
		var body map[string]any
		if err := dec.Decode(&body); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
		bodies = append(bodies, body)
	}
	if len(bodies) == 0 {
		return nil, fmt.Errorf("input holds no applications")
	}

	apps := make([]ml.Application, 0, len(bodies))
	for i, body := range bodies {
		app, err := validator.Decode(body)
		if err != nil {
			return nil, &scoring.BatchError{Index: i, Err: err}
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func writeScore(out io.Writer, s scoring.Score) {
	fmt.Fprintf(out, "  risk category: %d (%s)\n", s.Classification.Category, s.Classification.Label)
	fmt.Fprintf(out, "  probability:   %.4f\n", s.Classification.Probability)
	fmt.Fprintf(out, "  expected cost: %s\n", formatCost(s.Regression.Cost))
	if len(s.Classification.Fallbacks) > 0 {
		fmt.Fprintf(out, "  unseen values: %s\n", strings.Join(s.Classification.Fallbacks, ", "))
	}
}

// formatCost renders an amount as "RM 1,234.56".
func formatCost(cost float64) string {
	return printer.Sprintf("RM %.2f", cost)
}
