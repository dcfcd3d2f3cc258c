package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FranksOps/seoscribe/internal/pipeline"
	"github.com/FranksOps/seoscribe/internal/render"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one draft for a keyword and print it",
	Long: `Generate runs research and generation once for --keyword and writes the
draft to stdout. With --format json the research payload and draft audit are
included.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("keyword", "k", "", "keyword to write about (required)")
	generateCmd.Flags().String("format", "raw", "output format: raw, html (markdown rendered) or json")
	_ = generateCmd.MarkFlagRequired("keyword")

	rootCmd.AddCommand(generateCmd)
}

type generateOutput struct {
	RunID    string `json:"run_id"`
	Keyword  string `json:"keyword"`
	Draft    string `json:"draft"`
	Research any    `json:"research"`
	Audit    any    `json:"audit"`
	Duration string `json:"duration"`
}

func runGenerate(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("keyword")
	if keyword == "" {
		return fmt.Errorf("--keyword must not be empty")
	}
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "raw", "html", "json":
	default:
		return fmt.Errorf("unknown --format %q", format)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	gen, err := newGenerator(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer gen.Close()

	res := gen.Run(cmd.Context(), keyword, pipeline.TriggerCLI)
	if !res.OK() {
		return res.Failure
	}

	out := cmd.OutOrStdout()
	switch format {
	case "html":
		html, err := render.MarkdownToHTML(res.Draft)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, html)
		return err
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(generateOutput{
			RunID:    res.RunID,
			Keyword:  res.Keyword,
			Draft:    res.Draft,
			Research: res.Research,
			Audit:    res.Audit,
			Duration: res.Duration.String(),
		})
	default:
		_, err = fmt.Fprintln(out, res.Draft)
		return err
	}
}
