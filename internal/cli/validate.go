package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hookwatch/internal/config"
	"hookwatch/internal/delivery"
	"hookwatch/internal/gateway/handlers"
	"hookwatch/internal/rules"
)

// ValidateReport is the machine-readable result of validate.
type ValidateReport struct {
	ConfigPath     string              `json:"config_path"`
	TokenSet       bool                `json:"token_set"`
	DefaultWebhook string              `json:"default_webhook,omitempty"`
	Rules          []handlers.RuleView `json:"rules"`
	Warnings       []string            `json:"warnings"`
}

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and print the compiled rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx := GetCLIContext(cmd)
			if cliCtx == nil {
				return fmt.Errorf("CLI context not initialized")
			}

			report, err := buildValidateReport(cliCtx.Config, cliCtx.ConfigPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				data, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				printValidateReport(cmd, report)
			}

			if !report.TokenSet {
				return config.ErrMissingToken
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	return cmd
}

func buildValidateReport(cfg *config.Config, path string) (*ValidateReport, error) {
	if err := cfg.ValidateChannels(); err != nil {
		return nil, err
	}
	table, err := rules.Compile(cfg.Channels)
	if err != nil {
		return nil, err
	}

	report := &ValidateReport{
		ConfigPath:     path,
		TokenSet:       strings.TrimSpace(cfg.Discord.UserToken) != "",
		DefaultWebhook: delivery.RedactURL(cfg.DefaultWebhook),
		Rules:          make([]handlers.RuleView, 0, table.Len()),
		Warnings:       table.Warnings(),
	}
	if report.Warnings == nil {
		report.Warnings = []string{}
	}
	for _, rule := range table.Rules() {
		report.Rules = append(report.Rules, handlers.NewRuleView(rule))
	}
	return report, nil
}

func printValidateReport(cmd *cobra.Command, r *ValidateReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config: %s\n", r.ConfigPath)
	if r.TokenSet {
		fmt.Fprintln(out, "Token:  set")
	} else {
		fmt.Fprintln(out, "Token:  missing")
	}
	if r.DefaultWebhook != "" {
		fmt.Fprintf(out, "Default webhook: %s\n", r.DefaultWebhook)
	}
	fmt.Fprintf(out, "Channels: %d\n", len(r.Rules))

	for _, rule := range r.Rules {
		webhook := rule.Webhook
		if webhook == "" {
			webhook = "(default)"
		}
		fmt.Fprintf(out, "\n  %s\n", rule.ChannelID)
		fmt.Fprintf(out, "    format:   %s\n", rule.Format)
		fmt.Fprintf(out, "    webhook:  %s\n", webhook)
		if len(rule.Authors) > 0 {
			fmt.Fprintf(out, "    authors:  %s\n", strings.Join(rule.Authors, ", "))
		}
		if len(rule.Keywords) > 0 {
			fmt.Fprintf(out, "    keywords: %s\n", strings.Join(rule.Keywords, ", "))
		}
		fmt.Fprintf(out, "    pattern:  %s\n", rule.Pattern)
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(out, "\nWarning: %s\n", w)
	}
}
