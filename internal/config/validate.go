package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/sheetsplit/internal/split"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	out := viper.GetString("split.output")
	if out == "" {
		issues = append(issues, ConfigIssue{
			Key:      "split.output",
			Severity: "error",
			Message:  "output file name is empty",
			Fix:      "sheetsplit config set split.output split-result.xlsx",
		})
	} else if !strings.HasSuffix(strings.ToLower(out), ".xlsx") {
		issues = append(issues, ConfigIssue{
			Key:      "split.output",
			Severity: "warning",
			Message:  fmt.Sprintf("output %q does not end in .xlsx — the extension will be added", out),
		})
	}

	for _, key := range []string{"split.bucket", "split.unnamed"} {
		v := viper.GetString(key)
		if v == "" {
			continue
		}
		if clean := split.SanitizeSheetName(v, ""); clean != v {
			issues = append(issues, ConfigIssue{
				Key:      key,
				Severity: "warning",
				Message:  fmt.Sprintf("%q is not a valid sheet name and will appear as %q", v, clean),
			})
		}
	}

	if viper.GetInt64("serve.max_upload_mb") <= 0 {
		issues = append(issues, ConfigIssue{
			Key:      "serve.max_upload_mb",
			Severity: "error",
			Message:  "upload limit must be a positive number of megabytes",
			Fix:      "sheetsplit config set serve.max_upload_mb 32",
		})
	}

	switch strings.ToLower(viper.GetString("log.format")) {
	case "text", "json":
	default:
		issues = append(issues, ConfigIssue{
			Key:      "log.format",
			Severity: "warning",
			Message:  fmt.Sprintf("unknown log format %q, falling back to text", viper.GetString("log.format")),
		})
	}

	return issues
}
