package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/fota/internal/config"
	"github.com/adamancini/fota/internal/interactive"
	"github.com/adamancini/fota/internal/templates"
)

func newInitCmd() *cobra.Command {
	var templateName string
	var outputPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter config file",
		Long: `Create a fota config file from a built-in or custom template.

Available templates:
  minimal    - Device identity and manifest server only
  full       - Every tunable with its default, annotated

Examples:
  fota init                              # Interactive mode
  fota init --template=minimal           # Direct template selection
  fota init --template=https://...       # Custom template URL
  fota init --config /etc/fota/fota.toml # Custom output location`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), templateName, outputPath, force)
		},
	}

	cmd.Flags().StringVarP(&templateName, "template", "t", "", "Template name or URL")
	cmd.Flags().StringVar(&outputPath, "config", "", "Output path for the config file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	// Register completion for template flag
	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		templateList := templates.List()
		var completions []string
		for _, name := range templateList {
			desc := templates.GetDescription(name)
			completions = append(completions, fmt.Sprintf("%s\t%s", name, desc))
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// runInit executes the init workflow.
func runInit(stdin io.Reader, stdout, stderr io.Writer, templateName, outputPath string, force bool) error {
	prompter := interactive.NewPrompterWithIO(stdin, stdout)

	// Determine output path
	if outputPath == "" {
		outputPath = defaultInitPath()
	}

	// Expand ~ in path
	outputPath = expandHomePath(outputPath)

	// Check if file exists
	if _, err := os.Stat(outputPath); err == nil && !force {
		_, _ = fmt.Fprintf(stderr, "Config file already exists at %s\n", outputPath)
		if !prompter.Confirm("Overwrite?") {
			_, _ = fmt.Fprintln(stdout, "Aborted.")
			return nil
		}
	}

	// Get template content
	var content []byte
	var selectedTemplate string

	if templateName == "" {
		// Interactive mode
		selected, err := selectTemplateInteractive(prompter)
		if err != nil {
			return err
		}
		templateName = selected
	}

	// Check if it's a URL
	if strings.HasPrefix(templateName, "http://") || strings.HasPrefix(templateName, "https://") {
		var err error
		content, err = fetchRemoteTemplate(templateName)
		if err != nil {
			return fmt.Errorf("failed to fetch template: %w", err)
		}
		selectedTemplate = "custom"
	} else {
		// Built-in template
		tmpl, err := templates.Get(templateName)
		if err != nil {
			return fmt.Errorf("failed to load template: %w", err)
		}
		content = tmpl.Content
		selectedTemplate = templateName
	}

	// Validate the template content before writing
	if err := validateTemplateContent(content); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	// Show preview in interactive mode
	if selectedTemplate != "custom" && !quiet {
		_, _ = fmt.Fprintf(stdout, "\nPreview of '%s' template:\n", selectedTemplate)
		_, _ = fmt.Fprintln(stdout, strings.Repeat("-", 40))
		// Show first 20 lines or full content if shorter
		lines := strings.Split(string(content), "\n")
		maxLines := 20
		if len(lines) <= maxLines {
			_, _ = fmt.Fprintln(stdout, string(content))
		} else {
			for i := 0; i < maxLines; i++ {
				_, _ = fmt.Fprintln(stdout, lines[i])
			}
			_, _ = fmt.Fprintf(stdout, "... (%d more lines)\n", len(lines)-maxLines)
		}
		_, _ = fmt.Fprintln(stdout, strings.Repeat("-", 40))
	}

	// Ask for output location in interactive mode if not specified via flag
	if configPath == "" && outputPath == defaultInitPath() && !quiet {
		answer, err := prompter.Ask("\nWhere should I create the config file?", outputPath)
		if err != nil {
			return err
		}
		outputPath = expandHomePath(answer)
	}

	// Ensure parent directory exists
	parentDir := filepath.Dir(outputPath)
	if err := os.MkdirAll(parentDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", parentDir, err)
	}

	// Write the file
	if err := os.WriteFile(outputPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	_, _ = fmt.Fprintf(stdout, "\nCreated %s\n", outputPath)
	_, _ = fmt.Fprintln(stdout, "\nNext steps:")
	_, _ = fmt.Fprintln(stdout, "  1. Edit the config to set your device type and manifest host")
	_, _ = fmt.Fprintln(stdout, "  2. Run 'fota check' to poll the server")
	_, _ = fmt.Fprintln(stdout, "  3. Run 'fota update' to install new firmware")

	return nil
}

// selectTemplateInteractive shows a numbered menu of built-in templates plus
// a custom-URL escape hatch.
func selectTemplateInteractive(prompter *interactive.Prompter) (string, error) {
	templateList := templates.List()

	options := make([]string, 0, len(templateList)+1)
	for _, name := range templateList {
		options = append(options, fmt.Sprintf("%-12s - %s", name, templates.GetDescription(name)))
	}
	options = append(options, fmt.Sprintf("%-12s - Provide custom template URL", "custom"))

	idx, err := prompter.Select("Select a config template:", options)
	if err != nil {
		return "", err
	}

	if idx == len(templateList) {
		return prompter.ReadLine("Enter template URL: ")
	}

	return templateList[idx], nil
}

// fetchRemoteTemplate downloads a template from a URL.
func fetchRemoteTemplate(url string) ([]byte, error) {
	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return content, nil
}

// validateTemplateContent checks that the content is a loadable config.
func validateTemplateContent(content []byte) error {
	// Use the config parser to validate. The temp file has no extension so
	// remote templates in any supported format go through content sniffing.
	tmpFile, err := os.CreateTemp("", "fota-config-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmpFile.Write(content); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	_, err = config.Load(tmpName)
	return err
}

// defaultInitPath returns the default location for a new config file.
func defaultInitPath() string {
	path, err := config.DefaultConfigPath()
	if err != nil {
		return "fota.toml"
	}
	return path
}

// expandHomePath expands ~ to the user's home directory.
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
