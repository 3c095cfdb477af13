package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultConfigFile is the config file written by the wizard and read by
// the run command unless --config overrides it.
const DefaultConfigFile = "kasabot.yml"

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to kasabot.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to kasabot! Let's configure your assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Model selection.
	modelPrompt := promptui.Select{
		Label: "Select completion model",
		Items: []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"},
	}
	_, model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}
	cfg.Model = model

	// 2. Knowledge sources.
	docsPrompt := promptui.Prompt{
		Label:   "Google Doc IDs for the knowledge base (comma-separated, blank for none)",
		Default: "",
	}
	docsStr, err := docsPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("doc ids: %w", err)
	}
	cfg.Knowledge.DocIDs = splitAndTrim(docsStr)

	sitePrompt := promptui.Prompt{
		Label:   "Website URL to scrape for the knowledge base (blank for none)",
		Default: "",
	}
	site, err := sitePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("website url: %w", err)
	}
	cfg.Knowledge.WebsiteURL = strings.TrimSpace(site)

	// 3. Refresh interval.
	refreshPrompt := promptui.Prompt{
		Label:   "Knowledge refresh interval in minutes",
		Default: strconv.Itoa(cfg.Knowledge.RefreshIntervalMinutes),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	refreshStr, err := refreshPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("refresh interval: %w", err)
	}
	cfg.Knowledge.RefreshIntervalMinutes, _ = strconv.Atoi(refreshStr)

	// 4. Health server port.
	portPrompt := promptui.Prompt{
		Label:   "Health server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("must be a valid port")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(DefaultConfigFile); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Configuration written to %s.\n", DefaultConfigFile)
	fmt.Println("Set TELEGRAM_TOKEN and OPENAI_API_KEY in the environment, then run `kasabot run`.")

	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace,
// dropping empty entries.
func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
