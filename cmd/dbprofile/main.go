package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mxschmitt/db-profile-resolver/internal/config"
	"github.com/mxschmitt/db-profile-resolver/internal/profile"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbprofile",
		Short:         "Inspect the database profile resolved from the environment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newResolveCmd(), newStatusCmd())
	return root
}

type resolved struct {
	Profile *profile.Profile `json:"profile,omitempty" yaml:"profile,omitempty"`
	Report  profile.Report   `json:"report" yaml:"report"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func newResolveCmd() *cobra.Command {
	var (
		envName string
		all     bool
		output  string
		envFile string
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve and print the database profile (passwords are never printed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			if envName == "" {
				envName = cfg.Environment
			}

			environments := []profile.Environment{profile.ParseEnvironment(envName)}
			if all {
				environments = profile.Environments
			}

			results, resolveErr := profile.ResolveAll(profile.EnvFromOS(), environments...)

			out := make(map[profile.Environment]resolved, len(results))
			for environment, res := range results {
				entry := resolved{Report: res.Report}
				if res.Err != nil {
					entry.Error = res.Err.Error()
				} else {
					entry.Profile = &res.Profile
				}
				out[environment] = entry
			}

			if err := write(cmd.OutOrStdout(), output, out); err != nil {
				return err
			}
			return resolveErr
		},
	}

	cmd.Flags().StringVarP(&envName, "env", "e", "", "environment to resolve (defaults to APP_ENV)")
	cmd.Flags().BoolVar(&all, "all", false, "resolve development, test and production")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before resolving")
	return cmd
}

func write(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func newStatusCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the profile a running server resolved",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiURL == "" {
				apiURL = os.Getenv("API_URL")
			}
			if apiURL == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("failed to load config: %w", err)
				}
				// Use 127.0.0.1 instead of localhost to avoid IPv6 resolution issues
				apiURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.ServicePort)
			}

			data, err := makeRequest(apiURL, http.MethodGet, "/status")
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), "json", data)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "base URL of the running server (defaults to API_URL)")
	return cmd
}

func makeRequest(apiURL, method, path string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s%s", apiURL, path)
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to API at %s: %w", apiURL, err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if errMsg, ok := result["error"].(string); ok {
			return nil, fmt.Errorf("HTTP error: %d %s - %s", resp.StatusCode, resp.Status, errMsg)
		}
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return result, nil
}
