package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	apiBase string
	apiKey  string

	rootCmd = &cobra.Command{
		Use:   "smsctl",
		Short: "Operator tool for the CS Mouse API.",
		Long: `smsctl pokes the CS Mouse server from a terminal: inject trap telemetry,
name traps and assign residents, and send raw messages through the gateway.

The server address comes from --api or the API_BASE environment variable.`,
		SilenceUsage: true,
	}
)

// Execute runs the smsctl CLI and exits with non-zero status on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	defaultAPI := os.Getenv("API_BASE")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiBase, "api", defaultAPI, "base URL of the CS Mouse API")
	rootCmd.PersistentFlags().StringVar(&apiKey, "key", os.Getenv("API_KEY"), "API key (device or admin)")

	rootCmd.AddCommand(telemetryCmd, trapCmd, trapsCmd, registerCmd, unregisterCmd, sendCmd)
}

func call(method, path string, payload any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimSuffix(apiBase, "/")+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("contacting API: %w", err)
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("API returned %s: %s", resp.Status, strings.TrimSpace(string(out)))
	}
	fmt.Println(strings.TrimSpace(string(out)))
	return nil
}
