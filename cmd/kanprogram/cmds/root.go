package cmds

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type clientOptions struct {
	server  string
	timeout time.Duration
}

func NewRootCLI() *cobra.Command {
	opts := &clientOptions{}

	rootCmd := &cobra.Command{
		Use:           "kanprogram",
		Short:         "Client du serveur kanprogram (guide des programmes Kan)",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("KAN_SERVER_URL", "http://127.0.0.1:8080"), "URL du serveur (ex: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Timeout HTTP")

	rootCmd.AddCommand(newGetCLI(opts, "health", "État du serveur", "/api/v1/health"))
	rootCmd.AddCommand(newGetCLI(opts, "version", "Version du serveur", "/api/v1/version"))
	rootCmd.AddCommand(newGetCLI(opts, "stations", "Liste des capteurs", "/api/v1/stations"))
	rootCmd.AddCommand(newStateCLI(opts))
	rootCmd.AddCommand(newRefreshCLI(opts))

	return rootCmd
}

func newGetCLI(opts *clientOptions, use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.OutOrStdout(), http.MethodGet, path)
		},
	}
}

func newStateCLI(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state <station-id>",
		Short: "Émission en cours et suivante d'une station",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd.OutOrStdout(), http.MethodGet, "/api/v1/stations/"+args[0])
		},
	}
}

func newRefreshCLI(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [station-id]",
		Short: "Force le refresh d'une station, ou de toutes sans argument",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/services/refresh"
			if len(args) == 1 {
				path = "/api/v1/stations/" + args[0] + "/refresh"
			}
			return opts.call(cmd.OutOrStdout(), http.MethodPost, path)
		},
	}
}

// call affiche la réponse (JSON indenté si possible) et échoue sur un statut >= 400.
func (o *clientOptions) call(out io.Writer, method, path string) error {
	client := &http.Client{Timeout: o.timeout}
	req, err := http.NewRequest(method, strings.TrimRight(o.server, "/")+path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var pretty any
	if err := json.Unmarshal(b, &pretty); err == nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(pretty)
	} else {
		fmt.Fprintln(out, string(b))
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
