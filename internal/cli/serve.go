package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/splitcheck/splitcheck/internal/server"
	"github.com/splitcheck/splitcheck/internal/store"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the splitcheck HTTP API.

The server provides:
  - POST /api/analyze for running an analysis over posted observations
  - GET /api/runs and /api/runs/{id} for saved run history
  - a health check endpoint

Example:
  splitcheck serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	defaultPort := 0
	if p := os.Getenv("SPLITCHECK_PORT"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			defaultPort = parsed
		}
	}

	serveCmd.Flags().IntVarP(&port, "port", "p", defaultPort, "port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	if port == 0 {
		port = cfg.Port
	}

	srv := server.New(s, server.Options{
		Port:      port,
		Alpha:     alphaFlag,
		Validator: cfg.ValidatorOptions(),
	}, logger)

	fmt.Printf("splitcheck API on http://localhost:%d\n", port)
	return srv.Start()
}
