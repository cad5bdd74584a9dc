package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/agent"
	"github.com/ewbaxter/ClinicalTrialAgent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP server for the UI",
	Long: `Serve starts an HTTP server exposing the search agent to a local UI:
POST /api/search runs a session for the posted patient criteria and
GET /healthz reports liveness.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	runner, err := agent.NewRunner(cfg)
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	router := server.New(runner).Router()

	fmt.Fprintln(os.Stderr, "Listening on", addr)
	return http.ListenAndServe(addr, router)
}
