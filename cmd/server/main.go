// Command server runs the sitelens audit API.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sitelens/sitelens/internal/app"
	"github.com/sitelens/sitelens/internal/axe"
	"github.com/sitelens/sitelens/internal/browser"
	"github.com/sitelens/sitelens/internal/config"
	"github.com/sitelens/sitelens/internal/lighthouse"
	"github.com/sitelens/sitelens/internal/logging"
	"github.com/sitelens/sitelens/internal/security"
	"github.com/sitelens/sitelens/internal/seo"
	"github.com/sitelens/sitelens/internal/server"
	"github.com/sitelens/sitelens/internal/store"
	"github.com/sitelens/sitelens/internal/suggest"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sitelens",
	Short: "Website audit service",
	Long:  "Audits a target website for security posture, performance, SEO and accessibility, with AI-generated remediation advice.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func serve() error {
	logger := logging.NewZapLogger(zap.L())
	appCfg := cfg.AppConfig()

	orch := app.NewOrchestrator(
		store.NewMemoryStore(),
		security.NewProber(appCfg.Security, nil, logger),
		browser.NewChromeManager(appCfg.Browser, logger),
		lighthouse.NewCLIAnalyzer(appCfg.Lighthouse, logger),
		axe.NewChromeRunner(appCfg.Axe, logger),
		seo.NewPageAuditor(appCfg.SEO, nil, logger),
		suggest.NewAnthropicGenerator(appCfg.Suggest, logger),
		logger,
	)

	srv := server.NewServer(cfg.ServerConfigFor(), orch, logger)
	httpSrv := srv.HTTPServer()

	logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
