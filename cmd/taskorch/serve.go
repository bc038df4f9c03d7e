package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/khryptorgraphics/taskorch/internal/config"
	"github.com/khryptorgraphics/taskorch/internal/scheduler"
	"github.com/khryptorgraphics/taskorch/pkg/audit"
	"github.com/khryptorgraphics/taskorch/pkg/cache"
	"github.com/khryptorgraphics/taskorch/pkg/intake"
	"github.com/khryptorgraphics/taskorch/pkg/logging"
	"github.com/khryptorgraphics/taskorch/pkg/notify"
)

func serveCmd() *cobra.Command {
	var configPath, listen, jwtSecret, auditDSN, redisAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upstream intake and downstream dispatch HTTP surfaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.Default()

			nodes, err := config.Load(configPath)
			if err != nil {
				return err
			}
			s := scheduler.New(nodes, logger)
			dispatcher := notify.NewDispatcher(logger)
			faultClient := notify.NewFaultClient(logger)

			var auditStore *audit.Store
			if auditDSN != "" {
				auditStore, err = audit.Open(auditDSN)
				if err != nil {
					return err
				}
				defer auditStore.Close()
				if err := auditStore.Migrate(context.Background()); err != nil {
					return err
				}
			}

			var mirror *cache.HyperperiodMirror
			if redisAddr != "" {
				redisClient := cache.NewRedisClient(redisAddr)
				mirror = cache.NewHyperperiodMirror(s.HyperperiodManager(), redisClient, 10*time.Minute, logger)
			}

			intakeSrv := intake.New(intake.Options{
				Scheduler:   s,
				Dispatcher:  dispatcher,
				FaultClient: faultClient,
				Audit:       auditStore,
				Mirror:      mirror,
				JWTSecret:   jwtSecret,
				Logger:      logger,
			})

			router := gin.New()
			router.Use(gin.Recovery(), cors.Default())
			intakeSrv.Register(router)
			router.GET("/v1/agents/:node_id/ws", dispatcherUpgradeHandler(dispatcher, logger))
			router.GET("/v1/faults", faultUpgradeHandler(faultClient, logger))

			logger.Info("taskorch serve starting", "listen", listen)
			return router.Run(listen)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "node config YAML file (required)")
	cmd.Flags().StringVar(&listen, "listen", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&jwtSecret, "jwt-secret", "", "HMAC secret validating upstream bearer tokens")
	cmd.Flags().StringVar(&auditDSN, "audit-dsn", "", "Postgres DSN for the post-mortem audit store (disabled if empty)")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis host:port for the hyperperiod cache mirror (disabled if empty)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func dispatcherUpgradeHandler(d *notify.Dispatcher, logger interface {
	Warn(msg string, args ...any)
}) gin.HandlerFunc {
	return func(c *gin.Context) {
		nodeID := c.Param("node_id")
		conn, err := intake.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("agent websocket upgrade failed", "node", nodeID, "error", err)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		d.Register(nodeID, conn)
	}
}

func faultUpgradeHandler(f *notify.FaultClient, logger interface {
	Warn(msg string, args ...any)
}) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := intake.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("fault websocket upgrade failed", "error", err)
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		f.Subscribe(conn)
	}
}
