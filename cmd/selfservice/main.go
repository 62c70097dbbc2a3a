package main

import (
	"flag"
	"strconv"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"selfservice/internal/audit"
	"selfservice/internal/clients/adminusers"
	"selfservice/internal/clients/connector"
	"selfservice/internal/clients/products"
	"selfservice/internal/clients/stripeclient"
	"selfservice/internal/conf"
	"selfservice/internal/controllers"
	"selfservice/internal/event"
	"selfservice/internal/history"
	"selfservice/internal/render"
	"selfservice/internal/session"
	"selfservice/pkg/api"
	"selfservice/pkg/server"
)

func main() {
	cmd := newSelfserviceCommand()
	flag.Parse()
	defer glog.Flush()

	if err := cmd.Execute(); err != nil {
		glog.Fatalln(err)
	}
}

func newSelfserviceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selfservice",
		Short: "Payments platform selfservice portal",
		Long:  `The selfservice portal lets services manage their payment gateway accounts: Stripe onboarding, Worldpay 3DS Flex credentials, team registration and sign-in settings.`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = run()
		},
	}

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	return cmd
}

func run() error {
	cfg, err := conf.Load()
	if err != nil {
		return err
	}

	renderer, err := render.New()
	if err != nil {
		return err
	}

	kv, err := session.NewRedisKV(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	sessions := session.NewStore(kv, cfg.SessionTTL)

	connectorClient := connector.NewClient(cfg.ConnectorURL, cfg.ClientTimeout)
	stripeClient := stripeclient.NewClient(cfg.StripeURL, cfg.StripeAPIKey, cfg.ClientTimeout)
	adminusersClient := adminusers.NewClient(cfg.AdminusersURL, cfg.ClientTimeout)
	productsClient := products.NewClient(cfg.ProductsURL, cfg.ClientTimeout)

	// History is best effort; the portal runs without Postgres.
	var historyModule *history.Module
	historyModule, err = history.NewModule(history.Config{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		DBName:   cfg.PostgresDB,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
	})
	if err != nil {
		glog.Warningf("history module unavailable: %v", err)
		historyModule = nil
	} else {
		defer historyModule.Close()
	}

	sender := audit.NewDisabledSender()
	if cfg.NatsUsername != "" {
		sender, err = audit.NewDataSender(audit.Config{
			Host:     cfg.NatsHost,
			Port:     cfg.NatsPort,
			Username: cfg.NatsUsername,
			Password: cfg.NatsPassword,
			Subject:  cfg.NatsSubject,
		})
		if err != nil {
			glog.Warningf("audit sender unavailable: %v", err)
			sender = audit.NewDisabledSender()
		} else {
			defer sender.Close()
		}
	}

	notifier := event.NewClient(cfg.EventServer, cfg.EventAppKey, cfg.EventAppSecret)

	var recorder controllers.HistoryRecorder
	if historyModule != nil {
		recorder = historyModule
	}
	var notify controllers.Notifier
	if notifier.Enabled() {
		notify = notifier
	}

	handler := controllers.NewHandler(renderer, sessions,
		connectorClient, stripeClient, adminusersClient, productsClient,
		recorder, sender, notify)

	go startOpsAPI(cfg, connectorClient)

	s := server.NewServer(cfg.Port, cfg.CookieName, handler)
	glog.Infof("Start listening on :%s", cfg.Port)
	return s.Start()
}

// startOpsAPI serves the machine facing API one port above the web
// portal.
func startOpsAPI(cfg *conf.Config, connectorClient *connector.Client) {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		glog.Errorf("invalid port %q: %v", cfg.Port, err)
		return
	}
	addr := ":" + strconv.Itoa(port+1)

	apiServer, err := api.New(addr)
	if err != nil {
		glog.Errorf("failed to create ops API server: %v", err)
		return
	}
	if err := apiServer.PrepareRun(connectorClient); err != nil {
		glog.Errorf("failed to prepare ops API server: %v", err)
		return
	}
	glog.Infof("ops API listening on %s", addr)
	if err := apiServer.Run(); err != nil {
		glog.Errorf("ops API server stopped: %v", err)
	}
}
