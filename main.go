package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	appName       = "tkpd2mqtt"
	appVersion    = "0.2.0"
	appSupportURL = "https://github.com/tkpd2mqtt/tkpd2mqtt"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cfg := defaultConfig()
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName + " <product-url>",
		Short: "Track a Tokopedia listing's price and stock in Home Assistant",
		Long: `Reads the current name, price and stock of a single Tokopedia product
listing and publishes them to Home Assistant over MQTT using its
discovery convention. Intended to be invoked from cron; each run is a
complete fetch-and-sync cycle.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(logLevel)
			return run(cfg, args[0])
		},
	}

	cmd.Flags().StringVarP(&cfg.Username, "username", "u", "", "MQTT broker username if required")
	cmd.Flags().StringVarP(&cfg.Password, "password", "p", "", "MQTT broker password if required")
	cmd.Flags().StringVarP(&cfg.BrokerHost, "server", "s", cfg.BrokerHost, "MQTT broker host or IP")
	cmd.Flags().IntVarP(&cfg.BrokerPort, "port", "x", cfg.BrokerPort, "MQTT broker port")
	cmd.Flags().StringVarP(&cfg.DiscoveryPrefix, "topic", "t", cfg.DiscoveryPrefix, "Home Assistant MQTT discovery prefix")
	cmd.Flags().BoolVar(&cfg.Delete, "delete", false, "Remove the listing's entities from Home Assistant instead of syncing")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, appVersion)
		},
	})

	return cmd
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// run executes one full sync (or removal) cycle. Steps are strictly
// sequential and every failure is terminal for the run: nothing is
// published after an earlier step failed, and a fetch failure means no
// broker connection is attempted at all.
func run(cfg Config, rawURL string) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.Username != "" && cfg.Password == "" {
		slog.Warn("MQTT broker username provided without password, continuing")
	}

	shopDomain, productKey, err := parseItemURL(rawURL)
	if err != nil {
		return err
	}
	identity := deriveIdentity(shopDomain, productKey)
	slog.Info("Derived listing identity", "shop", shopDomain, "product", productKey, "identity", identity)

	var snapshot ProductSnapshot
	if !cfg.Delete {
		client := newTokopediaClient(cfg.HTTPTimeout)
		snapshot, err = client.FetchSnapshot(context.Background(), shopDomain, productKey)
		if err != nil {
			return fmt.Errorf("fetch listing: %w", err)
		}
		slog.Info("Fetched listing", "name", snapshot.Name, "price", snapshot.Price, "stock", snapshot.Stock)
	}

	pub, err := connectBroker(cfg, identity)
	if err != nil {
		return err
	}
	defer pub.Disconnect()

	return syncEntities(pub, cfg, identity, shopDomain, productKey, snapshot)
}

// syncEntities drives the publish sequence against an established
// broker connection. Discovery configs declare the entities and must
// all be acknowledged before the first state message; the delete path
// clears the configs and publishes no state.
func syncEntities(pub publisher, cfg Config, identity, shopDomain, productKey string, snapshot ProductSnapshot) error {
	if cfg.Delete {
		if err := publishDiscoveryRemoval(pub, cfg.DiscoveryPrefix, identity); err != nil {
			return err
		}
		slog.Info("Removed listing entities", "identity", identity)
		return nil
	}

	if err := publishDiscoveryConfigs(pub, cfg.DiscoveryPrefix, identity, shopDomain, productKey); err != nil {
		return err
	}
	if err := publishStates(pub, identity, snapshot); err != nil {
		return err
	}
	slog.Info("Sync complete", "identity", identity)
	return nil
}
