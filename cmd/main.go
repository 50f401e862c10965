package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"golang.org/x/term"

	"futures-trading-bot-binance/internal/api"
	"futures-trading-bot-binance/internal/cli"
	"futures-trading-bot-binance/internal/config"
	"futures-trading-bot-binance/internal/core"
	"futures-trading-bot-binance/internal/logger"
	"futures-trading-bot-binance/internal/metrics"
	"futures-trading-bot-binance/internal/model"
	"futures-trading-bot-binance/internal/repository"
	"futures-trading-bot-binance/internal/service"
)

const envFile = ".env"

func main() {
	apiKey := flag.String("api-key", "", "Binance API key (overrides BINANCE_API_KEY)")
	apiSecret := flag.String("api-secret", "", "Binance API secret (overrides BINANCE_API_SECRET)")
	flag.Parse()

	cfg, err := config.Load(envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *apiKey != "" {
		cfg.BinanceApiKey = *apiKey
	}
	if *apiSecret != "" {
		cfg.BinanceSecretKey = *apiSecret
	}

	stdin := bufio.NewReader(os.Stdin)
	if err := promptCredentials(cfg, stdin); err != nil {
		log.Fatalf("Failed to read credentials: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.LogLevel, cfg.LogFile)
	logger.Info("Starting Binance Futures trading bot", "testnet", cfg.Testnet, "symbol", cfg.DefaultSymbol)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	storage := repository.NewStorage()
	balances := repository.NewBalanceRepository()
	journal := repository.NewOrderJournal(storage, cfg.OrderJournalFile)
	if err := journal.Load(); err != nil {
		logger.Error("Failed to load order journal", "error", err)
	}

	// Binance API client
	client := api.NewFuturesClient(api.Options{
		APIKey:    cfg.BinanceApiKey,
		SecretKey: cfg.BinanceSecretKey,
		Testnet:   cfg.Testnet,
		BaseURL:   cfg.BaseURL,
	})
	futures.UseTestnet = cfg.Testnet

	tracker := metrics.NewTracker()
	observers := []core.Observer{logger.NewObserver(logger.Log), tracker, journal}

	var telegram *service.TelegramService
	if cfg.TelegramEnabled() {
		telegram = service.NewTelegramService(service.TelegramAPIURL, cfg.TelegramToken, cfg.TelegramChatID)
		observers = append(observers, telegram)
	}

	bot, err := core.NewBot(ctx, client, core.Observers(observers...))
	if err != nil {
		logger.Error("Failed to connect to Binance Futures", "error", err, "baseUrl", client.BaseURL())
		log.Fatalf("Failed to connect to Binance Futures at %s: %v", client.BaseURL(), err)
	}
	logger.Info("Connected to Binance Futures", "baseUrl", client.BaseURL())

	// seed the balance cache; the user-data stream keeps it current
	if bal, err := bot.GetBalance(ctx, core.DefaultAsset); err != nil {
		logger.Warn("Failed to fetch initial balance", "error", err)
	} else {
		balances.SetBalances([]model.Balance{bal})
	}

	// User data stream
	streamURL := service.StreamBaseURL
	if cfg.Testnet {
		streamURL = service.TestnetStreamBaseURL
	}
	stream := service.NewStreamService(client, streamURL, balances)
	go runStream(ctx, stream)

	updates := make(chan service.OrderUpdate)
	go relayOrderUpdates(ctx, stream.Updates, updates, journal)

	menu := cli.New(bot, stdin, os.Stdout, cli.Options{
		Testnet:         cfg.Testnet,
		DefaultSymbol:   cfg.DefaultSymbol,
		DefaultQuantity: cfg.DefaultQuantity,
		Updates:         updates,
		Market:          service.NewMarketDataService(),
		Journal:         journal,
		Balances:        balances,
	})
	// a blocked stdin read must not delay shutdown on a signal
	menuDone := make(chan error, 1)
	go func() { menuDone <- menu.Run(ctx) }()
	select {
	case err := <-menuDone:
		if err != nil {
			logger.Error("CLI stopped", "error", err)
		}
	case <-ctx.Done():
		fmt.Println("\n👋 Interrupted, shutting down.")
	}

	stop()
	tracker.LogSummary()
	if telegram != nil {
		telegram.Wait()
	}
	logger.Info("Trading bot stopped")
}

// promptCredentials asks for whatever credentials are still missing and
// offers to store them in the env file.
func promptCredentials(cfg *config.Config, in *bufio.Reader) error {
	if cfg.BinanceApiKey != "" && cfg.BinanceSecretKey != "" {
		return nil
	}

	fmt.Println("⚠️  API credentials not found in environment.")
	if cfg.BinanceApiKey == "" {
		fmt.Print("Enter API Key: ")
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return err
		}
		cfg.BinanceApiKey = strings.TrimSpace(line)
	}
	if cfg.BinanceSecretKey == "" {
		secret, err := readSecret(in)
		if err != nil {
			return err
		}
		cfg.BinanceSecretKey = secret
	}

	fmt.Print("Save credentials to .env? (y/N): ")
	answer, _ := in.ReadString('\n')
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		if err := config.UpdateEnvVariable(envFile, "BINANCE_API_KEY", cfg.BinanceApiKey); err != nil {
			return err
		}
		if err := config.UpdateEnvVariable(envFile, "BINANCE_API_SECRET", cfg.BinanceSecretKey); err != nil {
			return err
		}
		fmt.Println("✅ Credentials saved to .env")
	}
	return nil
}

func readSecret(in *bufio.Reader) (string, error) {
	fmt.Print("Enter API Secret: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func runStream(ctx context.Context, stream *service.StreamService) {
	for ctx.Err() == nil {
		if err := stream.Run(ctx); err != nil {
			logger.Error("❌ User data stream failed, reconnecting in 10s...", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

// relayOrderUpdates journals every streamed update and hands it to the CLI
// watcher only if one is receiving right now; out must be unbuffered.
func relayOrderUpdates(ctx context.Context, in <-chan service.OrderUpdate, out chan<- service.OrderUpdate, journal *repository.OrderJournal) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-in:
			if err := journal.Save(u.Result()); err != nil {
				logger.Warn("Failed to journal order update", "orderId", u.OrderID, "error", err)
			}
			select {
			case out <- u:
			default:
			}
		}
	}
}
