package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sleepstars/periop-assistant/internal/chatclient"
	"github.com/sleepstars/periop-assistant/internal/config"
	"github.com/sleepstars/periop-assistant/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	relayURL := flag.String("relay", "", "Relay base URL (overrides web.relay_url)")
	timeout := flag.Duration("timeout", 60*time.Second, "How long to wait for an answer")
	flag.Parse()

	logger.Setup(logger.Options{Level: logger.WARN, Component: "ask", Output: os.Stderr})
	log := logger.GetLogger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.WithError(err).Fatal("Invalid environment")
	}
	if *relayURL != "" {
		cfg.Web.RelayURL = *relayURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := chatclient.NewSession(chatclient.NewClient(cfg.Web.RelayURL, cfg.Prompts.LocalFallback, *timeout))

	fmt.Printf("%s (%s)\n", cfg.Web.Title, cfg.Web.RelayURL)
	for i, q := range cfg.Web.Questions {
		fmt.Printf("  %d. %s\n", i+1, q)
	}
	fmt.Println("输入问题或编号，Ctrl+D 退出。")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := chatclient.ResolveInput(scanner.Text(), cfg.Web.Questions)
		if strings.TrimSpace(message) == "" {
			continue
		}
		if message != scanner.Text() {
			fmt.Printf("我：%s\n", message)
		}

		fmt.Println("AI 正在回答...")
		answer, _ := session.Ask(ctx, message)
		fmt.Printf("AI：%s\n\n", answer.Text)

		if ctx.Err() != nil {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		log.WithError(err).Error("Failed to read input")
	}
}
