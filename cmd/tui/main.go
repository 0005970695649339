package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"impulsebot-go/internal/config"
	"impulsebot-go/internal/strategy"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== ImpulseBot Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit strategy knobs")
		fmt.Println("3) Edit feed and risk settings")
		fmt.Println("4) Save config")
		fmt.Println("5) Launch paper bot")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editStrategy(reader, cfg)
		case "3":
			editFeed(reader, cfg)
		case "4":
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "refusing to save: %v\n", err)
			} else if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchPaper(reader)
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	p := cfg.Strategy.Params
	tf := strategy.ParseTimeframe(cfg.Strategy.Mode)
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Feed: %s (token %q)\n", cfg.Feed.Provider, cfg.Feed.TokenID)
	fmt.Printf("Mode: %s, %d ticks per window\n", tf.Label, p.WindowTicks)
	fmt.Printf("Impulse: body > %.2fx avg of last %d windows\n", p.ImpulseThreshold, p.AveragingWindow)
	fmt.Printf("Rescue below: %.2f%% of entry\n", p.RescueDropThreshold*100)
	fmt.Printf("Targets: stage 1 %.2f%%, stage 2 %.2f%%\n", (p.TakeProfitStage1-1)*100, (p.TakeProfitStage2-1)*100)
	fmt.Printf("Max hold: %s | cooldown: %s | confirmation: %d ticks\n",
		time.Duration(p.MaxHoldMs)*time.Millisecond, time.Duration(p.CooldownMs)*time.Millisecond, p.ConfirmationTicks)
	fmt.Printf("Stake per lot: %.4f (cap %.4f)\n", p.StakeSize, cfg.Risk.MaxStakePerTrade)
	fmt.Printf("Session loss limit: %.4f\n", cfg.Risk.MaxSessionLoss)
	fmt.Printf("Starting cash: $%.2f\n", cfg.Paper.StartingCash)
}

func editStrategy(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Strategy ---")
	p := &cfg.Strategy.Params
	p.ImpulseThreshold = promptFloat(reader, "Impulse threshold (x avg body)", p.ImpulseThreshold)
	p.AveragingWindow = int(promptFloat(reader, "Averaging window (candles)", float64(p.AveragingWindow)))
	p.RescueDropThreshold = promptPercent(reader, "Rescue when price below (% of entry)", p.RescueDropThreshold)
	p.TakeProfitStage1 = promptPercent(reader, "Stage 1 exit (% of avg price)", p.TakeProfitStage1)
	p.TakeProfitStage2 = promptPercent(reader, "Stage 2 exit (% of avg price)", p.TakeProfitStage2)
	p.MaxHoldMs = int(promptFloat(reader, "Max hold (seconds)", float64(p.MaxHoldMs)/1000) * 1000)
	p.CooldownMs = int(promptFloat(reader, "Cooldown (seconds)", float64(p.CooldownMs)/1000) * 1000)
	p.ConfirmationTicks = int(promptFloat(reader, "Reversal confirmation ticks", float64(p.ConfirmationTicks)))
	p.StakeSize = promptFloat(reader, "Stake per lot", p.StakeSize)
}

func editFeed(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Feed / Risk ---")
	cfg.Feed.Provider = promptString(reader, "Provider (stub|catapult)", cfg.Feed.Provider)
	cfg.Feed.TokenID = extractTokenID(promptString(reader, "Token id or URL", cfg.Feed.TokenID))
	mode := promptString(reader, "Mode (scalper|trend)", cfg.Strategy.Mode)
	if tf := strategy.ParseTimeframe(mode); tf.Name != cfg.Strategy.Mode {
		cfg.Strategy.Mode = tf.Name
		cfg.Strategy.Params.WindowTicks = tf.Ticks
	}
	cfg.Risk.MaxStakePerTrade = promptFloat(reader, "Max stake per lot", cfg.Risk.MaxStakePerTrade)
	cfg.Risk.MaxSessionLoss = promptFloat(reader, "Max session loss", cfg.Risk.MaxSessionLoss)
	cfg.Paper.StartingCash = promptFloat(reader, "Starting cash", cfg.Paper.StartingCash)
}

// extractTokenID accepts either a bare id or a token page URL ending in /tokens/<id>.
func extractTokenID(input string) string {
	input = strings.TrimSpace(input)
	if idx := strings.Index(input, "/tokens/"); idx >= 0 {
		rest := input[idx+len("/tokens/"):]
		end := 0
		for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
			end++
		}
		if end > 0 {
			return rest[:end]
		}
	}
	return input
}

func launchPaper(reader *bufio.Reader) {
	fmt.Println("Launching paper bot (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/paper")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start bot: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the bot and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return current
	}
	return line
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	pct := promptFloat(reader, label, current*100)
	return pct / 100
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
