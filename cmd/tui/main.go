package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"agent3525/internal/config"
	"agent3525/internal/mint"
	"agent3525/internal/recorder"
	"agent3525/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()
	reader := bufio.NewReader(os.Stdin)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== ERC-3525 Agent Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit slot strategies")
		fmt.Println("3) Edit mint mode and schedule")
		fmt.Println("4) Edit trading agent")
		fmt.Println("5) Save config")
		fmt.Println("6) Launch slot agent")
		fmt.Println("7) Launch trading agent")
		fmt.Println("8) Reload config from disk")
		fmt.Println("9) Show recent activity")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		switch strings.TrimSpace(input) {
		case "1":
			printSummary(cfg)
		case "2":
			editStrategies(reader, cfg)
		case "3":
			editMint(reader, cfg)
		case "4":
			editTrader(reader, cfg)
		case "5":
			if err := config.Save(*configPath, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			launch(reader, "./cmd/mint", "-config", *configPath)
		case "7":
			launch(reader, "./cmd/trader", "-config", *configPath)
		case "8":
			reloaded, err := config.Load(*configPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "9":
			printActivity(cfg)
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	mode := "live"
	if cfg.Mint.Paper {
		mode = "paper"
	}
	fmt.Printf("Mint mode: %s | active strategy: %s | schedule: %s\n", mode, cfg.Mint.Strategy, cfg.Mint.Schedule)
	fmt.Printf("Contract: %s via %s\n", orUnset(cfg.Chain.ContractAddress), orUnset(cfg.Chain.RPCURL))
	for _, name := range cfg.StrategyNames() {
		s := cfg.Strategies[name]
		fmt.Printf("  %-10s slot %d threshold %s\n", name, s.Slot, s.Threshold)
	}
	fmt.Printf("Trader: %s paper=%v preset=%s assets=%s size=%g every %s\n",
		cfg.Trader.Name, cfg.Trader.Paper, cfg.Trader.Preset, strings.Join(cfg.Trader.Assets, ","), cfg.Trader.Size, cfg.Trader.Interval)
	fmt.Printf("Per-trade notional cap: $%.2f | paper starting cash: $%.2f\n", cfg.Risk.MaxNotionalPerTrade, cfg.Paper.StartingCash)
	fmt.Printf("Recorder: %s %s\n", cfg.Recorder.Kind, cfg.Recorder.Path)
}

func printActivity(cfg *config.Config) {
	fmt.Println("\n--- Recent Activity ---")
	if cfg.Recorder.Kind != recorder.KindSQLite {
		fmt.Printf("activity history needs recorder kind %q (current: %q)\n", recorder.KindSQLite, cfg.Recorder.Kind)
		return
	}
	rec, err := recorder.NewSQLiteRecorder(cfg.Recorder.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open records: %v\n", err)
		return
	}
	defer rec.Close()

	mints, err := rec.RecentMints(10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read mints: %v\n", err)
		return
	}
	if len(mints) == 0 {
		fmt.Println("no mints recorded")
	}
	for _, m := range mints {
		fmt.Printf("  %s %-6s slot %d balance %s amount %s %s\n",
			m.Time.Format(time.RFC3339), m.Mode, m.Slot, m.Balance, m.Amount, m.TxHash)
	}
	for _, asset := range cfg.Trader.Assets {
		n, err := rec.FillCount(asset)
		if err != nil {
			fmt.Fprintf(os.Stderr, "count fills: %v\n", err)
			return
		}
		fmt.Printf("  %s fills: %d\n", asset, n)
	}
}

func editStrategies(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Slot Strategies ---")
	fmt.Printf("Existing: %s\n", strings.Join(cfg.StrategyNames(), ", "))
	name := strings.ToLower(prompt(reader, "Strategy name (new name adds one)", ""))
	if name == "" {
		return
	}
	s := cfg.Strategies[name]
	s.Slot = promptUint(reader, "Slot", s.Slot)
	s.Threshold = promptDecimal(reader, "Threshold", s.Threshold)
	cfg.Strategies[name] = s
}

func editMint(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Mint Loop ---")
	cfg.Mint.Paper = promptBool(reader, "Paper mode", cfg.Mint.Paper)
	if name := prompt(reader, "Active strategy", cfg.Mint.Strategy); name != "" {
		if _, _, ok := cfg.Strategy(name); !ok {
			fmt.Printf("unknown strategy %q, the agent will fall back to %s\n", name, config.DefaultStrategy)
		}
		cfg.Mint.Strategy = name
	}
	spec := prompt(reader, "Schedule (cron or @every)", cfg.Mint.Schedule)
	if _, err := mint.ParseSchedule(spec); err != nil {
		fmt.Printf("invalid schedule, keeping %s: %v\n", cfg.Mint.Schedule, err)
	} else {
		cfg.Mint.Schedule = spec
	}
}

func editTrader(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Trading Agent ---")
	cfg.Trader.Paper = promptBool(reader, "Paper mode", cfg.Trader.Paper)
	fmt.Printf("Presets: %s\n", strings.Join(strategy.PresetNames(), ", "))
	cfg.Trader.Preset = prompt(reader, "Preset", cfg.Trader.Preset)
	if line := prompt(reader, "Assets comma-separated", strings.Join(cfg.Trader.Assets, ",")); line != "" {
		cfg.Trader.Assets = nil
		for _, p := range strings.Split(line, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.Trader.Assets = append(cfg.Trader.Assets, trimmed)
			}
		}
	}
	cfg.Trader.Size = promptFloat(reader, "Trade size", cfg.Trader.Size)
	cfg.Risk.MaxNotionalPerTrade = promptFloat(reader, "Max notional per trade (USD, 0 = off)", cfg.Risk.MaxNotionalPerTrade)
}

func launch(reader *bufio.Reader, pkg string, args ...string) {
	fmt.Printf("Launching %s (press ENTER to stop)...\n", pkg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", append([]string{"run", pkg}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		return
	}
	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func prompt(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return current
	}
	return line
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	line := prompt(reader, label, strconv.FormatFloat(current, 'f', -1, 64))
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %g\n", current)
		return current
	}
	return val
}

func promptUint(reader *bufio.Reader, label string, current uint64) uint64 {
	line := prompt(reader, label, strconv.FormatUint(current, 10))
	val, err := strconv.ParseUint(line, 10, 64)
	if err != nil {
		fmt.Printf("invalid slot, keeping %d\n", current)
		return current
	}
	return val
}

func promptDecimal(reader *bufio.Reader, label string, current decimal.Decimal) decimal.Decimal {
	line := prompt(reader, label, current.String())
	val, err := decimal.NewFromString(line)
	if err != nil || val.IsNegative() || !val.IsInteger() {
		fmt.Printf("amount must be a whole number, keeping %s\n", current)
		return current
	}
	return val
}

func promptBool(reader *bufio.Reader, label string, current bool) bool {
	line := prompt(reader, label, strconv.FormatBool(current))
	val, err := strconv.ParseBool(line)
	if err != nil {
		fmt.Printf("invalid value, keeping %v\n", current)
		return current
	}
	return val
}

func orUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
