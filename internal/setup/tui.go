package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dsox1/amplalgo-app-sub000/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// RunTUI launches the terminal configuration wizard.
func RunTUI() error {
	var (
		platform        string
		basketStr       string
		primary         string
		triggerStr      string
		thresholdStr    string
		cooldownStr     string
		pollIntervalStr string
		protection      bool
		confirm         bool
	)

	// defaults
	basketStr = "AMPL,SOL,SUI,BTC"
	primary = "AMPL"
	triggerStr = config.DefaultTriggerPrice.String()
	thresholdStr = config.DefaultProfitThreshold.String()
	cooldownStr = "5m"
	pollIntervalStr = "30s"
	protection = true

	// step 1: welcome + platform
	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's get your basket automated.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PLATFORM"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Simulation", "simulate"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: basket
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 2: BASKET"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Basket Symbols").
				Description("Comma-separated (e.g. AMPL,SOL,SUI,BTC)").
				Value(&basketStr).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("basket cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Primary Symbol").
				Description("The rebasing token watched for the trigger (must be in the basket)").
				Value(&primary).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("primary symbol cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: thresholds
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 3: THRESHOLDS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trigger Price").
				Description("Rebalance buys fire when the primary crosses below this (e.g. 1.16)").
				Value(&triggerStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Profit Threshold %").
				Description("Sell a position once it gains this much (e.g. 1.5)").
				Value(&thresholdStr).
				Validate(validatePositiveDecimal),
			huh.NewConfirm().
				Title("Enable Rebase Protection?").
				Description("Liquidates the primary on a deep break below peg").
				Value(&protection),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 4: timing
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("STEP 4: TIMING"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Poll Price Interval").
				Description("Duration string (e.g. 30s, 1m, 5m)").
				Value(&pollIntervalStr).
				Validate(validateDuration),
			huh.NewInput().
				Title("Rebalance Cooldown").
				Description("Minimum gap between rebalance attempts (e.g. 5m)").
				Value(&cooldownStr).
				Validate(validateDuration),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("REBALANCER CONFIG WIZARD"))
	fmt.Println(stepStyle.Render("FINAL CONFIRMATION"))

	summary := fmt.Sprintf(
		"Platform: %s\nBasket: %s\nPrimary: %s\nTrigger: %s\nThreshold: %s%%\nProtection: %t\nInterval: %s\nCooldown: %s\n",
		platform, basketStr, primary, triggerStr, thresholdStr, protection, pollIntervalStr, cooldownStr,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save and start").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}

	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	pollInterval, _ := time.ParseDuration(pollIntervalStr)
	cooldown, _ := time.ParseDuration(cooldownStr)

	basket := make([]string, 0)
	for _, s := range strings.Split(basketStr, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			basket = append(basket, s)
		}
	}

	fileConf := config.FileConfig{
		Platform:               platform,
		Basket:                 basket,
		PrimarySymbol:          strings.ToUpper(strings.TrimSpace(primary)),
		TriggerPrice:           triggerStr,
		RebalanceCooldown:      cooldown,
		ProfitThresholdPercent: thresholdStr,
		ProtectionActive:       protection,
		PollPriceInterval:      pollInterval,
	}

	data, err := yaml.Marshal(fileConf)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.gen.yaml"
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s\nStarting engine...", filename)))
	time.Sleep(1500 * time.Millisecond) // small pause to read success message
	return nil
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be greater than zero")
	}
	return nil
}

func validateDuration(s string) error {
	_, err := time.ParseDuration(s)
	return err
}
