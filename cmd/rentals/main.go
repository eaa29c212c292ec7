// rentals is a command-line viewer for rental marketplace state: it resolves
// listed or claimed rentals for an issuer or creator set and prints their
// derived economics.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/solana-nft-programs/rental-resolver/common"
	"github.com/solana-nft-programs/rental-resolver/core/types"
	"github.com/solana-nft-programs/rental-resolver/economics"
	"github.com/solana-nft-programs/rental-resolver/index"
	"github.com/solana-nft-programs/rental-resolver/market"
	"github.com/solana-nft-programs/rental-resolver/params"
	"github.com/solana-nft-programs/rental-resolver/rentclient"
	"github.com/solana-nft-programs/rental-resolver/resolver"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	rpcFlag = &cli.StringFlag{
		Name:  "rpc",
		Usage: "JSON-RPC endpoint",
	}
	indexFlag = &cli.StringFlag{
		Name:  "index",
		Usage: "GraphQL secondary index endpoint",
	}
	issuerFlag = &cli.StringSliceFlag{
		Name:  "issuer",
		Usage: "filter by issuer address (repeatable)",
	}
	creatorFlag = &cli.StringSliceFlag{
		Name:  "creator",
		Usage: "filter by verified creator address (repeatable)",
	}
	stateFlag = &cli.StringFlag{
		Name:  "state",
		Usage: "custody state (issued, claimed)",
		Value: "issued",
	}
	sortFlag = &cli.StringFlag{
		Name:  "sort",
		Usage: "sort field (recent, price, rate, duration)",
		Value: "recent",
	}
	descFlag = &cli.BoolFlag{
		Name:  "desc",
		Usage: "sort descending",
	}
	indexDisabledFlag = &cli.BoolFlag{
		Name:  "index-disabled",
		Usage: "force the direct program-scan path",
	}
	showUnknownFlag = &cli.BoolFlag{
		Name:  "show-unknown-invalidators",
		Usage: "include assets with uninterpretable invalidators",
	}
)

func main() {
	app := &cli.App{
		Name:  "rentals",
		Usage: "inspect tokenized asset rentals",
		Flags: []cli.Flag{configFlag, rpcFlag, indexFlag},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "list rentals matching a filter",
				Flags:  []cli.Flag{issuerFlag, creatorFlag, stateFlag, sortFlag, descFlag, indexDisabledFlag, showUnknownFlag},
				Action: runList,
			},
			{
				Name:      "show",
				Usage:     "show one resolved rental by mint or custody address",
				ArgsUsage: "<mint>",
				Flags:     []cli.Flag{issuerFlag, creatorFlag, stateFlag, indexDisabledFlag, showUnknownFlag},
				Action:    runShow,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func buildResolver(ctx *cli.Context) (*resolver.Resolver, fileConfig, error) {
	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return nil, cfg, err
	}
	if v := ctx.String(rpcFlag.Name); v != "" {
		cfg.RPC = v
	}
	if v := ctx.String(indexFlag.Name); v != "" {
		cfg.Index = v
	}
	if cfg.RPC == "" {
		return nil, cfg, fmt.Errorf("no RPC endpoint configured (--rpc)")
	}
	if ctx.Bool(indexDisabledFlag.Name) {
		cfg.Marketplace.IndexDisabled = true
	}
	if ctx.Bool(showUnknownFlag.Name) {
		cfg.Marketplace.ShowUnknownInvalidators = true
	}
	if issuers := ctx.StringSlice(issuerFlag.Name); len(issuers) > 0 {
		value, err := parseAddresses(issuers)
		if err != nil {
			return nil, cfg, err
		}
		cfg.Marketplace.Filter = params.Filter{Type: params.FilterIssuer, Value: value}
	} else if creators := ctx.StringSlice(creatorFlag.Name); len(creators) > 0 {
		value, err := parseAddresses(creators)
		if err != nil {
			return nil, cfg, err
		}
		cfg.Marketplace.Filter = params.Filter{Type: params.FilterCreators, Value: value}
	}

	client := rentclient.Dial(cfg.RPC)
	var supplier resolver.CandidateSupplier
	if cfg.Index != "" {
		supplier = index.NewClient(cfg.Index, cfg.Marketplace.DisallowedMints, nil)
	}
	r := resolver.New(client, client, supplier, resolver.Config{
		Marketplace: cfg.Marketplace,
		Metadata:    cfg.Metadata,
	})
	return r, cfg, nil
}

func parseAddresses(in []string) ([]common.Address, error) {
	out := make([]common.Address, 0, len(in))
	for _, s := range in {
		a, err := common.Base58ToAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func parseState(s string) (types.CustodyState, error) {
	switch strings.ToLower(s) {
	case "initialized":
		return types.StateInitialized, nil
	case "issued":
		return types.StateIssued, nil
	case "claimed":
		return types.StateClaimed, nil
	case "invalidated":
		return types.StateInvalidated, nil
	default:
		return 0, fmt.Errorf("unknown state %q", s)
	}
}

func parseSort(s string) (market.SortField, error) {
	switch strings.ToLower(s) {
	case "recent":
		return market.SortRecentlyListed, nil
	case "price":
		return market.SortPrice, nil
	case "rate":
		return market.SortRate, nil
	case "duration":
		return market.SortDuration, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

func runList(ctx *cli.Context) error {
	r, cfg, err := buildResolver(ctx)
	if err != nil {
		return err
	}
	state, err := parseState(ctx.String(stateFlag.Name))
	if err != nil {
		return err
	}
	field, err := parseSort(ctx.String(sortFlag.Name))
	if err != nil {
		return err
	}
	tokens, err := r.Resolve(ctx.Context, state)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	mints := economics.NewMintTable()
	for _, td := range tokens {
		mints.RegisterRecord(td.Mint)
	}
	dir := market.Ascending
	if ctx.Bool(descFlag.Name) {
		dir = market.Descending
	}
	market.Sort(tokens, field, dir, now, cfg.Marketplace.MarketplaceRate, mints)

	tty := isatty.IsTerminal(os.Stdout.Fd())
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Custody", "Name", "Type", "Price", "Rate", "Duration", "Expires"})
	table.SetBorder(false)
	for _, td := range tokens {
		table.Append([]string{
			shorten(td.Custody.Address),
			displayName(td),
			colorType(market.Classify(td), tty),
			fmt.Sprintf("%.4f", economics.ListingPrice(td, mints)),
			fmt.Sprintf("%.4f", economics.NormalizedRate(td, now, cfg.Marketplace.MarketplaceRate, mints)),
			displayDuration(td, now),
			displayAutoInvalidate(td, now, tty),
		})
	}
	table.Render()
	fmt.Printf("\n%d rentals\n", len(tokens))
	return nil
}

func runShow(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return fmt.Errorf("usage: rentals show <mint>")
	}
	target, err := common.Base58ToAddress(ctx.Args().First())
	if err != nil {
		return err
	}
	r, cfg, err := buildResolver(ctx)
	if err != nil {
		return err
	}
	state, err := parseState(ctx.String(stateFlag.Name))
	if err != nil {
		return err
	}
	tokens, err := r.Resolve(ctx.Context, state)
	if err != nil {
		return err
	}
	for _, td := range tokens {
		if td.Custody.Mint != target && td.Custody.Address != target {
			continue
		}
		printToken(td, cfg)
		return nil
	}
	return fmt.Errorf("no resolved rental for %s", target)
}

func printToken(td *types.TokenData, cfg fileConfig) {
	now := time.Now().Unix()
	mints := economics.NewMintTable()
	mints.RegisterRecord(td.Mint)

	fmt.Printf("custody:   %s\n", td.Custody.Address)
	fmt.Printf("mint:      %s\n", td.Custody.Mint)
	fmt.Printf("issuer:    %s\n", td.Custody.Issuer)
	fmt.Printf("state:     %s\n", td.Custody.State)
	fmt.Printf("type:      %s\n", market.Classify(td))
	fmt.Printf("name:      %s\n", displayName(td))
	fmt.Printf("price:     %.4f\n", economics.ListingPrice(td, mints))
	fmt.Printf("rate:      %.4f per %ds\n", economics.NormalizedRate(td, now, cfg.Marketplace.MarketplaceRate, mints), cfg.Marketplace.MarketplaceRate)
	fmt.Printf("duration:  %s\n", displayDuration(td, now))
	fmt.Printf("claimable: %v\n", market.EligibleForClaim(td))
	fmt.Printf("expired:   %v\n", market.ShouldAutoInvalidate(td, now))
	if td.HasUnknownInvalidators() {
		fmt.Printf("warning:   %d unknown invalidator reference(s)\n", len(td.UnknownInvalidators))
	}
}

func shorten(a common.Address) string {
	s := a.String()
	if len(s) <= 12 {
		return s
	}
	return s[:6] + ".." + s[len(s)-4:]
}

func displayName(td *types.TokenData) string {
	if td.MetadataJSON != nil && td.MetadataJSON.Name != "" {
		return td.MetadataJSON.Name
	}
	if td.Metadata != nil && td.Metadata.Name != "" {
		return td.Metadata.Name
	}
	return shorten(td.Custody.Mint)
}

func displayDuration(td *types.TokenData, now int64) string {
	dur, bounded := economics.EffectiveDuration(td, now)
	if !bounded {
		return "unbounded"
	}
	if dur <= 0 {
		return "-"
	}
	return (time.Duration(dur) * time.Second).String()
}

func colorType(rt market.RentalType, tty bool) string {
	if !tty {
		return string(rt)
	}
	switch rt {
	case market.TypeRate:
		return color.CyanString(string(rt))
	case market.TypeDuration:
		return color.GreenString(string(rt))
	case market.TypeExpiration:
		return color.YellowString(string(rt))
	default:
		return string(rt)
	}
}

func displayAutoInvalidate(td *types.TokenData, now int64, tty bool) string {
	if market.ShouldAutoInvalidate(td, now) {
		if tty {
			return color.RedString("expired")
		}
		return "expired"
	}
	return "active"
}
