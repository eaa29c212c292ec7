package main

import (
	"fmt"
	"os"

	"github.com/naoina/toml"

	"github.com/solana-nft-programs/rental-resolver/params"
	"github.com/solana-nft-programs/rental-resolver/resolver"
)

// fileConfig is the TOML configuration surface of the rentals tool.
type fileConfig struct {
	RPC         string                   `toml:"rpc,omitempty"`
	Index       string                   `toml:"index,omitempty"`
	Marketplace params.MarketplaceConfig `toml:"marketplace,omitempty"`
	Metadata    resolver.MetadataConfig  `toml:"metadata,omitempty"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Marketplace: params.DefaultConfig,
		Metadata:    resolver.DefaultMetadataConfig,
	}
}

func loadConfig(path string) (fileConfig, error) {
	cfg := defaultFileConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := toml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
