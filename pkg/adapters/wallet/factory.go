package wallet

import (
	"fmt"

	"github.com/aptosflow/aptosflow/pkg/ports"
	"go.uber.org/zap"
)

// Config holds capability construction parameters.
type Config struct {
	Provider string
	Network  string
	Account  string
	Logger   *zap.Logger
}

// NewCapability creates a signing capability based on the provider.
func NewCapability(cfg *Config) (ports.ActionCapability, error) {
	switch cfg.Provider {
	case "devnet":
		return NewDevnetSigner(cfg.Network, cfg.Account, cfg.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported wallet provider: %s", cfg.Provider)
	}
}
