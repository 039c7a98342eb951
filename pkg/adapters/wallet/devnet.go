package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/aptosflow/aptosflow/pkg/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DevnetSigner simulates the external signing capability: it validates the
// transfer payload and fabricates a transaction hash instead of submitting
// to a chain. Malformed payloads come back as unsuccessful results, not
// errors, matching how a real wallet declines a bad request.
type DevnetSigner struct {
	network string
	account string
	logger  *zap.Logger
}

// NewDevnetSigner creates a simulated signer.
func NewDevnetSigner(network, account string, logger *zap.Logger) *DevnetSigner {
	return &DevnetSigner{
		network: network,
		account: account,
		logger:  logger,
	}
}

// Execute validates the payload and returns a simulated signed-transaction
// receipt.
func (s *DevnetSigner) Execute(ctx context.Context, payload map[string]interface{}) (*domain.SignResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	recipient, _ := payload["recipient"].(string)
	if recipient == "" {
		return &domain.SignResult{Success: false, Error: "recipient is required"}, nil
	}
	if !strings.HasPrefix(recipient, "0x") {
		return &domain.SignResult{Success: false, Error: fmt.Sprintf("invalid recipient address: %s", recipient)}, nil
	}

	amount, ok := numericAmount(payload["amount"])
	if !ok || amount <= 0 {
		return &domain.SignResult{Success: false, Error: "amount must be a positive number"}, nil
	}

	hash := "0x" + strings.ReplaceAll(uuid.New().String(), "-", "")

	s.logger.Info("simulated transaction signed",
		zap.String("network", s.network),
		zap.String("recipient", recipient),
		zap.Float64("amount", amount),
		zap.String("transaction_hash", hash))

	return &domain.SignResult{Success: true, TransactionHash: hash}, nil
}

func numericAmount(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
