package gateway

import (
	"fmt"
	"strings"

	"github.com/rentiva/rentiva-backend/pkg/config"
	pkgerrors "github.com/rentiva/rentiva-backend/pkg/errors"
)

// LocalBankTransfer builds wire instructions from static account config.
// No external gateway is involved.
type LocalBankTransfer struct {
	cfg config.LinkConfig
}

// NewLocalBankTransfer wires the local bank-transfer instructor.
func NewLocalBankTransfer(cfg config.LinkConfig) (*LocalBankTransfer, error) {
	if strings.TrimSpace(cfg.BankAccountIBAN) == "" {
		return nil, fmt.Errorf("bank account iban required")
	}
	if strings.TrimSpace(cfg.BankAccountOwner) == "" {
		return nil, fmt.Errorf("bank account owner required")
	}
	return &LocalBankTransfer{cfg: cfg}, nil
}

func (l *LocalBankTransfer) Instructions(req LinkRequest) (*TransferInstructions, error) {
	if strings.TrimSpace(req.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer reference required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer amount must be positive")
	}
	return &TransferInstructions{
		Reference:    req.Reference,
		IBAN:         l.cfg.BankAccountIBAN,
		AccountOwner: l.cfg.BankAccountOwner,
		MerchantName: l.cfg.MerchantName,
		Amount:       req.Amount,
		Currency:     req.Currency,
	}, nil
}
