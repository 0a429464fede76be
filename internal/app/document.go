package app

import (
	"github.com/hesabu-biz/hesabu/internal/docgen/compose"
	"github.com/hesabu-biz/hesabu/internal/docgen/layout"
)

// DocumentConfig resolves every composition default once from the
// runtime configuration: company identity, payment details and the
// logo asset. Layout dimensions keep the compose defaults (A4).
func DocumentConfig(cfg *Config) compose.Config {
	out := compose.Config{
		BaseCurrency: cfg.BaseCurrency,
		Company: compose.CompanyInfo{
			Name:    cfg.CompanyName,
			Address: cfg.CompanyAddress,
			Phone:   cfg.CompanyPhone,
			Email:   cfg.CompanyEmail,
			KRAPin:  cfg.CompanyKRAPin,
		},
		LogoTimeout: cfg.LogoTimeout,
	}
	if cfg.BankDetails != "" {
		out.PaymentFields = append(out.PaymentFields, layout.Field{Label: "Bank", Value: cfg.BankDetails})
	}
	if cfg.MpesaPaybill != "" {
		out.PaymentFields = append(out.PaymentFields, layout.Field{Label: "M-Pesa Paybill", Value: cfg.MpesaPaybill})
	}
	if cfg.LogoPath != "" {
		out.Logo = compose.FileAsset(cfg.LogoPath)
	}
	return out
}
