package utils

import (
	"testing"
)

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		name    string
		symbol  string
		wantErr bool
	}{
		// Valid symbols
		{"valid BTCUSDT", "BTCUSDT", false},
		{"valid ETHUSDT", "ETHUSDT", false},
		{"valid lowercase", "btcusdt", false},
		{"valid with hyphen", "BTC-USDT", false},
		{"valid with underscore", "BTC_USDT", false},
		{"valid with slash", "BTC/USDT", false},
		{"valid short", "XY", false},
		{"valid with numbers", "1INCH", false},

		// Invalid symbols
		{"empty", "", true},
		{"single char", "B", true},
		{"too long", "BTCUSDTBTCUSDTBTCUSDTBTCUSDTXXX", true},
		{"special chars", "BTC@USDT", true},
		{"spaces", "BTC USDT", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSymbol(tt.symbol)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSymbol(%q) error = %v, wantErr %v", tt.symbol, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "btcusdt", "BTCUSDT"},
		{"with hyphen", "btc-usdt", "BTCUSDT"},
		{"with underscore", "BTC_USDT", "BTCUSDT"},
		{"with slash", "btc/usdt", "BTCUSDT"},
		{"already normalized", "BTCUSDT", "BTCUSDT"},
		{"mixed case with hyphen", "Btc-Usdt", "BTCUSDT"},
		{"surrounding spaces", "  btcusdt  ", "BTCUSDT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := NormalizeSymbol(tt.input); result != tt.expected {
				t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestExtractBaseCurrency(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		expected string
	}{
		{"BTCUSDT", "BTCUSDT", "BTC"},
		{"ETHUSDT", "ETHUSDT", "ETH"},
		{"SOLUSDT", "SOLUSDT", "SOL"},
		{"with hyphen", "BTC-USDT", "BTC"},
		{"with underscore", "ETH_USDT", "ETH"},
		{"with slash", "SOL/USDT", "SOL"},
		{"USDC pair", "BTCUSDC", "BTC"},
		{"BTC quote", "ETHBTC", "ETH"},
		{"lowercase", "btcusdt", "BTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ExtractBaseCurrency(tt.symbol); result != tt.expected {
				t.Errorf("ExtractBaseCurrency(%q) = %q, want %q", tt.symbol, result, tt.expected)
			}
		})
	}
}

func TestExtractQuoteCurrency(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		expected string
	}{
		{"BTCUSDT", "BTCUSDT", "USDT"},
		{"ETHUSDC", "ETHUSDC", "USDC"},
		{"with hyphen", "BTC-USDT", "USDT"},
		{"with underscore", "ETH_BTC", "BTC"},
		{"with slash", "SOL/ETH", "ETH"},
		{"BTC quote", "ETHBTC", "BTC"},
		{"unknown quote", "ABCXYZ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ExtractQuoteCurrency(tt.symbol); result != tt.expected {
				t.Errorf("ExtractQuoteCurrency(%q) = %q, want %q", tt.symbol, result, tt.expected)
			}
		})
	}
}

func TestValidateSide(t *testing.T) {
	tests := []struct {
		name    string
		side    string
		wantErr bool
	}{
		{"long", "long", false},
		{"short", "short", false},
		{"empty", "", true},
		{"uppercase", "LONG", true},
		{"garbage", "sideways", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSide(tt.side)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSide(%q) error = %v, wantErr %v", tt.side, err, tt.wantErr)
			}
		})
	}
}

func TestValidateLeverage(t *testing.T) {
	tests := []struct {
		name     string
		leverage float64
		wantErr  bool
	}{
		{"valid 1x", 1, false},
		{"valid 10x", 10, false},
		{"valid fractional", 12.5, false},
		{"valid max 500x", 500, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"below min", 0.5, true},
		{"above max", 501, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLeverage(tt.leverage)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLeverage(%v) error = %v, wantErr %v", tt.leverage, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCollateralAndPrice(t *testing.T) {
	if err := ValidateCollateral(100); err != nil {
		t.Errorf("ValidateCollateral(100) = %v", err)
	}
	if err := ValidateCollateral(0); err == nil {
		t.Error("ValidateCollateral(0) should fail")
	}
	if err := ValidatePrice(50000); err != nil {
		t.Errorf("ValidatePrice(50000) = %v", err)
	}
	if err := ValidatePrice(-1); err == nil {
		t.Error("ValidatePrice(-1) should fail")
	}
}

func TestValidateThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		wantErr   bool
	}{
		{"default", 0.85, false},
		{"low", 0.1, false},
		{"zero", 0, true},
		{"one", 1, true},
		{"above one", 1.2, true},
		{"negative", -0.85, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThreshold(tt.threshold)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateThreshold(%v) error = %v, wantErr %v", tt.threshold, err, tt.wantErr)
			}
		})
	}
}

func TestValidateAPIToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid 16 chars", "1234567890123456", false},
		{"valid 32 chars", "12345678901234567890123456789012", false},
		{"valid with letters", "AbCdEfGhIjKlMnOp", false},
		{"valid with dashes", "abcd-1234-5678-efgh", false},
		{"valid with underscores", "abcd_1234_5678_efgh", false},
		{"empty", "", true},
		{"too short", "123456789012345", true},
		{"special chars", "abcd!@#$efgh1234", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAPIToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAPIToken(%q) error = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePosition(t *testing.T) {
	tests := []struct {
		name    string
		input   PositionValidation
		wantErr bool
	}{
		{
			name: "valid position",
			input: PositionValidation{
				Symbol:     "BTCUSDT",
				Side:       "long",
				Collateral: 1000,
				Leverage:   10,
				EntryPrice: 50000,
			},
			wantErr: false,
		},
		{
			name: "invalid symbol",
			input: PositionValidation{
				Symbol:     "",
				Side:       "long",
				Collateral: 1000,
				Leverage:   10,
				EntryPrice: 50000,
			},
			wantErr: true,
		},
		{
			name: "invalid side",
			input: PositionValidation{
				Symbol:     "BTCUSDT",
				Side:       "up",
				Collateral: 1000,
				Leverage:   10,
				EntryPrice: 50000,
			},
			wantErr: true,
		},
		{
			name: "leverage out of range",
			input: PositionValidation{
				Symbol:     "BTCUSDT",
				Side:       "short",
				Collateral: 1000,
				Leverage:   1000,
				EntryPrice: 50000,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePosition(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePosition() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePosition_CollectsAllErrors(t *testing.T) {
	err := ValidatePosition(PositionValidation{
		Symbol:     "",
		Side:       "up",
		Collateral: -1,
		Leverage:   0,
		EntryPrice: 0,
	})

	var errs ValidationErrors
	if e, ok := err.(ValidationErrors); ok {
		errs = e
	} else {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(errs) != 5 {
		t.Errorf("expected 5 field errors, got %d: %v", len(errs), errs)
	}
}

func TestValidationErrors(t *testing.T) {
	var errs ValidationErrors

	errs.Add("field1", "error1")
	errs.Add("field2", "error2")

	if !errs.HasErrors() {
		t.Error("ValidationErrors.HasErrors() = false, want true")
	}
	if errs.Error() == "" {
		t.Error("ValidationErrors.Error() should not be empty")
	}
	if len(errs) != 2 {
		t.Errorf("ValidationErrors length = %d, want 2", len(errs))
	}
}

func TestValidationErrorsAddError(t *testing.T) {
	var errs ValidationErrors

	errs.AddError("field1", nil)
	if errs.HasErrors() {
		t.Error("ValidationErrors.AddError(nil) should not add error")
	}

	errs.AddError("field2", ErrInvalidSymbol)
	if !errs.HasErrors() {
		t.Error("ValidationErrors.AddError(err) should add error")
	}
}

// Benchmarks

func BenchmarkValidateSymbol(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ValidateSymbol("BTCUSDT")
	}
}

func BenchmarkNormalizeSymbol(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NormalizeSymbol("btc-usdt")
	}
}

func BenchmarkValidatePosition(b *testing.B) {
	input := PositionValidation{
		Symbol:     "BTCUSDT",
		Side:       "long",
		Collateral: 1000,
		Leverage:   10,
		EntryPrice: 50000,
	}
	for i := 0; i < b.N; i++ {
		ValidatePosition(input)
	}
}
