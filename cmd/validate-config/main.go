package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/webhook-gateway/config"
	"github.com/spf13/viper"
)

/* validate-config - Standalone CLI tool to check the gateway configuration
 * Usage: go run cmd/validate-config/main.go [dir containing .env]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	dir := "."
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	fmt.Printf("Validating configuration from: %s/.env and environment\n", dir)
	fmt.Println(strings.Repeat("-", 50))

	cfg, err := config.Load(viper.New(), dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := cfg.Masked()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("   Port:              %s\n", m.Port)
	fmt.Printf("   API Key:           %s\n", m.APIKey)
	fmt.Printf("   Target URL:        %s\n", m.TargetURL)
	fmt.Printf("   Rate Limit:        %d per %s (%s)\n", m.RateLimitMax, m.RateLimitWindow, m.RateLimitBackend)
	if m.RateLimitBackend == config.BackendRedis {
		fmt.Printf("   Redis:             %s db=%d prefix=%s\n", m.RedisAddr, m.RedisDB, m.RedisPrefix)
	}
	if m.RateLimitKeyHeader != "" {
		fmt.Printf("   Client Key Header: %s\n", m.RateLimitKeyHeader)
	}
	fmt.Printf("   Trust XFF:         %t\n", m.TrustForwardedFor)
	fmt.Printf("   History Capacity:  %d\n", m.HistoryCapacity)
	fmt.Printf("   Forward Timeout:   %s\n", m.ForwardTimeout)
	fmt.Printf("   Forward Encoding:  %s\n", m.ForwardEncoding)
	if m.ForwardRPS > 0 {
		fmt.Printf("   Forward Rate:      %.2f/s\n", m.ForwardRPS)
	}
	fmt.Printf("   On Disconnect:     %s\n", m.ForwardOnDisconnect)
	if m.ForwardSigningSecret != "" {
		fmt.Printf("   Signing Secret:    %s\n", m.ForwardSigningSecret)
	}
	fmt.Printf("   Request Timeout:   %s (write %s)\n", m.RequestTimeout, m.WriteTimeout())
	fmt.Printf("   Max Body Bytes:    %d\n", m.MaxBodyBytes)
	fmt.Printf("   CORS Origins:      %s\n", strings.Join(cfg.AllowedOrigins(), ", "))

	fmt.Printf("\n✓ Configuration is valid!\n")
	os.Exit(0)
}
