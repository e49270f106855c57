package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fracledger/crypto"
)

const defaultSecretEnv = "FRAC_RPC_JWT_SECRET"

func runKeyCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 || args[0] != "generate" {
		fmt.Fprintln(stderr, "Usage: frac-cli key generate")
		return 1
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fmt.Fprintf(stderr, "Error generating key: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Address:     %s\n", key.PubKey().Address().String())
	fmt.Fprintf(stdout, "Private key: %s\n", hex.EncodeToString(key.Bytes()))
	return 0
}

func runTokenCommand(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("sub", "", "Bech32 account the token acts for")
	secretEnv := fs.String("secret-env", defaultSecretEnv, "Environment variable holding the HMAC secret")
	issuer := fs.String("issuer", "fracledger", "Token issuer")
	audience := fs.String("audience", "", "Token audience")
	ttl := fs.Duration("ttl", time.Hour, "Token lifetime")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	secret := strings.TrimSpace(os.Getenv(*secretEnv))
	if secret == "" {
		fmt.Fprintf(stderr, "Error: %s is not set\n", *secretEnv)
		return 1
	}
	token, err := mintToken([]byte(secret), *subject, *issuer, *audience, *ttl, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}

func mintToken(secret []byte, subject, issuer, audience string, ttl time.Duration, now time.Time) (string, error) {
	subject = strings.TrimSpace(subject)
	if _, err := crypto.ParseAccount(subject); err != nil {
		return "", fmt.Errorf("subject: %w", err)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive")
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    strings.TrimSpace(issuer),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if aud := strings.TrimSpace(audience); aud != "" {
		claims.Audience = jwt.ClaimStrings{aud}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
