package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dhruvprajapati002/PassGuard/internal/crypto"
	"github.com/dhruvprajapati002/PassGuard/internal/vault"
)

func main() {
	// ---- keygen ----
	keygenCmd := flag.NewFlagSet("keygen", flag.ExitOnError)

	// ---- check ----
	checkCmd := flag.NewFlagSet("check", flag.ExitOnError)
	checkKey := checkCmd.String("key", "", "encryption key (defaults to $ENCRYPTION_KEY)")
	checkService := checkCmd.String("service", "example.com", "service name")
	checkUser := checkCmd.String("user", "alice", "username or email")
	checkPass := checkCmd.String("pass", "gen:20", "password or gen:N to generate N chars")

	// ---- decrypt ----
	decryptCmd := flag.NewFlagSet("decrypt", flag.ExitOnError)
	decryptKey := decryptCmd.String("key", "", "encryption key (defaults to $ENCRYPTION_KEY)")
	decryptCT := decryptCmd.String("ct", "", "hex ciphertext from a vault record")
	decryptIV := decryptCmd.String("iv", "", "hex iv from the same record")

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "keygen":
		_ = keygenCmd.Parse(os.Args[2:])
		dieIf(cmdKeygen())

	case "check":
		_ = checkCmd.Parse(os.Args[2:])
		dieIf(cmdCheck(*checkKey, *checkService, *checkUser, *checkPass))

	case "decrypt":
		_ = decryptCmd.Parse(os.Args[2:])
		dieIf(cmdDecrypt(*decryptKey, *decryptCT, *decryptIV))

	default:
		usage()
	}
}

func usage() {
	fmt.Print(`passguardctl commands:

  keygen                         print a fresh random encryption key
  check   [--key K] [--service S --user U --pass <pw|gen:N>]
                                 run an offline encrypt/store/decrypt round trip
  decrypt --ct HEX --iv HEX [--key K]
                                 decrypt one stored ciphertext/iv pair

The --key flag falls back to $ENCRYPTION_KEY.

Examples:
  passguardctl keygen
  passguardctl check --key secret --service example.com --user alice --pass gen:16
  passguardctl decrypt --ct 6a1f... --iv 9c02...
`)
}

// cmdKeygen prints a random key suitable for ENCRYPTION_KEY.
func cmdKeygen() error {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(buf))
	return nil
}

// cmdCheck exercises the full cipher-and-store path without touching Mongo:
// encrypt, store in memory, list back decrypted, print both views.
func cmdCheck(key, service, user, pass string) error {
	cipher, err := buildCipher(key)
	if err != nil {
		return err
	}
	if len(pass) > 4 && pass[:4] == "gen:" {
		var n int
		_, _ = fmt.Sscanf(pass, "gen:%d", &n)
		if n <= 0 {
			n = 20
		}
		pass = genPassword(n)
	}

	svc := vault.NewService(cipher, vault.NewMemoryStore(), log.New(io.Discard, "", 0))
	ctx := context.Background()

	rec, err := svc.AddEntry(ctx, "local-check", vault.Input{
		Service:         service,
		UsernameOrEmail: user,
		Password:        pass,
	})
	if err != nil {
		return err
	}
	entries, err := svc.ListEntries(ctx, "local-check")
	if err != nil {
		return err
	}
	if len(entries) != 1 || entries[0].Password != pass {
		return errors.New("round trip failed: decrypted password does not match")
	}

	out := map[string]any{
		"stored":    rec,
		"decrypted": entries[0],
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
	fmt.Println("ok")
	return nil
}

func cmdDecrypt(key, ctHex, ivHex string) error {
	if ctHex == "" || ivHex == "" {
		return errors.New("--ct and --iv required")
	}
	cipher, err := buildCipher(key)
	if err != nil {
		return err
	}
	plain, err := cipher.Decrypt(ctHex, ivHex)
	if err != nil {
		return err
	}
	fmt.Println(plain)
	return nil
}

func buildCipher(key string) (*crypto.Cipher, error) {
	if key == "" {
		key = os.Getenv("ENCRYPTION_KEY")
	}
	derived, err := crypto.DeriveKey(key)
	if err != nil {
		return nil, err
	}
	return crypto.NewCipher(derived)
}

func genPassword(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()-_=+[]{}"
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		for i := range buf {
			buf[i] = alphabet[i%len(alphabet)]
		}
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

func dieIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
