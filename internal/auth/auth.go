// Package auth signs the remote matcher WebSocket handshake using RSA-PSS
// signatures.
package auth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Handshake header names.
const (
	HeaderKey       = "X-Bridge-Access-Key"
	HeaderTimestamp = "X-Bridge-Access-Timestamp"
	HeaderSignature = "X-Bridge-Access-Signature"
)

var (
	ErrMissingHeaders   = errors.New("missing authentication headers")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrExpired          = errors.New("signature timestamp outside allowed skew")
)

// Credentials holds the key id and private key used to sign handshakes.
type Credentials struct {
	KeyID      string          // Key id registered with the remote matcher
	PrivateKey *rsa.PrivateKey // RSA private key for signing
}

// LoadCredentials loads credentials from key ID and private key file path.
func LoadCredentials(keyID, privateKeyPath string) (*Credentials, error) {
	if keyID == "" {
		return nil, fmt.Errorf("key ID is required")
	}
	if privateKeyPath == "" {
		return nil, fmt.Errorf("private key path is required")
	}

	privateKey, err := LoadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("load private key: %w", err)
	}

	return &Credentials{
		KeyID:      keyID,
		PrivateKey: privateKey,
	}, nil
}

// LoadPrivateKey loads an RSA private key from a PEM file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	// Try PKCS#8 first (newer format)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key is not an RSA private key")
		}
		return rsaKey, nil
	}

	// Fall back to PKCS#1 (older format)
	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	return rsaKey, nil
}

// SignRequest returns the authentication headers for a request.
// For the WebSocket handshake, method is "GET" and path is the URL path.
func (c *Credentials) SignRequest(method, path string) (http.Header, error) {
	return c.signAt(time.Now(), method, path)
}

func (c *Credentials) signAt(now time.Time, method, path string) (http.Header, error) {
	timestampMs := now.UnixMilli()

	signature, err := c.generateSignature(timestampMs, method, path)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set(HeaderKey, c.KeyID)
	header.Set(HeaderTimestamp, strconv.FormatInt(timestampMs, 10))
	header.Set(HeaderSignature, signature)
	return header, nil
}

// generateSignature creates an RSA-PSS signature over timestamp_ms + method + path.
func (c *Credentials) generateSignature(timestampMs int64, method, path string) (string, error) {
	hashed := signingDigest(timestampMs, method, path)

	signature, err := rsa.SignPSS(
		rand.Reader,
		c.PrivateKey,
		crypto.SHA256,
		hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash},
	)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}

// SignWebSocket returns the headers for a WebSocket handshake to path.
func (c *Credentials) SignWebSocket(path string) (http.Header, error) {
	if path == "" {
		path = "/"
	}
	return c.SignRequest(http.MethodGet, path)
}

// Verify checks handshake headers against pub. A maxSkew of zero disables
// the timestamp check. It returns the key id on success.
func Verify(pub *rsa.PublicKey, header http.Header, method, path string, maxSkew time.Duration) (string, error) {
	keyID := header.Get(HeaderKey)
	ts := header.Get(HeaderTimestamp)
	sig := header.Get(HeaderSignature)
	if keyID == "" || ts == "" || sig == "" {
		return "", ErrMissingHeaders
	}

	timestampMs, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: bad timestamp %q", ErrInvalidSignature, ts)
	}
	if maxSkew > 0 {
		skew := time.Since(time.UnixMilli(timestampMs))
		if skew < 0 {
			skew = -skew
		}
		if skew > maxSkew {
			return "", ErrExpired
		}
	}

	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	hashed := signingDigest(timestampMs, method, path)
	err = rsa.VerifyPSS(pub, crypto.SHA256, hashed[:], raw,
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return keyID, nil
}

func signingDigest(timestampMs int64, method, path string) [32]byte {
	return sha256.Sum256([]byte(strconv.FormatInt(timestampMs, 10) + method + path))
}
