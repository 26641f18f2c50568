package qstash

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const SignatureHeader = "Upstash-Signature"

var ErrInvalidSignature = errors.New("invalid qstash signature")

// Verify checks a delivery signature against the current signing key and
// falls back to the next one during key rotation. url, when non-empty, must
// equal the token subject.
func (c *Client) Verify(signature string, body []byte, url string) error {
	if c == nil {
		return errors.New("nil qstash client")
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return fmt.Errorf("%w: missing signature", ErrInvalidSignature)
	}

	var errs []error
	for _, key := range []string{c.currentSigningKey, c.nextSigningKey} {
		if key == "" {
			continue
		}
		err := verifyWithKey(signature, key, body, url)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w: no signing keys configured", ErrInvalidSignature)
	}
	return fmt.Errorf("%w: %v", ErrInvalidSignature, errors.Join(errs...))
}

func verifyWithKey(signature, key string, body []byte, url string) error {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(signature, claims,
		func(token *jwt.Token) (any, error) {
			return []byte(key), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("Upstash"),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return err
	}

	if url != "" {
		sub, err := claims.GetSubject()
		if err != nil {
			return err
		}
		if sub != url {
			return fmt.Errorf("subject mismatch: %s", sub)
		}
	}

	claimed, _ := claims["body"].(string)
	if strings.TrimRight(claimed, "=") != BodyHash(body) {
		return errors.New("body hash mismatch")
	}
	return nil
}

// BodyHash is the unpadded base64url SHA-256 digest carried in the body claim.
func BodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
