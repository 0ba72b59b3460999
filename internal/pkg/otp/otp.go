// Package otp generates the short numeric codes that are emailed to
// users during two-factor login.
package otp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// CodeGenerator issues one-time numeric codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// HOTPGenerator derives each code with HOTP over a fresh random
// secret, so codes are uniformly distributed and never reused.
type HOTPGenerator struct {
	digits otp.Digits
}

// NewHOTPGenerator returns a generator producing codes of the given
// length; anything other than 6 or 8 falls back to 6 digits.
func NewHOTPGenerator(digits otp.Digits) *HOTPGenerator {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	return &HOTPGenerator{digits: digits}
}

// Generate returns a new one-time code.
func (g *HOTPGenerator) Generate() (string, error) {
	var secret [20]byte
	if _, err := rand.Read(secret[:]); err != nil {
		return "", fmt.Errorf("failed to generate otp secret: %w", err)
	}

	encoded := base32.StdEncoding.EncodeToString(secret[:])
	code, err := hotp.GenerateCodeCustom(encoded, 0, hotp.ValidateOpts{
		Digits:    g.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}

	return code, nil
}
