package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mrz1836/go-sanitize"
	"golang.org/x/term"

	"github.com/mrz1836/lockgate/internal/secmem"
	gateerr "github.com/mrz1836/lockgate/pkg/errors"
)

// readSecret prompts on ErrOut and reads one line without echo when stdin is
// a terminal. Piped input, or a terminal line already being read by an
// abandoned prompt, comes from the shared line feed instead.
// The caller is responsible for wiping the returned bytes.
func (c *CommandContext) readSecret(prompt string) ([]byte, error) {
	out(c.ErrOut, "%s", prompt)

	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) && !c.Lines.Pending() {
		secret, err := term.ReadPassword(int(f.Fd()))
		outln(c.ErrOut) // Add newline after hidden input
		if err != nil {
			return nil, fmt.Errorf("reading PIN: %w", err)
		}
		return secret, nil
	}

	text, err := c.Lines.ReadLine(context.Background())
	line := []byte(text)
	if err != nil && (!errors.Is(err, io.EOF) || len(line) == 0) {
		secmem.Wipe(line)
		return nil, gateerr.WithCause(gateerr.ErrInvalidInput, fmt.Errorf("reading PIN: %w", err))
	}
	trimmed := bytes.TrimRight(line, "\r\n")
	secret := append([]byte(nil), trimmed...)
	secmem.Wipe(line)
	return secret, nil
}

// checkPIN enforces the PIN pad rule: exactly n digits.
func checkPIN(pin []byte, n int) error {
	if len(pin) == 0 {
		return gateerr.WithSuggestion(gateerr.ErrInvalidPIN, "enter a PIN")
	}
	if len(pin) != n || sanitize.Numeric(string(pin)) != string(pin) {
		return gateerr.WithSuggestion(gateerr.ErrInvalidPIN, fmt.Sprintf("the PIN must be exactly %d digits", n))
	}
	return nil
}

// promptPIN reads an existing PIN. The PIN is not checked against the pad
// rule so that PINs set under a different pin_length still verify.
func (c *CommandContext) promptPIN(prompt string) (*secmem.Buffer, error) {
	pin, err := c.readSecret(prompt)
	if err != nil {
		return nil, err
	}
	pin = bytes.TrimSpace(pin)
	if len(pin) == 0 {
		return nil, gateerr.WithSuggestion(gateerr.ErrInvalidPIN, "enter a PIN")
	}
	return secmem.Take(pin), nil
}

// promptNewPIN reads a new PIN twice and checks both entries match.
func (c *CommandContext) promptNewPIN() (*secmem.Buffer, error) {
	n := c.Config.Lock.PINLength

	first, err := c.readSecret(fmt.Sprintf("Enter new %d-digit PIN: ", n))
	if err != nil {
		return nil, err
	}
	pin := secmem.Take(bytes.TrimSpace(first))
	if err := checkPIN(pin.Bytes(), n); err != nil {
		pin.Destroy()
		return nil, err
	}

	confirm, err := c.readSecret("Confirm PIN: ")
	if err != nil {
		pin.Destroy()
		return nil, err
	}
	defer secmem.Wipe(confirm)

	if !bytes.Equal(pin.Bytes(), bytes.TrimSpace(confirm)) {
		pin.Destroy()
		return nil, gateerr.WithSuggestion(gateerr.ErrPINMismatch, "enter the same PIN twice")
	}
	return pin, nil
}
