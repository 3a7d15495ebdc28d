package payslip

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"paystream/internal/platform/crypto"
)

// Archive keeps one rendered PDF per employee and period on local disk.
type Archive struct {
	Dir    string
	Crypto *crypto.Service
}

func NewArchive(dir string, c *crypto.Service) *Archive {
	return &Archive{Dir: dir, Crypto: c}
}

// path hex encodes the employee id so distinct ids never share a file.
func (a *Archive) path(employeeID, month string, year int) string {
	name := fmt.Sprintf("%s_%d_%s.pdf", hex.EncodeToString([]byte(employeeID)), year, strings.ToLower(safeName(month)))
	return filepath.Join(a.Dir, name)
}

// Save renders st and writes it, sealed when encryption is configured.
func (a *Archive) Save(st Statement) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, st); err != nil {
		return "", err
	}
	return a.Crypto.WriteFile(a.path(st.EmployeeID, st.Month, st.Year), buf.Bytes())
}

// Load returns the archived PDF bytes for one employee and period.
func (a *Archive) Load(employeeID, month string, year int) ([]byte, error) {
	return a.Crypto.ReadFile(a.path(employeeID, month, year))
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
