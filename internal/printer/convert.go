package printer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	logx "printbot/pkg/logx"
)

// ErrNoLibreOffice is returned when no soffice binary is installed.
var ErrNoLibreOffice = errors.New("libreoffice not installed")

// Converter turns Office documents into PDFs with LibreOffice in headless
// mode. Conversion happens before a request reaches the dispatcher, so the
// queue only ever holds directly printable files.
type Converter struct {
	outDir  string
	timeout time.Duration
	log     logx.Logger
}

func NewConverter(outDir string, timeout time.Duration, log logx.Logger) *Converter {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Converter{outDir: outDir, timeout: timeout, log: log}
}

// ToPDF converts inputPath and returns the produced PDF path.
func (c *Converter) ToPDF(ctx context.Context, inputPath string) (string, error) {
	soffice, err := exec.LookPath("libreoffice")
	if err != nil {
		soffice, err = exec.LookPath("soffice")
	}
	if err != nil {
		return "", ErrNoLibreOffice
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, soffice,
		"--headless", "--convert-to", "pdf", "--outdir", c.outDir, inputPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("conversion timed out: %w", ctx.Err())
		}
		return "", fmt.Errorf("libreoffice failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}

	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	pdfPath := filepath.Join(c.outDir, stem+".pdf")
	if _, err := os.Stat(pdfPath); err != nil {
		return "", fmt.Errorf("converted pdf missing at %s: %w", pdfPath, err)
	}
	c.log.Info("converted to pdf", logx.String("in", base), logx.String("out", pdfPath))
	return pdfPath, nil
}
