package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/matzehuels/boxdeck/pkg/errors"
)

// rsvgBinary is the converter used for vector PDF output.
var rsvgBinary = "rsvg-convert"

// HasRSVG reports whether rsvg-convert is on PATH.
func HasRSVG() bool {
	_, err := exec.LookPath(rsvgBinary)
	return err == nil
}

// rsvgConvert converts one or more SVG documents into a single multi-page
// file of the given format using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func rsvgConvert(ctx context.Context, pages [][]byte, format string, extraArgs ...string) ([]byte, error) {
	bin, err := exec.LookPath(rsvgBinary)
	if err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	dir, err := os.MkdirTemp("", "boxdeck-svg-*")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "create temp dir")
	}
	defer os.RemoveAll(dir)

	args := append([]string{"-f", format}, extraArgs...)
	for i, p := range pages {
		name := filepath.Join(dir, fmt.Sprintf("page-%04d.svg", i))
		if err := os.WriteFile(name, p, 0o600); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "write page %d", i)
		}
		args = append(args, name)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "rsvg-convert: %s", bytes.TrimSpace(errBuf.Bytes()))
	}
	return out.Bytes(), nil
}
