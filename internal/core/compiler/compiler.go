// Package compiler runs the selected toolchain's javac over the project sources.
package compiler

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/nightconcept/garnet/internal/core/logging"
	"github.com/nightconcept/garnet/internal/core/toolchain"
)

// Request describes one compilation.
type Request struct {
	Toolchain *toolchain.Toolchain
	Sources   []string
	Classpath []string
	// Output is replaced by the compiled classes.
	Output string
	// Release is the language version passed to javac.
	Release int
}

// Compiler compiles Java sources.
type Compiler interface {
	Compile(ctx context.Context, req Request) error
}

// Javac invokes <toolchain>/bin/javac.
type Javac struct {
	Stdout io.Writer
	Stderr io.Writer
}

// FindSources returns the sorted .java files under dir. A missing dir has no sources.
func FindSources(dir string) ([]string, error) {
	var sources []string
	err := filepath.WalkDir(dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".java") {
			sources = append(sources, p)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			if _, statErr := os.Stat(dir); os.IsNotExist(statErr) {
				return nil, nil
			}
		}
		return nil, eris.Wrapf(err, "failed to list sources in %s", dir)
	}
	sort.Strings(sources)
	return sources, nil
}

// Args builds the javac argument list for req.
func Args(req Request) []string {
	var args []string
	if req.Release >= 9 {
		args = append(args, "--release", strconv.Itoa(req.Release))
	} else if req.Release > 0 {
		v := "1." + strconv.Itoa(req.Release)
		args = append(args, "-source", v, "-target", v)
	}
	args = append(args, "-encoding", "UTF-8", "-d", req.Output)
	if len(req.Classpath) > 0 {
		args = append(args, "-classpath", strings.Join(req.Classpath, string(os.PathListSeparator)))
	}
	return append(args, req.Sources...)
}

// Compile runs javac, cancelling the process when ctx is done.
func (j *Javac) Compile(ctx context.Context, req Request) error {
	if req.Toolchain == nil {
		return eris.New("no toolchain selected for compilation")
	}
	if len(req.Sources) == 0 {
		return nil
	}
	if req.Output == "" {
		return eris.New("no output directory for compiled classes")
	}
	if err := os.RemoveAll(req.Output); err != nil {
		return eris.Wrapf(err, "failed to clear %s", req.Output)
	}
	if err := os.MkdirAll(req.Output, 0755); err != nil {
		return eris.Wrapf(err, "failed to create %s", req.Output)
	}

	stderr := new(bytes.Buffer)
	cmd := exec.CommandContext(ctx, req.Toolchain.Javac(), Args(req)...)
	cmd.Stdout = j.Stdout
	if j.Stderr != nil {
		cmd.Stderr = io.MultiWriter(j.Stderr, stderr)
	} else {
		cmd.Stderr = stderr
	}

	logging.Log(ctx).Debug().Str("javac", req.Toolchain.Javac()).Int("sources", len(req.Sources)).Msg("compiling")
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return eris.Wrapf(err, "javac failed:\n%s", msg)
		}
		return eris.Wrap(err, "javac failed")
	}
	return nil
}
