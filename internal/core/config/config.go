package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/nightconcept/garnet/internal/core/descriptor"
)

const DescriptorTomlName = "garnet.toml"
const DescriptorYamlName = "garnet.yaml"

// DescriptorNames lists the accepted descriptor file names in lookup order.
var DescriptorNames = []string{DescriptorTomlName, DescriptorYamlName, "garnet.yml"}

// FindDescriptor returns the path of the descriptor in dirPath. The error
// satisfies os.IsNotExist when there is none.
func FindDescriptor(dirPath string) (string, error) {
	for _, name := range DescriptorNames {
		p := filepath.Join(dirPath, name)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", &fs.PathError{Op: "open", Path: filepath.Join(dirPath, DescriptorTomlName), Err: fs.ErrNotExist}
}

// LoadDescriptor reads and parses the descriptor found in dirPath and
// records the project root on it.
func LoadDescriptor(dirPath string) (*descriptor.ProjectDescriptor, error) {
	p, err := FindDescriptor(dirPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	d, err := descriptor.Parse(data, descriptor.FormatForPath(p))
	if err != nil {
		var malformed *descriptor.MalformedDescriptorError
		if errors.As(err, &malformed) {
			malformed.File = filepath.Base(p)
		}
		return nil, err
	}

	root, err := filepath.Abs(dirPath)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to resolve project directory %s", dirPath)
	}
	d.Root = root
	d.File = p
	return d, nil
}

// WriteDescriptor encodes d and writes it back to d.File, or to garnet.toml
// in dirPath when the descriptor was not loaded from disk. Existing files are
// overwritten.
func WriteDescriptor(dirPath string, d *descriptor.ProjectDescriptor) error {
	target := d.File
	if target == "" {
		target = filepath.Join(dirPath, DescriptorTomlName)
	}
	data, err := descriptor.Encode(d, descriptor.FormatForPath(target))
	if err != nil {
		return err
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s for writing", target)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(data); err != nil {
		return eris.Wrapf(err, "failed to write %s", target)
	}
	return nil
}
