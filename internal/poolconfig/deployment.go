package poolconfig

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/GoPolymarket/vesu-deployer/internal/model"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/apperrors"
)

// LoadDeployment reads previously deployed protocol addresses. A missing file
// (or an empty path) yields empty addresses.
func LoadDeployment(path string) (*model.ProtocolAddresses, error) {
	out := &model.ProtocolAddresses{}
	if path == "" {
		return out, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, apperrors.New(apperrors.ErrConfig, "read deployment file", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, apperrors.New(apperrors.ErrConfig, "parse deployment file "+path, err)
	}
	return out, nil
}

// SaveDeployment writes addresses to path atomically (temp file + rename).
func SaveDeployment(path string, addresses model.ProtocolAddresses) error {
	data, err := json.MarshalIndent(addresses, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".deployment-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
