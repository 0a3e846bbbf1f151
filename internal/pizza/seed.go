package pizza

import (
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML layout of a directory seed.
type seedFile struct {
	Accounts []Account `yaml:"accounts"`
}

// LoadSeed parses a YAML account list. Every account must have an id, a
// name, a valid email and known roles; ids and emails must be unique.
func LoadSeed(r io.Reader) ([]Account, error) {
	var file seedFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	validate := validator.New()
	ids := make(map[string]struct{}, len(file.Accounts))
	emails := make(map[string]struct{}, len(file.Accounts))
	for i, a := range file.Accounts {
		if err := validate.Struct(a); err != nil {
			return nil, fmt.Errorf("seed account %d: %w", i, err)
		}
		if _, dup := ids[a.ID]; dup {
			return nil, fmt.Errorf("seed account %d: duplicate id %s", i, a.ID)
		}
		if _, dup := emails[a.Email]; dup {
			return nil, fmt.Errorf("seed account %d: duplicate email %s", i, a.Email)
		}
		ids[a.ID] = struct{}{}
		emails[a.Email] = struct{}{}
		if a.Roles == nil {
			file.Accounts[i].Roles = []RoleAssignment{}
		}
	}
	return file.Accounts, nil
}

// LoadSeedFile reads a seed from path.
func LoadSeedFile(path string) ([]Account, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSeed(f)
}
