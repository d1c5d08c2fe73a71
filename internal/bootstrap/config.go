package bootstrap

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wolfeidau/multicloud/internal/models"
	"gopkg.in/yaml.v3"
)

// Seed describes the accounts and organizations created on a fresh install.
type Seed struct {
	Accounts      []AccountSeed      `yaml:"accounts" json:"accounts"`
	Organizations []OrganizationSeed `yaml:"organizations" json:"organizations"`
}

// AccountSeed is registered through the same path as a public sign up.
type AccountSeed struct {
	Name     string `yaml:"name" json:"name"`
	Email    string `yaml:"email" json:"email"`
	CPF      string `yaml:"cpf" json:"cpf"`
	Password string `yaml:"password" json:"password"`
}

// OrganizationSeed is created by Owner, who becomes its OWNER.
type OrganizationSeed struct {
	Name    string       `yaml:"name" json:"name"`
	CNPJ    string       `yaml:"cnpj" json:"cnpj"`
	Owner   string       `yaml:"owner" json:"owner"` // account email
	Members []MemberSeed `yaml:"members" json:"members"`
}

// MemberSeed grants an account, referenced by email, a role.
type MemberSeed struct {
	Email string `yaml:"email" json:"email"`
	Role  string `yaml:"role" json:"role"`
}

// LoadSeed reads a seed file, JSON when the extension is .json and YAML otherwise.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := json.Unmarshal(data, &seed); err != nil {
			return nil, fmt.Errorf("failed to parse JSON seed: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return nil, fmt.Errorf("failed to parse YAML seed: %w", err)
		}
	}

	if err := seed.Validate(); err != nil {
		return nil, err
	}

	return &seed, nil
}

// Validate checks every organization references a seeded account.
// Field level rules are left to the services that create the records.
func (s *Seed) Validate() error {
	emails := make(map[string]bool, len(s.Accounts))
	for _, a := range s.Accounts {
		emails[models.NormalizeEmail(a.Email)] = true
	}

	var errs []error
	for _, org := range s.Organizations {
		if !emails[models.NormalizeEmail(org.Owner)] {
			errs = append(errs, fmt.Errorf("organization %q: owner %q is not a seeded account", org.Name, org.Owner))
		}
		for _, m := range org.Members {
			if !emails[models.NormalizeEmail(m.Email)] {
				errs = append(errs, fmt.Errorf("organization %q: member %q is not a seeded account", org.Name, m.Email))
			}
		}
	}
	return errors.Join(errs...)
}
