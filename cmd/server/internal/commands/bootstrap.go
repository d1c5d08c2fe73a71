package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/multicloud/internal/auth"
	"github.com/wolfeidau/multicloud/internal/bootstrap"
	"github.com/wolfeidau/multicloud/internal/directory"
	"github.com/wolfeidau/multicloud/internal/logger"
	"github.com/wolfeidau/multicloud/internal/password"
)

type BootstrapCmd struct {
	File        string        `arg:"" help:"seed file (YAML, or JSON when the name ends in .json)" type:"existingfile"`
	BcryptCost  int           `help:"bcrypt cost for seeded passwords" default:"12" env:"MULTICLOUD_BCRYPT_COST"`
	Postgres    PostgresFlags `embed:"" prefix:"postgres-"`
	AutoMigrate bool          `help:"run database migrations before seeding" default:"true" env:"MULTICLOUD_AUTO_MIGRATE"`
}

func (c *BootstrapCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)

	seed, err := bootstrap.LoadSeed(c.File)
	if err != nil {
		return err
	}

	stores, err := postgresBackends(ctx, &c.Postgres, c.AutoMigrate)
	if err != nil {
		return err
	}
	defer stores.close()

	hasher, err := password.NewHasher(c.BcryptCost)
	if err != nil {
		return err
	}

	// seeding never signs tokens, any valid secret will do
	codec, err := auth.NewTokenCodec(auth.TokenConfig{Secret: make([]byte, auth.MinSecretLength)})
	if err != nil {
		return err
	}

	res, err := bootstrap.Bootstrap(ctx, bootstrap.Config{
		Issuer:        auth.NewIssuer(stores.accounts, stores.sessions, hasher, codec),
		Accounts:      stores.accounts,
		Organizations: directory.NewOrganizations(stores.organizations, stores.memberships, stores.accounts, nil),
	}, seed)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}

	log.Info().
		Int("accounts", res.Accounts).
		Int("organizations", res.Organizations).
		Int("members", res.Members).
		Msg("Bootstrap complete")
	return nil
}
