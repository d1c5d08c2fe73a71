package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/multicloud/internal/apierr"
	"github.com/wolfeidau/multicloud/internal/auth"
	"github.com/wolfeidau/multicloud/internal/directory"
	"github.com/wolfeidau/multicloud/internal/models"
	"github.com/wolfeidau/multicloud/internal/store"
)

// Config holds the services a seed is applied through.
type Config struct {
	Issuer        *auth.Issuer
	Accounts      store.AccountStore
	Organizations *directory.Organizations
}

// Result counts what Bootstrap created. Records that already existed are not counted.
type Result struct {
	Accounts      int
	Organizations int
	Members       int
}

// Bootstrap applies seed. It is safe to run repeatedly: existing accounts are reused,
// and organizations whose name is already taken are skipped along with their members.
func Bootstrap(ctx context.Context, cfg Config, seed *Seed) (*Result, error) {
	if cfg.Issuer == nil || cfg.Accounts == nil || cfg.Organizations == nil {
		return nil, errors.New("issuer, accounts and organizations are required")
	}

	log := zerolog.Ctx(ctx)
	res := &Result{}
	ids := make(map[string]uuid.UUID, len(seed.Accounts))

	for _, a := range seed.Accounts {
		email := models.NormalizeEmail(a.Email)

		account, err := cfg.Issuer.Register(ctx, auth.RegisterInput{Name: a.Name, Email: email, CPF: a.CPF, Password: a.Password})
		if err == nil {
			ids[email] = account.ID
			res.Accounts++
			log.Info().Str("email", email).Msg("Seeded account")
			continue
		}
		if !isConflict(err) {
			return nil, fmt.Errorf("failed to seed account %s: %w", email, err)
		}

		existing, lookupErr := cfg.Accounts.GetByEmail(ctx, email)
		if lookupErr != nil {
			// the conflict was on the tax id, not the email
			return nil, fmt.Errorf("failed to seed account %s: %w", email, err)
		}
		ids[email] = existing.ID
		log.Debug().Str("email", email).Msg("Account already exists")
	}

	for _, o := range seed.Organizations {
		ownerID := ids[models.NormalizeEmail(o.Owner)]

		org, err := cfg.Organizations.Create(ctx, ownerID, directory.CreateOrganizationInput{Name: o.Name, CNPJ: o.CNPJ})
		if isConflict(err) {
			log.Info().Str("organization", o.Name).Msg("Organization already exists, skipping")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to seed organization %s: %w", o.Name, err)
		}
		res.Organizations++
		log.Info().Str("organization", o.Name).Str("organization_id", org.ID.String()).Msg("Seeded organization")

		for _, m := range o.Members {
			memberID := ids[models.NormalizeEmail(m.Email)]
			if memberID == ownerID {
				continue
			}

			_, err := cfg.Organizations.AddMember(ctx, ownerID, org.ID, directory.AddMemberInput{UserID: memberID.String(), Role: m.Role})
			if err != nil {
				return nil, fmt.Errorf("failed to add %s to %s: %w", m.Email, o.Name, err)
			}
			res.Members++
		}
	}

	return res, nil
}

func isConflict(err error) bool {
	var apiErr *apierr.Error
	return errors.As(err, &apiErr) && apiErr.Kind == apierr.KindConflict
}
