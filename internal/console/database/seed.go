package database

import (
	"context"

	"github.com/ViewsFromSaturn/Project-Tactics/internal/console/auth"
	"github.com/ViewsFromSaturn/Project-Tactics/internal/model"
	"github.com/google/uuid"
)

// Seed fills the database with a couple of development accounts. The
// passwords are all "test".
func Seed(queries *Queries) error {
	ctx := context.TODO()

	pwd, err := auth.NewPassword("test")
	if err != nil {
		return err
	}

	admin, err := queries.CreateAccount(ctx, CreateAccountParams{
		ID:           uuid.NewString(),
		Username:     "overseer",
		Email:        "overseer@example.com",
		PasswordHash: pwd.String(),
		IsAdmin:      true,
	})
	if err != nil {
		return err
	}
	if _, err := queries.CreateCharacter(ctx, CreateCharacterParams{
		ID:         uuid.NewString(),
		AccountID:  admin.ID,
		Name:       "Seraphine",
		Rank:       model.RankJusticar,
		Allegiance: "Ashen Pact",
	}); err != nil {
		return err
	}

	player, err := queries.CreateAccount(ctx, CreateAccountParams{
		ID:           uuid.NewString(),
		Username:     "wanderer",
		Email:        "wanderer@example.com",
		PasswordHash: pwd.String(),
	})
	if err != nil {
		return err
	}
	if _, err := queries.CreateCharacter(ctx, CreateCharacterParams{
		ID:         uuid.NewString(),
		AccountID:  player.ID,
		Name:       "Corvin",
		Rank:       model.RankAspirant,
		Allegiance: model.AllegianceNone,
	}); err != nil {
		return err
	}

	return nil
}
