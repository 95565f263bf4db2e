package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/permit-to-work/internal/auth"
	"github.com/frahmantamala/permit-to-work/internal/permit"
	"github.com/frahmantamala/permit-to-work/internal/user"
)

const seedPassword = "password123"

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed one account per role and a few sample permits for development and testing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		app, err := newApplication(cfg)
		if err != nil {
			log.Fatalf("failed to init application: %v", err)
		}
		defer app.Close()

		if err := seed(context.Background(), app, clearData); err != nil {
			log.Fatalf("seed: %v", err)
		}
	},
}

var seedUsers = []user.CreateUserDTO{
	{Email: "admin@ptw.local", Name: "Site Admin", Role: string(auth.RoleAdmin)},
	{Email: "opgaveansvarlig@ptw.local", Name: "Opgaveansvarlig", Role: string(auth.RoleOpgaveansvarlig)},
	{Email: "drift@ptw.local", Name: "Driftsvagt", Role: string(auth.RoleDrift)},
	{Email: "acme@ptw.local", Name: "Acme Formand", Role: string(auth.RoleEntreprenor), Firma: "Acme A/S"},
	{Email: "beta@ptw.local", Name: "Beta Formand", Role: string(auth.RoleEntreprenor), Firma: "Beta ApS"},
}

var seedPermits = []permit.CreatePermitDTO{
	{WorkOrderNo: "WO-1001", Description: "Scaffolding at boiler house", Location: "Boiler house, level 2",
		EntreprenorFirma: "Acme A/S", Jobansvarlig: "Acme Formand", Status: string(permit.StatusActive)},
	{WorkOrderNo: "WO-1002", Description: "Hot work on return line", Location: "Pipe bridge P4",
		EntreprenorFirma: "Acme A/S", Jobansvarlig: "Acme Formand", Status: string(permit.StatusPlanning)},
	{WorkOrderNo: "WO-2001", Description: "Valve replacement", Location: "Pump station 1",
		EntreprenorFirma: "Beta ApS", Jobansvarlig: "Beta Formand", Status: string(permit.StatusActive)},
}

func seed(ctx context.Context, app *application, clear bool) error {
	if clear {
		err := app.Gorm.WithContext(ctx).Exec(
			"TRUNCATE time_entries, permit_approval_history, permit_approvals, permits, daily_reset_markers, users RESTART IDENTITY CASCADE",
		).Error
		if err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
		fmt.Println("Cleared existing data")
	}

	var owner *user.User
	for _, dto := range seedUsers {
		dto.Password = seedPassword
		u, err := app.Users.Create(ctx, dto)
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			fmt.Println("user already exists:", dto.Email)
			if u, err = app.Users.GetByEmail(ctx, dto.Email); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("create user %s: %w", dto.Email, err)
		default:
			fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
		}
		if u.Role == auth.RoleOpgaveansvarlig {
			owner = u
		}
	}

	identity := auth.Identity{UserID: owner.ID, Role: owner.Role}
	existing, err := app.Permits.ListPermits(ctx, identity)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		fmt.Printf("%d permits already present; skipping sample permits\n", len(existing))
		return nil
	}

	for _, dto := range seedPermits {
		p, err := app.Permits.CreatePermit(ctx, identity, dto)
		if err != nil {
			return fmt.Errorf("create permit %s: %w", dto.WorkOrderNo, err)
		}
		fmt.Printf("Seeded permit %d (%s) for %s\n", p.ID, p.WorkOrderNo, p.EntreprenorFirma)
	}

	fmt.Println("All seed accounts use password:", seedPassword)
	return nil
}
