package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lab-inventory/internal/model"
	"lab-inventory/internal/service"
	"lab-inventory/internal/store"
)

type userFlags struct {
	email     string
	firstName string
	lastName  string
	pantherID string
	phone     string
	role      string
	labs      []string
	password  string
}

func (f *userFlags) user() (model.User, error) {
	u := model.User{
		FirstName: strings.TrimSpace(f.firstName),
		LastName:  strings.TrimSpace(f.lastName),
		Email:     strings.ToLower(strings.TrimSpace(f.email)),
		PantherID: strings.TrimSpace(f.pantherID),
		Role:      f.role,
	}
	if u.Email == "" || u.FirstName == "" || u.LastName == "" || u.PantherID == "" {
		return u, errors.New("--email, --first-name, --last-name and --panther-id are required")
	}
	if !model.IsRole(u.Role) {
		return u, fmt.Errorf("invalid role %q", u.Role)
	}
	if p := strings.TrimSpace(f.phone); p != "" {
		u.PhoneNumber = &p
	}
	for _, l := range f.labs {
		if !model.IsLab(l) {
			return u, fmt.Errorf("invalid lab %q", l)
		}
	}
	u.AuthorizedLabs = f.labs
	if len(u.AuthorizedLabs) == 0 {
		if !model.BypassesLabFilter(u.Role) {
			return u, errors.New("faculty users need at least one --labs entry")
		}
		u.AuthorizedLabs = append([]string(nil), model.Labs...)
	}
	if f.password != "" && len(f.password) < service.MinPasswordLength {
		return u, fmt.Errorf("password must be at least %d characters", service.MinPasswordLength)
	}
	return u, nil
}

var (
	createActiveUser = service.CreateActiveUser
	createUser       = store.CreateUser
)

// publicBase 沒有 BASE_URL 時假設服務跑在本機
func (e *env) publicBase() string {
	host := e.cfg.ServerAddr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return e.cfg.PublicBaseURL("http", host)
}

func newCreateUserCmd(e *env) *cobra.Command {
	f := &userFlags{}
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user account directly in the database.

With --password the account is active immediately. Without it the account is
pending and a one-time setup link is printed instead of e-mailed.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&f.email, "email", "", "e-mail address (login name)")
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&f.pantherID, "panther-id", "", "Panther ID")
	cmd.Flags().StringVar(&f.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&f.role, "role", model.RoleFaculty, "role (admin, grant, faculty)")
	cmd.Flags().StringSliceVar(&f.labs, "labs", nil, "authorized labs, comma separated")
	cmd.Flags().StringVar(&f.password, "password", "", "initial password (omit to print a setup link)")

	cmd.RunE = func(c *cobra.Command, args []string) error {
		u, err := f.user()
		if err != nil {
			return err
		}
		return e.withDB(true, func(ctx context.Context, _ []string) error {
			if f.password != "" {
				created, err := createActiveUser(ctx, e.db, u, f.password)
				if err != nil {
					return conflictMessage(err)
				}
				e.printf("Created active %s user %s (id %d)\n", created.Role, created.Email, created.ID)
				return nil
			}

			token := service.NewSetupToken(e.cfg.SetupTokenTTL)
			u.Status = model.UserStatusPending
			u.SetupToken = &token.Value
			u.SetupTokenExpiry = &token.Expiry
			created, err := createUser(ctx, e.db, &u)
			if err != nil {
				return conflictMessage(err)
			}
			e.printf("Created pending %s user %s (id %d)\n", created.Role, created.Email, created.ID)
			e.printf("Setup link (valid for %s):\n  %s\n", service.DescribeTTL(e.cfg.SetupTokenTTL), service.SetupURL(e.publicBase(), token.Value))
			return nil
		})(c, args)
	}
	return cmd
}

func conflictMessage(err error) error {
	if errors.Is(err, store.ErrConflict) {
		return errors.New("email or Panther ID already exists")
	}
	return err
}
