package seeders

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/app/services"
	"github.com/shashiranjanraj/stockbook/config"
)

func init() {
	Register("admin_user", seedAdminUser)
}

// seedAdminUser creates or promotes ADMIN_USERNAME. It does nothing when
// the variable is unset.
func seedAdminUser(ctx context.Context, db *gorm.DB, out io.Writer) error {
	username := config.AdminUsername()
	if username == "" {
		fmt.Fprintln(out, "    ADMIN_USERNAME not set, skipping")
		return nil
	}
	password := config.AdminPassword()
	if password == "" {
		return fmt.Errorf("ADMIN_PASSWORD must be set with ADMIN_USERNAME")
	}

	created, err := services.NewUsers(db, nil).EnsureAdmin(ctx, username, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "    created admin %q\n", username)
	} else {
		fmt.Fprintf(out, "    %q is an admin\n", username)
	}
	return nil
}
