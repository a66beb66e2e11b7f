package playermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
	// River owns its queue tables; they are created with `river migrate-up`
	// (or rivermigrate in the integration harness), not here. This marker
	// keeps the dependency visible in migration status output.
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("River queue tables are managed by river migrate-up; nothing to do.")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		return nil
	})
}
