package postgres

import (
	"context"
	"fmt"

	"github.com/oksasatya/cep-users/internal/infrastructure/referencedata"
)

// SeedReferenceData upserts states and cities. Re-running it refreshes the
// state names and the service-area flags.
func SeedReferenceData(ctx context.Context, db DBTX, cities []referencedata.City) error {
	states := map[string]string{}
	for _, c := range cities {
		stateID, ok := states[c.UF]
		if !ok {
			if err := db.QueryRow(ctx, `
				INSERT INTO states (name, abbreviation) VALUES ($1, upper($2))
				ON CONFLICT (abbreviation) DO UPDATE SET name = EXCLUDED.name, updated_at = now()
				RETURNING id::text
			`, c.State, c.UF).Scan(&stateID); err != nil {
				return fmt.Errorf("upsert state %s: %w", c.UF, err)
			}
			states[c.UF] = stateID
		}
		if _, err := db.Exec(ctx, `
			INSERT INTO cities (name, state_id, in_service_area) VALUES ($1, $2, $3)
			ON CONFLICT (state_id, lower(name)) DO UPDATE SET in_service_area = EXCLUDED.in_service_area, updated_at = now()
		`, c.Name, stateID, c.InServiceArea); err != nil {
			return fmt.Errorf("upsert city %s/%s: %w", c.Name, c.UF, err)
		}
	}
	return nil
}
