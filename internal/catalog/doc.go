// Package catalog persists the greenhouse catalog and its history in SQLite.
//
// The catalog holds the typed entities the core works from (zones, plant
// profiles, sensors, actuators, rules and modes) together with stored
// readings, the command and alert history written by the control loop and
// the day reports written by the simulation publisher.
//
// # Components
//
//   - Repository / SQLiteRepository: CRUD and history over the tables
//     created by the embedded migrations
//   - Registry: in-memory Dataset snapshot refreshed from the repository
//   - LoadSeed: YAML/JSON seed file parser used by `greenhouse seed`
//
// # Usage
//
//	repo := catalog.NewSQLiteRepository(db.DB)
//	seed, err := catalog.LoadSeed("configs/seed.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := repo.ImportSeed(ctx, seed); err != nil {
//	    return err
//	}
//
//	registry := catalog.NewRegistry(repo)
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//	ds := registry.Dataset()
//
// Timestamps are stored as UTC text in a fixed-width layout so that string
// comparison in SQL orders them chronologically.
package catalog
