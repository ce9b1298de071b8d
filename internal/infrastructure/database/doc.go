// Package database provides the SQLite connection for the greenhouse catalog.
//
// The catalog holds zones, plant profiles, sensors, actuators, rules, modes
// and readings, plus the command, alert and report history written by the
// control loop and the simulation publisher.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns are NULLABLE or carry a DEFAULT, and
// every .up.sql ships with a .down.sql.
package database
