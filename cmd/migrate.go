package cmd

import (
	"fmt"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
)

// Migrate runs a migration subcommand: up, down [steps] or status
func Migrate(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: raffle migrate [up|down|status] [args...]")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
