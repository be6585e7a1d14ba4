// Package main manages the catalog database schema and backups.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/mrheathv/mtg-deck-builder/internal/config"
	"github.com/mrheathv/mtg-deck-builder/internal/storage"
	"github.com/mrheathv/mtg-deck-builder/internal/version"
)

var dbPath = flag.String("db", "", "Catalog database path (default: $DECKBUILDER_DB_PATH or ~/.mtg-deck-builder/catalog.db)")

// getDBPath returns the database path from the flag, the environment, or the default location.
func getDBPath() string {
	if *dbPath != "" {
		return *dbPath
	}
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}
	path, err := cfg.ResolveDBPath()
	if err != nil {
		log.Fatalf("Error resolving database path: %v", err)
	}
	return path
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	switch args[0] {
	case "migrate":
		runMigrationCommand(args[1:])
	case "backup":
		runBackupCommand(args[1:])
	case "version":
		fmt.Printf("catalog-db %s\n", version.String())
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("MTG Deck Builder - Catalog Database Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  catalog-db [-db <path>] migrate <up|down|status|goto N|force N>")
	fmt.Println("  catalog-db [-db <path>] backup <create [name]|list|restore <file>|verify <file>>")
	fmt.Println("  catalog-db version")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  catalog-db migrate up")
	fmt.Println("  catalog-db migrate force 1")
	fmt.Println("  catalog-db backup create before-reimport")
	fmt.Println("  DECKBUILDER_DB_PATH=/tmp/test.db catalog-db migrate status")
}

func runMigrationCommand(args []string) {
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	path := getDBPath()
	mgr, err := storage.NewMigrationManager(path)
	if err != nil {
		log.Fatalf("Error creating migration manager: %v", err)
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Printf("Error closing migration manager: %v", err)
		}
	}()

	switch args[0] {
	case "up":
		fmt.Println("Applying all pending migrations...")
		if err := mgr.Up(); err != nil {
			log.Fatalf("Error applying migrations: %v", err)
		}

	case "down":
		fmt.Println("Rolling back all migrations...")
		if err := mgr.Down(); err != nil {
			log.Fatalf("Error rolling back migrations: %v", err)
		}

	case "status":

	case "goto":
		target, err := strconv.ParseUint(requireArg(args, "goto"), 10, 32)
		if err != nil {
			log.Fatalf("Invalid version number: %v", err)
		}
		fmt.Printf("Migrating to version %d...\n", target)
		if err := mgr.Goto(uint(target)); err != nil {
			log.Fatalf("Error migrating: %v", err)
		}

	case "force":
		target, err := strconv.Atoi(requireArg(args, "force"))
		if err != nil {
			log.Fatalf("Invalid version number: %v", err)
		}
		fmt.Println("WARNING: This does not run migrations, only sets the version.")
		if err := mgr.Force(target); err != nil {
			log.Fatalf("Error forcing version: %v", err)
		}

	default:
		fmt.Printf("Unknown migration command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}

	current, dirty, err := mgr.Version()
	if err != nil {
		log.Fatalf("Error getting version: %v", err)
	}
	if dirty {
		fmt.Printf("Current version: %d (dirty - migration failed or interrupted)\n", current)
		fmt.Println("Use 'catalog-db migrate force <version>' to recover")
		return
	}
	fmt.Printf("Current version: %d\n", current)
}

func runBackupCommand(args []string) {
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	path := getDBPath()
	bm := storage.NewBackupManager(path)

	switch args[0] {
	case "create":
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		backupPath, err := bm.Backup("", name)
		if err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		fmt.Printf("Backup written to %s\n", backupPath)

	case "list":
		backups, err := bm.ListBackups("")
		if err != nil {
			log.Fatalf("Error listing backups: %v", err)
		}
		if len(backups) == 0 {
			fmt.Printf("No backups in %s\n", bm.BackupDir())
			return
		}
		for _, b := range backups {
			fmt.Printf("%-40s %10d bytes  %s  %.12s\n", b.Name, b.Size, b.ModTime.Format("2006-01-02 15:04:05"), b.Checksum)
		}

	case "restore":
		file := requireArg(args, "restore")
		fmt.Printf("Restoring %s from %s (stop the API server first)\n", path, file)
		if err := bm.Restore(file); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		fmt.Println("Restore complete.")

	case "verify":
		file := requireArg(args, "verify")
		if err := storage.VerifyDatabase(file); err != nil {
			log.Fatalf("Verification failed: %v", err)
		}
		fmt.Printf("%s is a valid catalog database\n", file)

	default:
		fmt.Printf("Unknown backup command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func requireArg(args []string, command string) string {
	if len(args) < 2 {
		fmt.Printf("Error: %s requires an argument\n\n", command)
		printUsage()
		os.Exit(2)
	}
	return args[1]
}
