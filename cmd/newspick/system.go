package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pevans/newspick/config"
	"github.com/pevans/newspick/sheet"
)

// sheetCheckTimeout bounds the reachability checks of init and doctor.
const sheetCheckTimeout = 30 * time.Second

func handleInit(args []string) {
	// Parse flags for init command
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file with the defaults")
	fs.Parse(args)

	fmt.Println("Initializing newspick...")
	fmt.Println()

	initSucceeded := true
	createdSomething := false

	configPath, err := config.ConfigFilePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ Failed to resolve config path: %v\n", err)
		os.Exit(1)
	}

	// Create default config file as the first step
	err = config.WriteDefaultConfigFile(configPath, *force)
	switch {
	case errors.Is(err, config.ErrConfigExists):
		fmt.Printf("  Config file: %s (already exists)\n", configPath)
	case err != nil:
		fmt.Fprintf(os.Stderr, "  ✗ Failed to create config file: %v\n", err)
		initSucceeded = false
	default:
		fmt.Printf("  ✓ Config file: %s\n", configPath)
		createdSomething = true
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  ✗ Config is invalid: %v\n", err)
		initSucceeded = false
	}

	if cfg != nil {
		target := sheetTarget(cfg)
		switch target.Type {
		case sheet.TypeSQLite, sheet.TypePostgres:
			ctx, cancel := context.WithTimeout(context.Background(), sheetCheckTimeout)
			_, closer, err := sheet.Open(ctx, target)
			cancel()
			if err != nil {
				fmt.Fprintf(os.Stderr, "  ✗ Failed to initialize sheet: %v\n", err)
				initSucceeded = false
			} else {
				closer.Close()
				fmt.Printf("  ✓ Sheet: %s\n", describeTarget(target))
				createdSomething = true
			}
		case sheet.TypeGoogle:
			if _, err := os.Stat(target.Credentials); err != nil {
				fmt.Printf("  ⚠ Credentials file not found: %s\n", target.Credentials)
				fmt.Println("    Download a service-account key and set sheet.credentials")
			} else {
				fmt.Printf("  Sheet: Google Sheets %q (credentials: %s)\n", target.Name, target.Credentials)
			}
		default:
			fmt.Println("  Sheet: disabled")
		}
	}

	fmt.Println()

	if !initSucceeded {
		fmt.Println("✗ Initialization failed")
		os.Exit(1)
	}

	if !createdSomething && !*force {
		fmt.Println("✓ Already initialized")
		fmt.Println()
		fmt.Println("Use 'newspick doctor' to check the configuration")
	} else {
		fmt.Println("✓ Initialized successfully")
		fmt.Println()
		fmt.Println("You can now:")
		fmt.Println("  - Edit the allow list and categories in " + configPath)
		fmt.Println("  - Run a roundup with 'newspick run'")
	}
}

func handleDoctor(args []string) {
	// Parse flags for doctor command
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Show detailed diagnostic information")
	fs.Parse(args)

	fmt.Println("Checking newspick health...")
	fmt.Println()

	hasErrors := false
	hasWarnings := false

	// Check config file
	fmt.Println("Config File:")
	configPath, err := config.ConfigFilePath()
	if err != nil {
		fmt.Printf("  ✗ Cannot resolve config path: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("  Path: %s\n", configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Println("  ⚠ Config file does not exist, using defaults")
		fmt.Println("    Run 'newspick init' to create it")
		hasWarnings = true
	} else if err != nil {
		fmt.Printf("  ✗ Cannot access config file: %v\n", err)
		hasErrors = true
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("  ✗ %v\n", err)
		fmt.Println()
		fmt.Println("✗ Configuration has errors")
		os.Exit(1)
	}
	fmt.Println("  ✓ Configuration is valid")
	if *verbose {
		fmt.Printf("  Allow list: %v (cap %d)\n", cfg.Selection.AllowList, cfg.Selection.Cap)
		for _, c := range cfg.Categories {
			fmt.Printf("  Category %s: %q\n", c.Name, c.Query)
		}
	}

	fmt.Println()

	// Check search provider
	fmt.Println("Search:")
	fmt.Printf("  Provider: %s\n", cfg.Search.Provider)
	if needsAPIKey(cfg) && cfg.Search.APIKey == "" {
		fmt.Println("  API key: not set (prompted at run time)")
	} else if needsAPIKey(cfg) {
		fmt.Println("  ✓ API key is set")
	}

	fmt.Println()

	// Check sheet backend
	fmt.Println("Sheet:")
	target := sheetTarget(cfg)
	fmt.Printf("  Type: %s\n", target.Type)

	if target.Type == sheet.TypeGoogle {
		if stat, err := os.Stat(target.Credentials); err != nil {
			fmt.Printf("  ✗ Credentials file not accessible: %v\n", err)
			hasErrors = true
		} else {
			perm := stat.Mode().Perm()
			if *verbose {
				fmt.Printf("  Credentials: %s (%o)\n", target.Credentials, perm)
			}
			// Key files should be 0600 (owner read/write only)
			if perm&0o077 != 0 {
				fmt.Println("  ⚠ Warning: Credentials file has overly permissive permissions")
				fmt.Printf("    Current: %o, expected: 600\n", perm)
				fmt.Println("    Consider: chmod 600 " + target.Credentials)
				hasWarnings = true
			}
		}
	}

	if target.Type != sheet.TypeNone && !hasErrors {
		ctx, cancel := context.WithTimeout(context.Background(), sheetCheckTimeout)
		defer cancel()

		ws, closer, err := sheet.Open(ctx, target)
		if err != nil {
			fmt.Printf("  ✗ Failed to open sheet: %v\n", err)
			if sheet.IsAuthError(err) {
				fmt.Println("    Check the service-account key and that the sheet is shared with it")
			}
			hasErrors = true
		} else {
			defer closer.Close()
			fmt.Printf("  ✓ %s is accessible\n", describeTarget(target))

			if g, ok := ws.(*sheet.GoogleWorksheet); ok && *verbose {
				fmt.Printf("  Spreadsheet ID: %s, tab: %s\n", g.SpreadsheetID(), g.Tab())
			}
			if s, ok := ws.(*sheet.SQLWorksheet); ok {
				rows, err := s.Rows(ctx)
				if err != nil {
					fmt.Printf("  ⚠ Warning: Could not read rows: %v\n", err)
					hasWarnings = true
				} else if *verbose || len(rows) > 0 {
					fmt.Printf("  Rows stored: %d\n", len(rows))
				}
			}
		}
	}

	fmt.Println()

	// Print summary
	if hasErrors {
		fmt.Println("✗ Checks failed")
		os.Exit(1)
	} else if hasWarnings {
		fmt.Println("✓ Functional but has warnings")
		if !*verbose {
			fmt.Println("  Run 'newspick doctor -verbose' for more details")
		}
	} else {
		fmt.Println("✓ All checks passed")
	}
}
