package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Get subcommand
	subcommand := os.Args[1]

	switch subcommand {
	case "run":
		os.Exit(handleRun(os.Args[2:]))
	case "top":
		os.Exit(handleTop(os.Args[2:]))
	case "init":
		handleInit(os.Args[2:])
	case "doctor":
		handleDoctor(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("newspick - Daily news picks from trusted sources")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  newspick <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run        Search each category, pick stories and append them to the sheet")
	fmt.Println("  top        Print the top story for a query")
	fmt.Println("  init       Write the default config file and set up the sheet")
	fmt.Println("  doctor     Check configuration and sheet health")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  NEWSPICK_CONFIG      Path to config file (default: ~/.newspick/config.yaml)")
	fmt.Println("  NEWSPICK_API_KEY     SerpAPI key (skips the prompt)")
	fmt.Println("  NEWSPICK_SHEET_TYPE  Sheet backend: google, sqlite, postgres or none")
	fmt.Println("  NEWSPICK_SHEET_DSN   Database path or connection string for sql backends")
	fmt.Println("  NEWSPICK_FORMAT      Default output format for run (default: table)")
	fmt.Println("  LOG_LEVEL            Log level: debug, info, warn, error (default: info)")
	fmt.Println("  LOG_FORMAT           Log format: text or json (default: text)")
}
