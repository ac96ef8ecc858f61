package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pevans/newspick/news"
	"github.com/pevans/newspick/search"
)

func handleTop(args []string) int {
	// Parse flags for top command
	fs := flag.NewFlagSet("top", flag.ExitOnError)
	query := fs.String("query", "top news", "Search query")
	date := fs.String("date", "", "Date to search (YYYY-MM-DD); empty searches without a date filter")
	key := fs.String("key", "", "SerpAPI key; prompted when omitted")
	fs.Parse(args)

	cfg := loadConfig()

	apiKey := *key
	if apiKey == "" {
		apiKey = cfg.Search.APIKey
	}
	if apiKey == "" && needsAPIKey(cfg) {
		v, err := prompt(bufio.NewReader(os.Stdin), os.Stdout, "Enter your SerpAPI Key: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		apiKey = v
	}
	if apiKey == "" && needsAPIKey(cfg) {
		fmt.Println("API key is required. Exiting...")
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fetcher := newFetcher(cfg, apiKey, newLogger())
	article, err := search.Top(ctx, fetcher, search.Query{
		Topic: *query,
		Date:  *date,
		Num:   cfg.Search.Num,
	})
	printTop(os.Stdout, article, err)

	return 0
}

// printTop prints the first story of a search, or why there is none.
func printTop(w io.Writer, article *news.Article, err error) {
	switch {
	case errors.Is(err, search.ErrNoResults):
		fmt.Fprintln(w, "No news results found.")
	case err != nil:
		fmt.Fprintf(w, "Error fetching news: %v\n", err)
	default:
		published := article.PublishedAt
		if published == "" {
			published = "unknown"
		}
		fmt.Fprintf(w, "Title: %s\n", article.Title)
		fmt.Fprintf(w, "Source: %s\n", article.Publisher)
		fmt.Fprintf(w, "Published: %s\n", published)
		fmt.Fprintf(w, "Link: %s\n", article.Link)
	}
}
