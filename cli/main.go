package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"

	"vimeosync"
	"vimeosync/config"
	"vimeosync/store"
	"vimeosync/store/sanity"
	"vimeosync/vimeo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "sync":
		cmdSync(args)
	case "thumbs":
		cmdThumbs(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `vimeosync - Vimeo catalog to document store synchronizer

Usage:
  vimeosync sync [flags]                       Sync the video catalog into the store
  vimeosync thumbs generate [flags] <video-id> Generate animated thumbnails for a video
  vimeosync thumbs delete <video-id>           Delete a video's animated thumbnails
  vimeosync help                               Show this help message

Examples:
  vimeosync sync                               # Sync the whole account catalog
  vimeosync sync --folder 1234567              # Sync one folder tree only
  vimeosync sync --dry-run                     # Walk and enrich without writing
  vimeosync thumbs generate 76979871 --start 2 # Clip starting at second 2

Configuration is read from vimeosync.yaml or VIMEOSYNC_* environment
variables (VIMEOSYNC_ACCESS_TOKEN, VIMEOSYNC_SANITY_PROJECT_ID, ...).

For help on a specific command: vimeosync <command> -h
`)
}

func cmdSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	folderID := fs.String("folder", "", "Folder ID to sync (empty = whole catalog)")
	batchSize := fs.Int("batch", 0, "Records per store transaction (0 = config default)")
	dryRun := fs.Bool("dry-run", false, "Walk and enrich but write to an in-memory store")
	quiet := fs.Bool("quiet", false, "Suppress per-batch progress output")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vimeosync sync [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *folderID != "" {
		cfg.FolderID = *folderID
	}
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}

	st, err := openStore(cfg, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	manager, err := vimeosync.NewSyncManager(cfg, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		manager.SetOnProgress(func(state vimeo.RunState) {
			fmt.Fprintf(os.Stderr, "\rpage %d: %d/%d videos", state.Page, state.Processed, state.Total)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintln(os.Stderr, "Syncing Vimeo catalog...")
	count, err := manager.Run(ctx)
	if !*quiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error syncing: %v\n", err)
		os.Exit(1)
	}

	state := manager.State()
	fmt.Println(state.Message)

	if len(state.Inexistent) > 0 {
		fmt.Println("\nDocuments that could not be removed:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DOCUMENT ID\tREASON")
		for _, id := range state.Inexistent {
			fmt.Fprintf(w, "%s\tstill referenced or delete failed\n", id)
		}
		w.Flush()
	}

	fmt.Fprintf(os.Stderr, "Total: %d videos\n", count)
}

func cmdThumbs(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: missing thumbs subcommand (generate or delete)\n")
		os.Exit(1)
	}

	sub := args[0]
	args = args[1:]

	switch sub {
	case "generate":
		cmdThumbsGenerate(args)
	case "delete":
		cmdThumbsDelete(args)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown thumbs subcommand %q (use generate or delete)\n", sub)
		os.Exit(1)
	}
}

func cmdThumbsGenerate(args []string) {
	fs := flag.NewFlagSet("thumbs generate", flag.ExitOnError)
	start := fs.Float64("start", 0, "Clip start time in seconds")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vimeosync thumbs generate [flags] <video-id>\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	argv := fs.Args()
	if len(argv) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video-id\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	video, err := fetchVideo(ctx, cfg, argv[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching video: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "Generating animated thumbnails for %s...\n", video.URI)
	sets, err := vimeosync.GenerateThumbnails(ctx, cfg, video, *start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating thumbnails: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SET URI\tSTATUS\tSIZES")
	for _, set := range sets {
		fmt.Fprintf(w, "%s\t%s\t%d\n", set.URI, set.Status, len(set.Sizes))
	}
	w.Flush()
}

func cmdThumbsDelete(args []string) {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Error: missing video-id\n")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	video := vimeo.Video{URI: "/videos/" + args[0]}
	if err := vimeosync.DeleteThumbnails(ctx, cfg, video); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting thumbnails: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Thumbnails deleted.")
}

// fetchVideo resolves a bare video ID into its full metadata. The duration
// is needed so the generated clip can be capped correctly.
func fetchVideo(ctx context.Context, cfg *config.Config, id string) (vimeo.Video, error) {
	if _, err := strconv.Atoi(id); err != nil {
		return vimeo.Video{}, fmt.Errorf("invalid video id %q: expected a numeric Vimeo ID", id)
	}

	clientCfg := vimeo.DefaultClientConfig()
	clientCfg.AccessToken = cfg.AccessToken
	clientCfg.MaxRetries = cfg.MaxRetries
	clientCfg.RequestsPerSecond = cfg.RequestsPerSecond
	client := vimeo.NewClient(clientCfg)

	var video vimeo.Video
	if err := client.GetJSON(ctx, "/videos/"+id+"?fields=uri,name,duration", &video); err != nil {
		return vimeo.Video{}, err
	}
	return video, nil
}

func openStore(cfg *config.Config, dryRun bool) (store.Store, error) {
	if dryRun {
		return store.NewMemoryStore(), nil
	}
	return sanity.New(sanity.Config{
		ProjectID:  cfg.Sanity.ProjectID,
		Dataset:    cfg.Sanity.Dataset,
		Token:      cfg.Sanity.Token,
		APIVersion: cfg.Sanity.APIVersion,
	})
}
