package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"placement/internal"
	"placement/internal/auth"
	"placement/internal/batch"
	"placement/internal/config"
	"placement/internal/connectors"
	"placement/internal/listener"
	"placement/internal/logging"
	"placement/internal/objectstore"
	"placement/internal/pipeline"
	"placement/internal/storage"
	"placement/internal/web"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg.LogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "upload":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		month := fs.String("month", "", strings.Join(batch.Months, "|"))
		year := fs.String("year", "", "batch year, e.g. 2025")
		paths := map[internal.Slot]*string{}
		for _, slot := range internal.Slots {
			paths[slot] = fs.String(strings.ToLower(string(slot)), "", fmt.Sprintf("%s file path", slot))
		}
		mdDAC := fs.String("masterdata-dac-sheet", cfg.IntakeMasterDataDACSheet, "MasterData DAC sheet (blank: first sheet)")
		mdDBDA := fs.String("masterdata-dbda-sheet", cfg.IntakeMasterDataDBDASheet, "MasterData DBDA sheet (blank: first sheet)")
		plDAC := fs.String("placement-dac-sheet", cfg.IntakePlacementDACSheet, "Placement DAC sheet (blank: first sheet)")
		plDBDA := fs.String("placement-dbda-sheet", cfg.IntakePlacementDBDASheet, "Placement DBDA sheet (blank: first sheet)")
		_ = fs.Parse(os.Args[2:])
		if *month != "" && !batch.IsKnownMonth(*month) {
			must(fmt.Errorf("--month must be one of %s", strings.Join(batch.Months, ", ")))
		}
		if len(*year) > 4 {
			must(fmt.Errorf("--year must be at most 4 characters"))
		}

		req := internal.UploadRequest{
			Month:  *month,
			Year:   *year,
			Source: "cli",
			Progress: func(done, total int) {
				fmt.Printf("progress %d/%d\n", done, total)
			},
		}
		for _, slot := range internal.Slots {
			path := strings.TrimSpace(*paths[slot])
			if path == "" {
				continue
			}
			content, err := os.ReadFile(path)
			must(err)
			sf := internal.SlotFile{Slot: slot, File: internal.UploadFile{Name: filepath.Base(path), Content: content}}
			switch slot {
			case internal.SlotMasterData:
				sf.DACSheet, sf.DBDASheet = *mdDAC, *mdDBDA
			case internal.SlotPlacement:
				sf.DACSheet, sf.DBDASheet = *plDAC, *plDBDA
			}
			req.Files = append(req.Files, sf)
		}

		uploads := pipeline.NewUploadService(mustSink(cfg), db, cfg, log)
		report, err := uploads.Process(ctx, req)
		must(err)
		printReport(report)
		if report.Succeeded() == 0 {
			os.Exit(2)
		}
	case "folders":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		search := fs.String("search", "", "substring, month or year")
		_ = fs.Parse(os.Args[2:])
		folders, err := batch.ListFolders(ctx, mustSink(cfg), cfg.DataBucket, log)
		must(err)
		for _, f := range batch.FilterFolders(folders, *search) {
			fmt.Println(f)
		}
	case "transform":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input spreadsheet path")
		kind := fs.String("type", "passthrough", "DAC|DBDA|passthrough")
		sheet := fs.String("sheet", "", "sheet name for passthrough (blank: first sheet)")
		output := fs.String("output", "", "output path (.csv or .xlsx)")
		_ = fs.Parse(os.Args[2:])
		if *input == "" || *output == "" {
			must(fmt.Errorf("--input and --output are required"))
		}
		transformer, err := pipeline.ParseTransformKind(*kind)
		must(err)
		content, err := os.ReadFile(*input)
		must(err)
		table, err := transformer.Transform(internal.UploadFile{Name: filepath.Base(*input), Content: content}, *sheet)
		must(err)
		must(pipeline.ExportTable(table, *output))
		fmt.Printf("transform done type=%s rows=%d output=%s\n", *kind, len(table.Rows), *output)
	case "history":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		batchID := fs.String("batch", "", "batch id, e.g. Mar_2025 (blank: all)")
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListRuns(*batchID, *limit)
		must(err)
		for _, run := range runs {
			fmt.Printf("run=%s batch=%s source=%s started=%s succeeded=%d failed=%d marker=%s\n",
				run.RunID, run.BatchID, run.Source, run.StartedAt, run.Succeeded, run.Failed, deref(run.MarkerKey))
			uploads, err := db.ListUploads(run.RunID)
			must(err)
			for _, u := range uploads {
				fmt.Printf("  slot=%s status=%s key=%s error=%s\n", u.Slot, u.Status, deref(u.ArtifactKey), deref(u.Error))
			}
		}
	case "mail:ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		maxMessages := fs.Int("max", cfg.MailListenerFetchMax, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := listener.NewConnector(ctx, strings.ToLower(strings.TrimSpace(*provider)), cfg)
		must(err)
		uploads := pipeline.NewUploadService(mustSink(cfg), db, cfg, log)
		intake := connectors.NewIntakeService(db, conn, uploads, cfg, log)
		res, err := intake.FetchAndProcess(ctx, *label, *maxMessages)
		must(err)
		fmt.Printf("mail ingest done provider=%s fetched=%d stored=%d processed=%d skipped=%d failed=%d\n",
			*provider, res.Fetched, res.Stored, res.Processed, res.Skipped, res.Failed)
	case "mail:process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		messageID := fs.String("messageId", "", "message-id of a stored mail")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*messageID) == "" {
			must(fmt.Errorf("--messageId is required"))
		}
		mail, err := db.MustMailByProviderMessageID(*provider, *messageID)
		must(err)
		uploads := pipeline.NewUploadService(mustSink(cfg), db, cfg, log)
		intake := connectors.NewIntakeService(db, nil, uploads, cfg, log)
		status, err := intake.ProcessMail(ctx, mail)
		must(err)
		fmt.Printf("processed mail id=%d status=%s\n", mail.ID, status)
	case "mail:listen":
		uploads := pipeline.NewUploadService(mustSink(cfg), db, cfg, log)
		must(listener.NewService(db, uploads, cfg, log).Run(ctx))
	case "serve":
		must(serve(ctx, cfg, db, log))
	default:
		usage()
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg config.Config, db *storage.DB, log *slog.Logger) error {
	authenticator, err := auth.NewAuthenticator(cfg)
	if err != nil {
		return err
	}
	sink := mustSink(cfg)
	uploads := pipeline.NewUploadService(sink, db, cfg, log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewServer(authenticator, uploads, sink, cfg, log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("http server listening", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func mustSink(cfg config.Config) *objectstore.S3Sink {
	sink, err := objectstore.NewS3Sink(cfg)
	must(err)
	return sink
}

func printReport(report internal.UploadReport) {
	fmt.Printf("upload done run=%s batch=%s succeeded=%d failed=%d\n", report.RunID, report.BatchID, report.Succeeded(), len(report.Failures()))
	for _, res := range report.Results {
		if res.OK() {
			fmt.Printf("  ok slot=%s keys=%s\n", res.Slot, strings.Join(res.Keys, ","))
			continue
		}
		fmt.Printf("  failed slot=%s error=%v\n", res.Slot, res.Err)
	}
	switch {
	case report.MarkerKey != "":
		fmt.Printf("  marker=%s\n", report.MarkerKey)
	case report.MarkerErr != nil:
		fmt.Printf("  marker failed: %v\n", report.MarkerErr)
	}
}

func deref(v *string) string {
	if v == nil {
		return "-"
	}
	return *v
}

func usage() {
	fmt.Println("usage: placement <command>")
	fmt.Println("commands:")
	fmt.Println("  upload --month=March|September --year=2025 [--dac=...] [--dbda=...] [--registration=...] [--masterdata=...] [--placement=...]")
	fmt.Println("         [--masterdata-dac-sheet=...] [--masterdata-dbda-sheet=...] [--placement-dac-sheet=...] [--placement-dbda-sheet=...]")
	fmt.Println("  folders [--search=...]")
	fmt.Println("  transform --input=... --type=DAC|DBDA|passthrough [--sheet=...] --output=...csv|xlsx")
	fmt.Println("  history [--batch=Mar_2025] [--limit=20]")
	fmt.Println("  mail:ingest [--provider=gmail|imap] [--label=INBOX] [--max=20]")
	fmt.Println("  mail:process [--provider=gmail|imap] --messageId=...")
	fmt.Println("  mail:listen")
	fmt.Println("  serve")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
