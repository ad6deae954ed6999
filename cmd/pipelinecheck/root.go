package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-lectures/backend/config"
	"github.com/aura-lectures/backend/internal/generation"
	"github.com/aura-lectures/backend/internal/models"
	"github.com/aura-lectures/backend/internal/pipeline"
	"github.com/aura-lectures/backend/internal/synthesis"
	"github.com/aura-lectures/backend/pkg/storage"
)

type options struct {
	full    bool
	dir     string
	docs    []string
	verbose bool
	timeout time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "pipelinecheck",
		Short:         "Run the sample lecture transcript through document generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			genOpts, err := parseDocs(opts.docs)
			if err != nil {
				return err
			}
			logger := newLogger(opts.verbose)
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			if opts.full {
				return runFull(ctx, cmd, cfg, genOpts, opts.dir, logger)
			}
			return runGeneration(ctx, cmd, cfg, genOpts, logger)
		},
	}
	cmd.Flags().BoolVar(&opts.full, "full", false, "Run the whole pipeline with an in-memory record store")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Artifact directory for --full (default: a temp dir)")
	cmd.Flags().StringSliceVar(&opts.docs, "docs", []string{"short", "detailed"}, "Documents to generate: short, detailed, flashcards, quiz, script")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at debug level")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "Overall time limit")
	return cmd
}

func parseDocs(docs []string) (models.GenerationOptions, error) {
	var o models.GenerationOptions
	for _, d := range docs {
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "short":
			o.ShortNotes = true
		case "detailed":
			o.DetailedNotes = true
		case "flashcards":
			o.Flashcards = true
		case "quiz":
			o.Quiz = true
		case "script":
			o.NarratedScript = true
		case "":
		default:
			return o, fmt.Errorf("unknown document %q", d)
		}
	}
	if !o.ShortNotes && !o.DetailedNotes && !o.Flashcards && !o.Quiz && !o.NarratedScript {
		return o, fmt.Errorf("no documents requested")
	}
	return o, nil
}

func runGeneration(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts models.GenerationOptions, logger *zap.Logger) error {
	out := cmd.OutOrStdout()
	first := sampleTranscript.Segments[0]
	fmt.Fprintf(out, "Transcript: language=%s segments=%d\n", sampleTranscript.Language, len(sampleTranscript.Segments))
	fmt.Fprintf(out, "First segment: [%.1fs - %.1fs] %q\n\n", first.Start, first.End, first.Text)

	gen := pipeline.WithFallback(generation.Select(cfg.Generation, logger), logger)
	fmt.Fprintf(out, "Generator: %s\n", gen.Name())
	transcript, _ := sampleTranscriber{}.Transcribe(ctx, "")
	result, err := gen.Generate(ctx, transcript, opts)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	printResult(cmd, result)
	return nil
}

func runFull(ctx context.Context, cmd *cobra.Command, cfg *config.Config, opts models.GenerationOptions, dir string, logger *zap.Logger) error {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "pipelinecheck-")
		if err != nil {
			return fmt.Errorf("temp dir: %w", err)
		}
		dir = tmp
	}
	local, err := storage.NewLocal(dir)
	if err != nil {
		return err
	}
	store := newMemoryStore()
	lecture := store.seed("ML101")

	var fatalErr error
	orch := pipeline.New(store, storage.NewArtifacts(local), pipeline.Adapters{
		Transcriber: sampleTranscriber{},
		Generator:   generation.Select(cfg.Generation, logger),
		Synthesizer: synthesis.Select(cfg.Synthesis, logger),
	}, logger,
		pipeline.WithProvisionalVoiced(cfg.Pipeline.ProvisionalVoiced),
		pipeline.WithFatalHandler(func(err error) { fatalErr = err }),
	)
	orch.Enqueue(pipeline.Job{
		LectureID:  lecture.ID,
		CourseCode: lecture.CourseCode,
		AudioRef:   "sample",
		Generation: opts,
		Synthesis:  models.SynthesisOptions{Enabled: opts.NarratedScript},
	})
	if err := orch.WaitIdle(ctx); err != nil {
		return fmt.Errorf("wait for pipeline: %w", err)
	}
	if fatalErr != nil {
		return fatalErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderHistory(store.history(lecture.ID)))
	final := store.get(lecture.ID)
	fmt.Fprintln(out, renderArtifacts(local.Root(), final))
	if final.Status == models.LectureStatusFailed && final.ErrorMessage != nil {
		return fmt.Errorf("pipeline failed: %s", *final.ErrorMessage)
	}
	return nil
}

func printResult(cmd *cobra.Command, r *models.GenerationResult) {
	out := cmd.OutOrStdout()
	section := func(title, body string) {
		fmt.Fprintf(out, "\n%s\n%s\n%s\n", title, strings.Repeat("-", 60), body)
	}
	if r.ShortNotes != nil {
		section("Short notes", *r.ShortNotes)
	}
	if r.DetailedNotes != nil {
		section("Detailed notes", *r.DetailedNotes)
	}
	if r.Flashcards != nil {
		rows := make([][]string, 0, len(r.Flashcards.Flashcards))
		for _, c := range r.Flashcards.Flashcards {
			rows = append(rows, []string{fmt.Sprint(c.ID), c.Front, c.Back, c.Timestamp})
		}
		section("Flashcards", renderTable([]string{"#", "Front", "Back", "Time"}, rows))
	}
	if r.Quiz != nil {
		rows := make([][]string, 0, len(r.Quiz.Questions))
		for _, q := range r.Quiz.Questions {
			answer := ""
			if q.Correct >= 0 && q.Correct < len(q.Options) {
				answer = q.Options[q.Correct]
			}
			rows = append(rows, []string{fmt.Sprint(q.ID), q.Question, answer})
		}
		section("Quiz", renderTable([]string{"#", "Question", "Answer"}, rows))
	}
	if r.NarratedScript != nil {
		section("Narrated script", *r.NarratedScript)
	}
}

func newLogger(verbose bool) *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
