package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"paddydoc/api/internal/config"
	"paddydoc/api/internal/logging"
	"paddydoc/api/internal/report"
	"paddydoc/api/internal/util"
	"paddydoc/api/internal/vision"
	"paddydoc/api/internal/vision/gemini"
	"paddydoc/api/internal/vision/openai"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		engineName string
		model      string
		timeout    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Send a leaf photo to a vision model and classify its answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			// logs go to stderr so stdout stays parseable
			logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel, "console")

			img, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			engines := &vision.Engines{Default: cfg.DefaultEngine}
			if model != "" {
				cfg.GeminiModel, cfg.OpenAIModel = model, model
			}
			engines.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
			engines.OpenAI = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel).WithBaseURL(cfg.OpenAIBaseURL)
			eng, err := engines.GetEngine(engineName)
			if err != nil {
				return err
			}

			ctx, cancel := contextWithTimeout(cmd, timeout)
			defer cancel()
			ctx = logger.WithContext(ctx)

			mime := util.PickMIME("", util.MimeFromPath(args[0]), img)
			zerolog.Ctx(ctx).Debug().Str("engine", eng.Name()).Str("model", eng.GetModel()).Str("mime", mime).Msg("analyze")

			rep := report.Classify(vision.Describe(ctx, eng, img, mime))
			if err := writeReport(cmd.OutOrStdout(), outputFormat, rep); err != nil {
				return err
			}
			if rep.Kind() == report.KindError {
				return fmt.Errorf("analysis failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&engineName, "engine", "e", "", "vision engine: gemini or gpt (default from DEFAULT_ENGINE)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model override")
	cmd.Flags().DurationVar(&timeout, "timeout", 180*time.Second, "request timeout")
	return cmd
}
