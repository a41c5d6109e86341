package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codenote/internal/annotate"
	"codenote/internal/gateway/app"
	"codenote/internal/gateway/config"
	"codenote/internal/util/jsonutil"
)

type annotateOptions struct {
	language  string
	verbosity string
	asJSON    bool
	save      bool
}

func newAnnotateCmd(env environment, root *rootOptions) *cobra.Command {
	opts := &annotateOptions{}
	cmd := &cobra.Command{
		Use:   "annotate FILE",
		Short: "Print FILE with generated comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(env)
			if err != nil {
				return err
			}
			code, err := root.readSource(args[0])
			if err != nil {
				return err
			}
			if opts.language == "" {
				opts.language = languageFromPath(args[0])
			}
			rec, err := annotateSource(cmd.Context(), cfg, logger, string(code), opts)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return jsonutil.Encode(cmd.OutOrStdout(), rec, true)
			}
			out := rec.AnnotatedCode
			if !strings.HasSuffix(out, "\n") {
				out += "\n"
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.language, "language", "l", "", "language hint (default: from file extension)")
	f.StringVarP(&opts.verbosity, "verbosity", "v", string(annotate.VerbosityConcise), "concise, verbose or teaching")
	f.BoolVar(&opts.asJSON, "json", false, "print the full annotation record as JSON")
	f.BoolVar(&opts.save, "save", false, "persist the record in the configured annotation store")
	return cmd
}

func annotateSource(ctx context.Context, cfg *config.Config, logger *zap.Logger, code string, opts *annotateOptions) (annotate.Record, error) {
	svc, err := app.NewAnnotator(ctx, cfg, logger)
	if err != nil {
		return annotate.Record{}, err
	}
	rec, err := svc.Annotate(ctx, annotate.Request{
		Code:      code,
		Language:  opts.language,
		Verbosity: annotate.Verbosity(opts.verbosity),
	})
	if err != nil {
		return annotate.Record{}, describeAnnotateError(err)
	}
	if !opts.save {
		return rec, nil
	}

	store, closeFn, err := app.OpenAnnotationStore(ctx, cfg, logger)
	if err != nil {
		return annotate.Record{}, err
	}
	if closeFn != nil {
		defer func() { _ = closeFn() }()
	}
	rec.ID = uuid.NewString()
	if err := store.Put(ctx, rec); err != nil {
		return annotate.Record{}, fmt.Errorf("save annotation: %w", err)
	}
	return rec, nil
}

func describeAnnotateError(err error) error {
	switch annotate.KindOf(err) {
	case annotate.KindServiceUnavailable:
		return fmt.Errorf("no model API key configured (set GEMINI_API_KEY or GROQ_API_KEY): %w", err)
	case annotate.KindInvalidPayload:
		return fmt.Errorf("model returned an unusable payload: %w", err)
	}
	return err
}

var extLanguages = map[string]string{
	".c": "c", ".h": "c", ".cc": "cpp", ".cpp": "cpp", ".hpp": "cpp",
	".cs": "csharp", ".go": "go", ".java": "java", ".js": "javascript",
	".jsx": "javascript", ".kt": "kotlin", ".php": "php", ".py": "python",
	".rb": "ruby", ".rs": "rust", ".scala": "scala", ".sh": "bash",
	".sql": "sql", ".swift": "swift", ".ts": "typescript", ".tsx": "typescript",
}

// languageFromPath returns "" for unknown extensions so the service falls
// back to its own default.
func languageFromPath(p string) string {
	return extLanguages[strings.ToLower(filepath.Ext(p))]
}
