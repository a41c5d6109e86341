package main

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codenote/internal/github"
	"codenote/internal/publish"
)

type publishOptions struct {
	owner     string
	repo      string
	path      string
	branch    string
	message   string
	annotate  bool
	language  string
	verbosity string
}

func newPublishCmd(env environment, root *rootOptions) *cobra.Command {
	opts := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish FILE",
		Short: "Create or update FILE in a GitHub repository",
		Long: "Publish reads the remote file first and only writes when the content differs.\n" +
			"The token is read from GITHUB_TOKEN.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(env)
			if err != nil {
				return err
			}
			token := strings.TrimSpace(env.getenv("GITHUB_TOKEN"))
			if token == "" {
				return errors.New("GITHUB_TOKEN is not set")
			}
			content, err := root.readSource(args[0])
			if err != nil {
				return err
			}
			if opts.annotate {
				lang := opts.language
				if lang == "" {
					lang = languageFromPath(args[0])
				}
				rec, err := annotateSource(cmd.Context(), cfg, logger, string(content), &annotateOptions{
					language:  lang,
					verbosity: opts.verbosity,
				})
				if err != nil {
					return err
				}
				content = []byte(rec.AnnotatedCode)
			}

			remotePath := opts.path
			if remotePath == "" {
				remotePath = path.Clean(filepath.ToSlash(args[0]))
			}

			gh := github.NewClient(cfg.GitHub.APIURL, cfg.GitHub.Timeout)
			pub := publish.New(gh,
				publish.WithOwnerResolver(gh),
				publish.WithDefaultBranch(cfg.GitHub.DefaultBranch),
				publish.WithLogger(logger),
			)
			res, err := pub.PublishObserved(cmd.Context(), publish.Request{
				Owner:   opts.owner,
				Repo:    opts.repo,
				Path:    remotePath,
				Branch:  opts.branch,
				Content: content,
				Token:   token,
				Message: opts.message,
			}, func(s publish.State) {
				logger.Debug("publish state", zap.String("state", string(s)))
			})
			if err != nil {
				if res.Outcome == publish.OutcomeConflict {
					return fmt.Errorf("remote changed while publishing; pull or use a new path: %w", err)
				}
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s/%s@%s %s\n",
				res.Outcome, res.Owner, opts.repo, res.Path, res.Branch, res.SHA)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.owner, "owner", "", "repository owner (default: the token's user)")
	f.StringVar(&opts.repo, "repo", "", "repository name")
	f.StringVar(&opts.path, "path", "", "path in the repository (default: FILE)")
	f.StringVar(&opts.branch, "branch", "", "target branch (default: GITHUB_DEFAULT_BRANCH)")
	f.StringVarP(&opts.message, "message", "m", "", "commit message")
	f.BoolVar(&opts.annotate, "annotate", false, "annotate FILE before publishing")
	f.StringVarP(&opts.language, "language", "l", "", "language hint for --annotate")
	f.StringVar(&opts.verbosity, "verbosity", "concise", "verbosity for --annotate")
	_ = cmd.MarkFlagRequired("repo")
	return cmd
}
