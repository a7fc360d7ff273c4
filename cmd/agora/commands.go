package main

import (
	"fmt"
	"io"
	"strings"

	"agora/internal/api"
	"agora/internal/config"
	"agora/internal/reconciler"
	"agora/internal/utils"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type app struct {
	cfg    *config.Client
	client *reconciler.Client
	cache  *reconciler.Cache
	votes  *reconciler.Reconciler
}

func newRootCmd(cfg *config.Client) *cobra.Command {
	a := &app{cfg: cfg}

	root := &cobra.Command{
		Use:           "agora",
		Short:         "Read feeds and vote on an agora server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.client = reconciler.NewClient(a.cfg.ServerURL, a.cfg.SessionName, a.cfg.Session)
			a.cache = reconciler.NewCache(a.client, 0)
			a.votes = reconciler.New(a.cache, a.client)
		},
	}
	root.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "server base URL")
	root.PersistentFlags().StringVar(&cfg.Session, "session", cfg.Session, "session cookie value")

	root.AddCommand(a.feedCmd(), a.postCmd(), a.voteCmd())
	return root
}

func (a *app) feedCmd() *cobra.Command {
	var place, domain string
	var top, home bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := reconciler.PostsKey(top)
			switch {
			case place != "":
				key = reconciler.PlacePostsKey(place)
			case domain != "":
				key = reconciler.DomainPostsKey(domain)
			case home:
				key = reconciler.HomePostsKey()
			}
			entry, err := a.cache.Load(cmd.Context(), key)
			if err != nil {
				return report(cmd, err)
			}
			for _, p := range entry.Posts {
				printPost(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&place, "place", "", "posts of one place")
	cmd.Flags().StringVar(&domain, "domain", "", "posts linking to one domain")
	cmd.Flags().BoolVar(&top, "top", false, "order by hot rank")
	cmd.Flags().BoolVar(&home, "home", false, "posts of subscribed places")
	cmd.MarkFlagsMutuallyExclusive("place", "domain", "top", "home")
	return cmd
}

func (a *app) postCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post <id>",
		Short: "Show one post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := utils.ParseID(args[0])
			if !ok {
				return errors.Errorf("invalid post id %q", args[0])
			}
			entry, err := a.cache.Load(cmd.Context(), reconciler.PostKey(id))
			if err != nil {
				return report(cmd, err)
			}
			out := cmd.OutOrStdout()
			printPost(out, *entry.Post)
			if entry.Post.Content != "" {
				fmt.Fprintf(out, "\n%s\n", entry.Post.Content)
			}
			return nil
		},
	}
}

func (a *app) voteCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "vote <up|down> <post-id>",
		Short:     "Vote on a post; voting the same way again withdraws the vote",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(api.Up), string(api.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := api.Direction(strings.ToLower(args[0]))
			if _, ok := direction.Value(); !ok {
				return errors.Errorf("direction must be up or down, got %q", args[0])
			}
			id, ok := utils.ParseID(args[1])
			if !ok {
				return errors.Errorf("invalid post id %q", args[1])
			}
			out := cmd.OutOrStdout()
			ctx := cmd.Context()

			if !a.client.SignedIn() {
				fmt.Fprintln(out, "sign in to vote")
				return nil
			}

			// 先加载投票状态，乐观更新才有基准
			if _, err := a.cache.Load(ctx, reconciler.PostVoteKey(id)); err != nil {
				return report(cmd, err)
			}
			unsubscribe := a.cache.Subscribe(reconciler.PostVoteKey(id), func(_ reconciler.Key, e *reconciler.Entry) {
				if e == nil || e.Vote == nil {
					return
				}
				state := "confirmed"
				if e.Stale {
					state = "pending"
				}
				fmt.Fprintf(out, "%-9s score %d, your vote %s\n", state, e.Vote.Score, voteLabel(e.Vote.UserVote))
			})
			defer unsubscribe()

			if _, err := a.votes.Vote(ctx, id, direction, nil); err != nil {
				if errors.Is(err, reconciler.ErrSignedOut) {
					fmt.Fprintln(out, "sign in to vote")
					return nil
				}
				return report(cmd, err)
			}
			return nil
		},
	}
}

func report(cmd *cobra.Command, err error) error {
	var statusErr *reconciler.StatusError
	if errors.As(err, &statusErr) && statusErr.Unauthorized() {
		fmt.Fprintln(cmd.ErrOrStderr(), "session rejected, sign in again")
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	return err
}

func printPost(w io.Writer, p api.Post) {
	fmt.Fprintf(w, "%5d  %+4d  %-4s  %s", p.ID, p.Score, voteLabel(p.UserVote), p.Title)
	if p.Domain != "" {
		fmt.Fprintf(w, " (%s)", p.Domain)
	}
	fmt.Fprintf(w, "  /%s\n", p.Place.Slug)
}

func voteLabel(v api.VoteValue) string {
	switch v {
	case api.Upvote:
		return "up"
	case api.Downvote:
		return "down"
	}
	return "-"
}
