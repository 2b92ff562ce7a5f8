package main

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"simple-cache/internal/cache"
	"simple-cache/internal/logger"
)

// parseTTL reads a --ttl flag: empty is the default TTL, a bare integer is
// seconds and anything else must parse as a Go duration.
func parseTTL(s string) (cache.TTL, error) {
	if s == "" {
		return cache.TTL{}, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return cache.Seconds(n), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return cache.TTL{}, fmt.Errorf("%w: ttl %q is neither seconds nor a duration", cache.ErrInvalidArgument, s)
	}
	return cache.Interval(d), nil
}

// parsePairs turns key=value arguments into an ordered map.
func parsePairs(args []string) (*orderedmap.OrderedMap[string, string], error) {
	values := orderedmap.New[string, string]()
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not key=value", cache.ErrInvalidArgument, arg)
		}
		values.Set(key, value)
	}
	return values, nil
}

// withCache opens the configured cache, runs fn and closes it.
func withCache(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, c *cache.Cache[string], out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	opts.defaultTTLSet = cmd.Flags().Changed("default-ttl")
	s, err := open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Log(ctx).Error(ctx, "failed to close cache", zap.Error(err))
		}
	}()
	return fn(ctx, s.cache, cmd.OutOrStdout())
}

func printBool(out io.Writer, ok bool) error {
	_, err := fmt.Fprintln(out, ok)
	return err
}

func getCmd(opts *globalOptions) *cobra.Command {
	var def string
	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				v, err := c.Get(ctx, args[0], def)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, v)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&def, "default", "", "printed when KEY is missing or expired")
	return cmd
}

func setCmd(opts *globalOptions) *cobra.Command {
	var ttl string
	cmd := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "store VALUE under KEY",
		Long:  "store VALUE under KEY; a ttl of 0 or less deletes KEY instead",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTTL(ttl)
			if err != nil {
				return err
			}
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				ok, err := c.Set(ctx, args[0], args[1], t)
				if err != nil {
					return err
				}
				return printBool(out, ok)
			})
		},
	}
	cmd.Flags().StringVar(&ttl, "ttl", "", "seconds (60) or duration (1h30m); default TTL when empty")
	return cmd
}

func deleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "remove KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				ok, err := c.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				return printBool(out, ok)
			})
		},
	}
}

func hasCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "has KEY",
		Short: "report whether KEY holds a live entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				ok, err := c.Has(ctx, args[0])
				if err != nil {
					return err
				}
				return printBool(out, ok)
			})
		},
	}
}

func keysCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "list stored keys, including expired ones not yet purged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				keys, err := c.Driver().Keys(ctx)
				if err != nil {
					return err
				}
				for _, k := range keys {
					if _, err := fmt.Fprintln(out, k); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func clearCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "remove every entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				ok, err := c.Clear(ctx)
				if err != nil {
					return err
				}
				return printBool(out, ok)
			})
		},
	}
}

func expiresCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expires KEY",
		Short: "print the expiration of KEY in epoch seconds, 0 if absent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				ts, err := c.Driver().ExpirationTimestamp(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, ts)
				return err
			})
		},
	}
}

func ttlCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ttl KEY",
		Short: "print the seconds KEY has left, 0 if absent or expired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				ts, err := c.Driver().ExpirationTimestamp(ctx, args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, remaining(ts, opts.clock.Now()))
				return err
			})
		},
	}
}

func remaining(expiresAt int64, now time.Time) int64 {
	return max(expiresAt-now.Unix(), 0)
}

func mgetCmd(opts *globalOptions) *cobra.Command {
	var def string
	cmd := &cobra.Command{
		Use:   "mget KEY...",
		Short: "print key=value for each KEY, in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				values, err := c.GetMultiple(ctx, slices.Values(args), def)
				if err != nil {
					return err
				}
				for p := values.Oldest(); p != nil; p = p.Next() {
					if _, err := fmt.Fprintf(out, "%s=%s\n", p.Key, p.Value); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&def, "default", "", "value printed for missing or expired keys")
	return cmd
}

func msetCmd(opts *globalOptions) *cobra.Command {
	var ttl string
	cmd := &cobra.Command{
		Use:   "mset KEY=VALUE...",
		Short: "store several pairs, in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTTL(ttl)
			if err != nil {
				return err
			}
			values, err := parsePairs(args)
			if err != nil {
				return err
			}
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				ok, err := c.SetMultiple(ctx, cache.Pairs(values), t)
				if err != nil {
					return err
				}
				return printBool(out, ok)
			})
		},
	}
	cmd.Flags().StringVar(&ttl, "ttl", "", "seconds (60) or duration (1h30m); default TTL when empty")
	return cmd
}

func mdelCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mdel KEY...",
		Short: "remove several keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, opts, func(ctx context.Context, c *cache.Cache[string], out io.Writer) error {
				ok, err := c.DeleteMultiple(ctx, slices.Values(args))
				if err != nil {
					return err
				}
				return printBool(out, ok)
			})
		},
	}
}
