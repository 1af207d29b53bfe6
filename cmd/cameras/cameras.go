// Package cameras provides commands running the camera use cases directly against the
// configured metadata store and relays, without the HTTP API.
package cameras

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/camrelay/internal/app"
	"github.com/tphakala/camrelay/internal/camera"
	"github.com/tphakala/camrelay/internal/conf"
	"github.com/tphakala/camrelay/internal/logger"
	"github.com/tphakala/camrelay/internal/validation"
)

const defaultTimeout = 30 * time.Second

// rejection mirrors the API error body for business errors.
type rejection struct {
	Message string              `json:"message"`
	Details validation.Feedback `json:"details"`
}

// action runs one operation against the assembled components and returns what to print.
type action func(ctx context.Context, a *app.App) (any, error)

// Command creates the cameras command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "cameras",
		Short: "Manage cameras",
		Long:  "List, create, update and delete cameras and request temporary stream URLs. Output is JSON.",
	}
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", defaultTimeout, "Time limit for the whole operation")

	exec := func(cmd *cobra.Command, fn action) error {
		return execute(cmd.Context(), settings, timeout, cmd.OutOrStdout(), cmd.ErrOrStderr(), fn)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all cameras",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return exec(cmd, func(ctx context.Context, a *app.App) (any, error) {
					return a.Cameras.List(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "create <name> <rtsp-url>",
			Short: "Create a camera and register its permanent relay",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return exec(cmd, func(ctx context.Context, a *app.App) (any, error) {
					return a.Cameras.Create(ctx, camera.CreateInput{Name: args[0], SourceURL: args[1]})
				})
			},
		},
		&cobra.Command{
			Use:   "put <id> <name> <rtsp-url>",
			Short: "Create or replace the camera with the given id",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return exec(cmd, func(ctx context.Context, a *app.App) (any, error) {
					return a.Cameras.Put(ctx, camera.PutInput{ID: args[0], Name: args[1], SourceURL: args[2]})
				})
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a camera and its permanent relay",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return exec(cmd, func(ctx context.Context, a *app.App) (any, error) {
					return nil, a.Cameras.Delete(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "stream <id>",
			Short: "Request a temporary stream URL for a camera",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return exec(cmd, func(ctx context.Context, a *app.App) (any, error) {
					return a.Cameras.GetTempStreamURL(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "relays",
			Short: "List streams registered on the permanent relay",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return exec(cmd, func(ctx context.Context, a *app.App) (any, error) {
					return a.Permanent.ListStreams(ctx)
				})
			},
		},
	)

	return cmd
}

// execute builds the components, runs fn under a timeout and prints its result as JSON.
// A business error prints its field feedback to errOut; the returned error makes the
// command exit non-zero either way.
func execute(parent context.Context, settings *conf.Settings, timeout time.Duration, out, errOut io.Writer, fn action) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := logger.Global()
	components, err := app.New(settings, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			log.Warn("failed to close components", logger.Error(err))
		}
	}()

	result, err := fn(ctx, components)
	if err != nil {
		var be *camera.BusinessError
		if stderrors.As(err, &be) {
			_ = printJSON(errOut, rejection{Message: be.Message, Details: be.Feedback})
		}
		return err
	}

	if result == nil {
		return nil
	}
	return printJSON(out, result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
