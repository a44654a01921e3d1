package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/safenetai/escalation/internal/service/notify"
	"github.com/safenetai/escalation/internal/version"
)

var (
	serverURL    string
	announcement bool
	title        string
	message      string
	category     string
	audience     string
	toUID        string
	priority     string

	// rootCmd represents the base command for sending through the daemon.
	rootCmd = &cobra.Command{
		Use:   "escalation-notify",
		Short: "Send a notification or announcement through the escalation daemon.",
		Long: `Posts a direct notification or an authority announcement to a running
escalation daemon.

A notification targets either a role audience (--audience) or a single
recipient (--to). An announcement (--announcement) always broadcasts to
its role audience and carries a category label.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &notify.Options{
				ServerURL:    serverURL,
				Announcement: announcement,
				Title:        title,
				Message:      message,
				Category:     category,
				Audience:     audience,
				ToUID:        toUID,
				Priority:     priority,
			}

			return notify.Run(ctx, options)
		},
	}
)

// Execute runs the escalation-notify CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&serverURL, "server", "s", "http://localhost:8480", "base URL of the escalation daemon")
	rootCmd.Flags().BoolVarP(&announcement, "announcement", "a", false, "send an authority announcement instead of a notification")
	rootCmd.Flags().StringVarP(&title, "title", "t", "", "title of the message")
	rootCmd.Flags().StringVarP(&message, "message", "m", "", "body of the message")
	rootCmd.Flags().StringVar(&category, "category", "", "announcement category label")
	rootCmd.Flags().StringVar(&audience, "audience", "", "target role (resident, worker, security, authority, everyone)")
	rootCmd.Flags().StringVar(&toUID, "to", "", "target a single recipient by id")
	rootCmd.Flags().StringVar(&priority, "priority", "", "delivery priority (urgent, high, medium, normal)")
}
