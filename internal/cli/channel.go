package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewChannelCmd создаёт группу команд для управления каналами.
func NewChannelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Manage channels",
	}

	cmd.AddCommand(
		newChannelListCmd(clientFn, outputFn),
		newChannelReloadCmd(clientFn, outputFn),
		newChannelStopCmd(clientFn, outputFn),
		newChannelRotateCmd(clientFn, outputFn),
	)

	return cmd
}

func newChannelListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List channels and their states",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			channels, err := client.ListChannels()
			if err != nil {
				return err
			}

			out.Channels(channels)
			return nil
		},
	}
}

func newChannelReloadCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Stop and reload all channels from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.ReloadChannels(); err != nil {
				return err
			}

			out.Success("Channels reloaded")
			return nil
		},
	}
}

func newChannelStopCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stop CHANNEL_ID",
		Short: "Stop a channel's listener",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.StopChannel(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Channel stopped: %s", args[0]))
			return nil
		},
	}
}

func newChannelRotateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var credential string

	cmd := &cobra.Command{
		Use:   "rotate CHANNEL_ID",
		Short: "Rotate a channel's transport credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			channel, err := client.RotateCredential(args[0], credential)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Credential rotated: %s", channel.ChannelID))
			out.Channel(channel)
			return nil
		},
	}

	cmd.Flags().StringVar(&credential, "credential", "", "New transport credential (required)")
	cmd.MarkFlagRequired("credential")

	return cmd
}
