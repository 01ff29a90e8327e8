package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	mq "github.com/yeisme/photovault/pkg/internal/storage/mq"
	"github.com/yeisme/photovault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Message queue related commands",
		Aliases: []string{"messagequeue"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered mq types",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered mq types:")
			for _, t := range mq.RegisteredTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   - "+string(t))
			}
		},
	}

	mqTailCmd = &cobra.Command{
		Use:   "tail [topic...]",
		Short: "print asset events as they are published (nats or redis)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			topics := args
			if len(topics) == 0 {
				topics = queue.AssetTopics
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := mq.New(ctx, cfg.MQ, mq.Options{})
			if err != nil {
				return err
			}
			defer client.Close()

			g, gctx := errgroup.WithContext(ctx)

			for _, topic := range topics {
				msgs, err := client.Subscribe(gctx, topic)
				if err != nil {
					return fmt.Errorf("subscribe %s: %w", topic, err)
				}

				g.Go(func() error {
					for msg := range msgs {
						printEvent(cmd, msg)
						msg.Ack()
					}

					return nil
				})
			}

			return g.Wait()
		},
	}
)

// printEvent 以一行 JSON 打印事件信封，无法解析时打印原始负载.
func printEvent(cmd *cobra.Command, msg *message.Message) {
	env, err := queue.ParseWatermillMessage[map[string]any](msg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: undecodable payload: %s\n", msg.UUID, msg.Payload)
		return
	}

	b, err := sonic.Marshal(env)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", msg.UUID, err)
		return
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

// registerMQCommands 注册 MQ 相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd)
	mqCmd.AddCommand(mqTailCmd)
}
