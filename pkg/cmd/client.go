package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/photovault/pkg/client"
	"github.com/yeisme/photovault/pkg/retry"
)

var (
	clientUserID int64
	clientOutDir string
	clientYes    bool

	clientCmd = &cobra.Command{
		Use:   "client",
		Short: "call a running photovault server",
	}

	clientPingCmd = &cobra.Command{
		Use:   "ping",
		Short: "number of objects in the bucket (M) and users in the database (N)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}

			res, err := c.Ping(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "M:", pingText(res.M, res.MErr))
			fmt.Fprintln(cmd.OutOrStdout(), "N:", pingText(res.N, res.NErr))

			return nil
		},
	}

	clientUsersCmd = &cobra.Command{
		Use:   "users",
		Short: "list users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}

			users, err := c.Users(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USERID\tUSERNAME\tNAME")

			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s, %s\n", u.UserID, u.Username, u.FamilyName, u.GivenName)
			}

			return w.Flush()
		},
	}

	clientImagesCmd = &cobra.Command{
		Use:   "images",
		Short: "list images, optionally only those of --userid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}

			var filter *int64
			if cmd.Flags().Changed("userid") {
				filter = &clientUserID
			}

			assets, err := c.Images(cmd.Context(), filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ASSETID\tUSERID\tLOCALNAME\tBUCKETKEY")

			for _, a := range assets {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", a.AssetID, a.UserID, a.LocalName, a.BucketKey)
			}

			return w.Flush()
		},
	}

	clientUploadCmd = &cobra.Command{
		Use:   "upload <userid> <file>",
		Short: "upload a local image for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseIDArg("userid", args[0])
			if err != nil {
				return err
			}

			c, err := newAPIClient()
			if err != nil {
				return err
			}

			res, err := c.UploadFile(cmd.Context(), userID, args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "image uploaded, asset id = %d\n", res.AssetID)

			if res.LabelStatus == "failed" {
				fmt.Fprintf(cmd.OutOrStdout(), "labels not stored: %s\n", res.LabelError)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%d labels stored\n", res.LabelCount)
			}

			return nil
		},
	}

	clientDownloadCmd = &cobra.Command{
		Use:   "download <assetid>",
		Short: "download an image into --out using its original file name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseIDArg("assetid", args[0])
			if err != nil {
				return err
			}

			c, err := newAPIClient()
			if err != nil {
				return err
			}

			res, err := c.Download(cmd.Context(), assetID)
			if err != nil {
				return err
			}

			path := filepath.Join(clientOutDir, filepath.Base(res.LocalFilename))
			if err := os.WriteFile(path, res.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "userid %d: %s (%d bytes) -> %s\n", res.UserID, res.BucketKey, len(res.Data), path)

			return nil
		},
	}

	clientLabelsCmd = &cobra.Command{
		Use:   "labels <assetid>",
		Short: "list the labels of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assetID, err := parseIDArg("assetid", args[0])
			if err != nil {
				return err
			}

			c, err := newAPIClient()
			if err != nil {
				return err
			}

			labels, err := c.Labels(cmd.Context(), assetID)
			if err != nil {
				return err
			}

			for _, l := range labels {
				fmt.Fprintf(cmd.OutOrStdout(), " %s (%d)\n", l.Label, l.Confidence)
			}

			return nil
		},
	}

	clientSearchCmd = &cobra.Command{
		Use:   "search <label>",
		Short: "find images whose labels contain the given text (case-insensitive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newAPIClient()
			if err != nil {
				return err
			}

			matches, err := c.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ASSETID\tLABEL\tCONFIDENCE")

			for _, m := range matches {
				fmt.Fprintf(w, "%d\t%s\t%d\n", m.AssetID, m.Label, m.Confidence)
			}

			return w.Flush()
		},
	}

	clientPurgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "delete every image and label (users are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clientYes && !confirm(cmd, "Delete all images and labels? [y/N] ") {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}

			c, err := newAPIClient()
			if err != nil {
				return err
			}

			res, err := c.DeleteAll(cmd.Context())
			for _, key := range res.BlobsFailed {
				fmt.Fprintf(cmd.ErrOrStderr(), "object not deleted: %s\n", key)
			}

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d images deleted, %d objects removed\n", res.Assets, res.BlobsDeleted)

			return nil
		},
	}
)

func newAPIClient() (*client.Client, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return client.New(cfg.Client, retry.FromConfig(cfg.Retry)), nil
}

func parseIDArg(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}

	return id, nil
}

func pingText(n int64, errMsg string) string {
	if errMsg != "" {
		return "error: " + errMsg
	}

	return strconv.FormatInt(n, 10)
}

func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)

	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}

func registerClientCommands() {
	clientImagesCmd.Flags().Int64Var(&clientUserID, "userid", 0, "only list images of this user")
	clientDownloadCmd.Flags().StringVarP(&clientOutDir, "out", "o", ".", "directory to write the image into")
	clientPurgeCmd.Flags().BoolVarP(&clientYes, "yes", "y", false, "do not ask for confirmation")

	clientCmd.AddCommand(
		clientPingCmd,
		clientUsersCmd,
		clientImagesCmd,
		clientUploadCmd,
		clientDownloadCmd,
		clientLabelsCmd,
		clientSearchCmd,
		clientPurgeCmd,
	)

	rootCmd.AddCommand(clientCmd)
}
